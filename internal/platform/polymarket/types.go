package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pairscout/engine/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a quoted number string; the
// Gamma API sends volume and liquidity both ways.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = flexFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string    `json:"id"`
	ConditionID   string    `json:"condition_id"`
	Question      string    `json:"question"`
	Description   string    `json:"description"`
	Slug          string    `json:"market_slug"`
	Active        flexBool  `json:"active"`
	Closed        bool      `json:"closed"`
	Tokens        []Token   `json:"tokens"`
	Volume        flexFloat `json:"volume"`
	Liquidity     flexFloat `json:"liquidity"`
	EndDateISO    string    `json:"end_date_iso"`
	Outcomes      string    `json:"outcomes"`       // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string    `json:"outcomePrices"`  // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	ClobTokenIDs  string    `json:"clob_token_ids"` // JSON-encoded: e.g. "[\"123\",\"456\"]"
}

// Token is a token entry inside the Gamma API market response. Price may be
// absent for markets with no book.
type Token struct {
	TokenID string   `json:"token_id"`
	Outcome string   `json:"outcome"`
	Price   *float64 `json:"price"`
	Winner  bool     `json:"winner"`
}

// APIMarketsPage is the cursor-paginated envelope returned by /markets.
type APIMarketsPage struct {
	Data       []APIMarket `json:"data"`
	NextCursor string      `json:"next_cursor"`
	Limit      int         `json:"limit"`
	Count      int         `json:"count"`
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market. The market ID
// is the condition ID, matching what the WebSocket feed reports. Prices come
// from the token entries; a token without a price leaves that side nil.
func (m *APIMarket) ToDomainMarket(fetchedAt time.Time) domain.Market {
	dm := domain.Market{
		ID:          m.ConditionID,
		Title:       m.Question,
		Description: m.Description,
		Active:      bool(m.Active),
		Closed:      m.Closed,
		Volume:      float64(m.Volume),
		Liquidity:   float64(m.Liquidity),
		FetchedAt:   fetchedAt,
	}
	if dm.ID == "" {
		dm.ID = m.ID
	}
	if m.Slug != "" {
		dm.URL = "https://polymarket.com/event/" + m.Slug
	}

	for _, tok := range m.Tokens {
		switch strings.ToLower(tok.Outcome) {
		case "yes":
			dm.YesTokenID = tok.TokenID
			if tok.Price != nil {
				p := *tok.Price
				dm.YesPrice = &p
			}
		case "no":
			dm.NoTokenID = tok.TokenID
			if tok.Price != nil {
				p := *tok.Price
				dm.NoPrice = &p
			}
		}
	}

	if m.EndDateISO != "" {
		if t, err := time.Parse(time.RFC3339, m.EndDateISO); err == nil {
			dm.EndDate = &t
		}
	}

	return dm
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSCommand is the JSON payload sent to the WebSocket to subscribe or
// unsubscribe on the public market channel.
type WSCommand struct {
	Type    string   `json:"type"` // "subscribe" or "unsubscribe"
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
}

// wsEnvelope is the outer shape used to route incoming frames.
type wsEnvelope struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
}

// priceChangeMessage is an incremental best-quote update on the market
// channel. The price field arrives either as an object or a flat number
// string, so it is deferred to parse time.
type priceChangeMessage struct {
	AssetID   string          `json:"asset_id"`
	Market    string          `json:"market"`
	Price     json.RawMessage `json:"price"`
	Timestamp string          `json:"timestamp"`
}

// lastTradePriceMessage is the most recent trade for an asset.
type lastTradePriceMessage struct {
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Timestamp string `json:"timestamp"`
}

// PriceUpdate is a normalized price event for one asset (token), delivered to
// feed handlers regardless of which WebSocket event produced it.
type PriceUpdate struct {
	AssetID   string
	Price     float64
	Timestamp time.Time
}

// parsePriceField extracts a price from the price_change payload, which is
// either {"best_bid": "...", "best_ask": "..."} or a bare number string.
func parsePriceField(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var obj struct {
		BestBid string `json:"best_bid"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.BestBid != "" {
		if p, err := strconv.ParseFloat(obj.BestBid, 64); err == nil {
			return p, true
		}
		return 0, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if p, err := strconv.ParseFloat(s, 64); err == nil {
			return p, true
		}
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	return 0, false
}

// parseWSTimestamp accepts unix millis, unix seconds, or RFC3339.
func parseWSTimestamp(s string) time.Time {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ts > 1e12 {
			return time.UnixMilli(ts)
		}
		return time.Unix(ts, 0)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now()
}
