package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexBool(t *testing.T) {
	cases := map[string]bool{
		`true`:    true,
		`false`:   false,
		`"true"`:  true,
		`"TRUE"`:  true,
		`"false"`: false,
		`"1"`:     true,
		`"0"`:     false,
	}
	for raw, want := range cases {
		var f flexBool
		require.NoError(t, json.Unmarshal([]byte(raw), &f), raw)
		assert.Equal(t, want, bool(f), raw)
	}
}

func TestFlexFloat(t *testing.T) {
	cases := map[string]float64{
		`12.5`:     12.5,
		`"12.5"`:   12.5,
		`"150000"`: 150000,
		`""`:       0,
	}
	for raw, want := range cases {
		var f flexFloat
		require.NoError(t, json.Unmarshal([]byte(raw), &f), raw)
		assert.InDelta(t, want, float64(f), 1e-9, raw)
	}
}

func TestToDomainMarket(t *testing.T) {
	raw := `{
		"id": "gamma-1",
		"condition_id": "0xabc",
		"question": "Will Bitcoin reach $100k in 2026?",
		"description": "Resolves YES if BTC trades at 100000.",
		"market_slug": "btc-100k",
		"active": "true",
		"closed": false,
		"volume": "150000.5",
		"liquidity": 25000,
		"end_date_iso": "2026-12-31T23:59:59Z",
		"tokens": [
			{"token_id": "tok-yes", "outcome": "Yes", "price": 0.45},
			{"token_id": "tok-no", "outcome": "No", "price": 0.55}
		]
	}`

	var api APIMarket
	require.NoError(t, json.Unmarshal([]byte(raw), &api))

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	m := api.ToDomainMarket(now)

	assert.Equal(t, "0xabc", m.ID)
	assert.Equal(t, "Will Bitcoin reach $100k in 2026?", m.Title)
	assert.Equal(t, "https://polymarket.com/event/btc-100k", m.URL)
	assert.True(t, m.Active)
	assert.False(t, m.Closed)
	assert.InDelta(t, 150000.5, m.Volume, 1e-9)
	assert.InDelta(t, 25000.0, m.Liquidity, 1e-9)
	assert.Equal(t, "tok-yes", m.YesTokenID)
	assert.Equal(t, "tok-no", m.NoTokenID)
	require.NotNil(t, m.YesPrice)
	require.NotNil(t, m.NoPrice)
	assert.InDelta(t, 0.45, *m.YesPrice, 1e-9)
	assert.InDelta(t, 0.55, *m.NoPrice, 1e-9)
	require.NotNil(t, m.EndDate)
	assert.Equal(t, 2026, m.EndDate.Year())
	assert.Equal(t, now, m.FetchedAt)
}

func TestToDomainMarketMissingPrices(t *testing.T) {
	api := APIMarket{
		ConditionID: "0xdef",
		Question:    "No book yet?",
		Tokens: []Token{
			{TokenID: "tok-yes", Outcome: "Yes"},
			{TokenID: "tok-no", Outcome: "No"},
		},
	}

	m := api.ToDomainMarket(time.Now())

	assert.Equal(t, "tok-yes", m.YesTokenID)
	assert.Nil(t, m.YesPrice)
	assert.Nil(t, m.NoPrice)
	assert.False(t, m.HasPrices())
}

func TestToDomainMarketFallsBackToGammaID(t *testing.T) {
	api := APIMarket{ID: "gamma-7", Question: "q"}
	m := api.ToDomainMarket(time.Now())
	assert.Equal(t, "gamma-7", m.ID)
}

func TestParsePriceField(t *testing.T) {
	p, ok := parsePriceField(json.RawMessage(`{"best_bid": "0.42", "best_ask": "0.44"}`))
	require.True(t, ok)
	assert.InDelta(t, 0.42, p, 1e-9)

	p, ok = parsePriceField(json.RawMessage(`"0.37"`))
	require.True(t, ok)
	assert.InDelta(t, 0.37, p, 1e-9)

	p, ok = parsePriceField(json.RawMessage(`0.31`))
	require.True(t, ok)
	assert.InDelta(t, 0.31, p, 1e-9)

	_, ok = parsePriceField(nil)
	assert.False(t, ok)

	_, ok = parsePriceField(json.RawMessage(`"not-a-number"`))
	assert.False(t, ok)
}

func TestParseWSTimestamp(t *testing.T) {
	millis := parseWSTimestamp("1756500000000")
	assert.Equal(t, int64(1756500000), millis.Unix())

	secs := parseWSTimestamp("1756500000")
	assert.Equal(t, int64(1756500000), secs.Unix())

	rfc := parseWSTimestamp("2026-08-30T10:00:00Z")
	assert.Equal(t, 2026, rfc.Year())
}
