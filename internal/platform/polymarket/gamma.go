package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pairscout/engine/internal/domain"
)

// firstPageCursor is the cursor value for the first page of /markets.
const firstPageCursor = "MA=="

// GammaClient is the REST client for the Polymarket market-discovery API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new client.
//
// baseURL is the API root, e.g. "https://clob.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetMarketsPage returns one cursor page of markets plus the cursor for the
// next page. An empty next cursor means the listing is exhausted.
func (g *GammaClient) GetMarketsPage(ctx context.Context, cursor string) ([]domain.Market, string, error) {
	if cursor == "" {
		cursor = firstPageCursor
	}
	params := url.Values{}
	params.Set("next_cursor", cursor)

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, "", fmt.Errorf("polymarket/gamma: get markets page: %w", err)
	}

	var page APIMarketsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("polymarket/gamma: decode markets page: %w", err)
	}

	now := time.Now().UTC()
	markets := make([]domain.Market, 0, len(page.Data))
	for i := range page.Data {
		markets = append(markets, page.Data[i].ToDomainMarket(now))
	}

	next := page.NextCursor
	if next == "LTE=" { // terminal cursor
		next = ""
	}
	return markets, next, nil
}

// GetAllMarkets walks the cursor pagination until the listing is exhausted or
// maxMarkets is reached (0 means no cap). pageDelay throttles between pages.
func (g *GammaClient) GetAllMarkets(ctx context.Context, maxMarkets int, pageDelay time.Duration) ([]domain.Market, error) {
	var all []domain.Market
	cursor := firstPageCursor

	for {
		markets, next, err := g.GetMarketsPage(ctx, cursor)
		if err != nil {
			return all, err
		}
		all = append(all, markets...)

		if maxMarkets > 0 && len(all) >= maxMarkets {
			return all[:maxMarkets], nil
		}
		if next == "" || len(markets) == 0 {
			return all, nil
		}
		cursor = next

		if pageDelay > 0 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(pageDelay):
			}
		}
	}
}

// GetMarket returns a single market by its condition ID.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}

	return apiMarket.ToDomainMarket(time.Now().UTC()), nil
}

// GetMarketBySlug returns a single market looked up by its URL slug.
func (g *GammaClient) GetMarketBySlug(ctx context.Context, slug string) (domain.Market, error) {
	params := url.Values{}
	params.Set("slug", slug)

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market by slug %s: %w", slug, err)
	}

	var page APIMarketsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	if len(page.Data) == 0 {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: %w: slug=%s", domain.ErrNotFound, slug)
	}

	return page.Data[0].ToDomainMarket(time.Now().UTC()), nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx responses to errors, keeping a bounded slice
// of the body for context.
func checkHTTPStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	const maxBody = 256
	snippet := body
	if len(snippet) > maxBody {
		snippet = snippet[:maxBody]
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("http %s: %w", strconv.Itoa(status), domain.ErrNotFound)
	}
	return fmt.Errorf("http %d: %s", status, snippet)
}
