package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairscout/engine/internal/domain"
	"github.com/pairscout/engine/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fptr(v float64) *float64 { return &v }

type fakeMarketService struct {
	markets []domain.Market
	err     error
}

func (f *fakeMarketService) GetMarket(_ context.Context, id string) (domain.Market, error) {
	if f.err != nil {
		return domain.Market{}, f.err
	}
	for _, m := range f.markets {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Market{}, domain.ErrNotFound
}
func (f *fakeMarketService) ListOpen(context.Context, domain.ListOpts) ([]domain.Market, error) {
	return f.markets, f.err
}
func (f *fakeMarketService) Count(context.Context) (int64, error) {
	return int64(len(f.markets)), f.err
}

type fakePairService struct {
	views    map[string]service.PairView
	keywords []domain.KeywordCount
	err      error
}

func (f *fakePairService) GetPair(_ context.Context, id string) (service.PairView, error) {
	if f.err != nil {
		return service.PairView{}, f.err
	}
	v, ok := f.views[id]
	if !ok {
		return service.PairView{}, domain.ErrNotFound
	}
	return v, nil
}
func (f *fakePairService) ListPairs(_ context.Context, keyword string, _ domain.ListOpts) ([]service.PairView, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []service.PairView
	for _, v := range f.views {
		if keyword == "" || v.Keyword == keyword {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}
func (f *fakePairService) Keywords(context.Context) ([]domain.KeywordCount, error) {
	return f.keywords, f.err
}

type fakePortfolioService struct {
	view     domain.PortfolioView
	rec      domain.TradeRecord
	after    domain.Portfolio
	tradeErr error
	trades   []domain.TradeRecord

	gotPairID string
	gotAmount float64
	resets    int
}

func (f *fakePortfolioService) View(context.Context) domain.PortfolioView { return f.view }
func (f *fakePortfolioService) ExecuteTrade(_ context.Context, pairID string, amount float64) (domain.TradeRecord, domain.Portfolio, error) {
	f.gotPairID = pairID
	f.gotAmount = amount
	if f.tradeErr != nil {
		return domain.TradeRecord{}, domain.Portfolio{}, f.tradeErr
	}
	return f.rec, f.after, nil
}
func (f *fakePortfolioService) Reset(context.Context) (domain.Portfolio, error) {
	f.resets++
	return domain.Portfolio{Cash: 10000, StartingCash: 10000}, nil
}
func (f *fakePortfolioService) Trades(context.Context, domain.ListOpts) ([]domain.TradeRecord, error) {
	return f.trades, nil
}

// newMux registers the handlers the way the server does, so path parameters
// resolve in tests.
func newMux(markets *MarketHandler, pairs *PairHandler, portfolio *PortfolioHandler) *http.ServeMux {
	mux := http.NewServeMux()
	if markets != nil {
		mux.HandleFunc("GET /api/markets", markets.ListMarkets)
		mux.HandleFunc("GET /api/markets/{id}", markets.GetMarket)
	}
	if pairs != nil {
		mux.HandleFunc("GET /api/keywords", pairs.ListKeywords)
		mux.HandleFunc("GET /api/pairs", pairs.ListPairs)
		mux.HandleFunc("GET /api/pairs/{id}", pairs.GetPair)
	}
	if portfolio != nil {
		mux.HandleFunc("GET /api/portfolio", portfolio.GetPortfolio)
		mux.HandleFunc("GET /api/portfolio/trades", portfolio.ListTrades)
		mux.HandleFunc("POST /api/portfolio/trades", portfolio.ExecuteTrade)
		mux.HandleFunc("POST /api/portfolio/reset", portfolio.ResetPortfolio)
	}
	return mux
}

func TestListMarkets(t *testing.T) {
	svc := &fakeMarketService{markets: []domain.Market{
		{ID: "m1", Title: "Will it rain?", Active: true, YesPrice: fptr(0.4)},
	}}
	mux := newMux(NewMarketHandler(svc, testLogger()), nil, nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/markets?limit=10", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp listMarketsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Markets, 1)
	assert.Equal(t, "m1", resp.Markets[0].ID)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 10, resp.Limit)
}

func TestGetMarketNotFound(t *testing.T) {
	mux := newMux(NewMarketHandler(&fakeMarketService{}, testLogger()), nil, nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/markets/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListPairsByKeyword(t *testing.T) {
	svc := &fakePairService{views: map[string]service.PairView{
		"iran_0001": {Pair: domain.Pair{ID: "iran_0001", Keyword: "iran"}},
		"fed_0001":  {Pair: domain.Pair{ID: "fed_0001", Keyword: "fed"}},
	}}
	mux := newMux(nil, NewPairHandler(svc, testLogger()), nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/pairs?keyword=iran", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp listPairsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Pairs, 1)
	assert.Equal(t, "iran_0001", resp.Pairs[0].ID)
	assert.Equal(t, "iran", resp.Keyword)
}

func TestGetPair(t *testing.T) {
	cost := 0.85
	svc := &fakePairService{views: map[string]service.PairView{
		"iran_0001": {
			Pair:      domain.Pair{ID: "iran_0001", Keyword: "iran"},
			Arbitrage: domain.Verdict{HasArbitrage: true, TotalCost: &cost},
		},
	}}
	mux := newMux(nil, NewPairHandler(svc, testLogger()), nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/pairs/iran_0001", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp service.PairView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Arbitrage.HasArbitrage)
}

func TestListKeywords(t *testing.T) {
	svc := &fakePairService{keywords: []domain.KeywordCount{{Keyword: "iran", PairCount: 3}}}
	mux := newMux(nil, NewPairHandler(svc, testLogger()), nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/keywords", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Keywords []domain.KeywordCount `json:"keywords"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Keywords, 1)
	assert.Equal(t, 3, resp.Keywords[0].PairCount)
}

func TestExecuteTrade(t *testing.T) {
	svc := &fakePortfolioService{
		rec:   domain.TradeRecord{ID: "t1", PairID: "iran_0001", Amount: 500},
		after: domain.Portfolio{Cash: 9500, StartingCash: 10000, TradeCount: 1},
	}
	mux := newMux(nil, nil, NewPortfolioHandler(svc, testLogger()))

	body := bytes.NewBufferString(`{"pair_id":"iran_0001","amount":500}`)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/portfolio/trades", body))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "iran_0001", svc.gotPairID)
	assert.InDelta(t, 500.0, svc.gotAmount, 1e-9)

	var resp tradeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "t1", resp.Trade.ID)
	assert.InDelta(t, 9500.0, resp.Portfolio.Cash, 1e-9)
}

func TestExecuteTradeErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"no arbitrage", domain.ErrNoArbitrage, http.StatusUnprocessableEntity},
		{"missing price", domain.ErrMissingPrice, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakePortfolioService{tradeErr: tc.err}
			mux := newMux(nil, nil, NewPortfolioHandler(svc, testLogger()))

			body := bytes.NewBufferString(`{"pair_id":"iran_0001","amount":500}`)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/portfolio/trades", body))

			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestExecuteTradeBadBody(t *testing.T) {
	mux := newMux(nil, nil, NewPortfolioHandler(&fakePortfolioService{}, testLogger()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/portfolio/trades", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/portfolio/trades", bytes.NewBufferString(`{"amount":500}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetPortfolio(t *testing.T) {
	svc := &fakePortfolioService{view: domain.PortfolioView{
		Cash: 9500, StartingCash: 10000, TotalValue: 10100, TotalPnL: 100,
	}}
	mux := newMux(nil, nil, NewPortfolioHandler(svc, testLogger()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp domain.PortfolioView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.InDelta(t, 100.0, resp.TotalPnL, 1e-9)
	assert.NotNil(t, resp.Positions)
}

func TestResetPortfolio(t *testing.T) {
	svc := &fakePortfolioService{}
	mux := newMux(nil, nil, NewPortfolioHandler(svc, testLogger()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/portfolio/reset", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, svc.resets)
}

func TestTriggerPipeline(t *testing.T) {
	ch := make(chan struct{}, 1)
	h := NewPipelineHandler(testLogger()).WithTriggerChannel(ch)

	rr := httptest.NewRecorder()
	h.TriggerPipeline(rr, httptest.NewRequest(http.MethodPost, "/api/pipeline/trigger", nil))

	require.Equal(t, http.StatusAccepted, rr.Code)
	select {
	case <-ch:
	default:
		t.Fatal("expected a trigger on the channel")
	}
}

type fakeRebuilder struct {
	keywords []string
	err      error
}

func (f *fakeRebuilder) RebuildKeyword(_ context.Context, keyword string) error {
	f.keywords = append(f.keywords, keyword)
	return f.err
}

func TestTriggerPipelineKeyword(t *testing.T) {
	rb := &fakeRebuilder{}
	h := NewPipelineHandler(testLogger()).WithRebuilder(rb)

	rr := httptest.NewRecorder()
	h.TriggerPipeline(rr, httptest.NewRequest(http.MethodPost, "/api/pipeline/trigger?keyword=iran", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"iran"}, rb.keywords)
}
