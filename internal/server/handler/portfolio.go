package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pairscout/engine/internal/domain"
)

// PortfolioService defines what the portfolio handler needs from the service
// layer.
type PortfolioService interface {
	View(ctx context.Context) domain.PortfolioView
	ExecuteTrade(ctx context.Context, pairID string, amount float64) (domain.TradeRecord, domain.Portfolio, error)
	Reset(ctx context.Context) (domain.Portfolio, error)
	Trades(ctx context.Context, opts domain.ListOpts) ([]domain.TradeRecord, error)
}

// PortfolioHandler serves the paper-trading endpoints.
type PortfolioHandler struct {
	portfolio PortfolioService
	logger    *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler with the given service and
// logger.
func NewPortfolioHandler(portfolio PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolio: portfolio,
		logger:    logger,
	}
}

// GetPortfolio returns the mark-to-market portfolio valuation.
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	view := h.portfolio.View(r.Context())
	if view.Positions == nil {
		view.Positions = []domain.PositionView{}
	}
	writeJSON(w, http.StatusOK, view)
}

// tradeRequest is the JSON body for the trade endpoint.
type tradeRequest struct {
	PairID string  `json:"pair_id"`
	Amount float64 `json:"amount"`
}

// tradeResponse returns the trade receipt along with the portfolio state
// after execution.
type tradeResponse struct {
	Trade     domain.TradeRecord `json:"trade"`
	Portfolio domain.Portfolio   `json:"portfolio"`
}

// ExecuteTrade executes a paper trade on both legs of a pair.
// POST /api/portfolio/trades
func (h *PortfolioHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PairID == "" {
		writeError(w, http.StatusBadRequest, "missing pair_id")
		return
	}

	rec, after, err := h.portfolio.ExecuteTrade(r.Context(), req.PairID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "pair not found")
		case errors.Is(err, domain.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, "trade amount must be positive")
		case errors.Is(err, domain.ErrInsufficientFunds):
			writeError(w, http.StatusUnprocessableEntity, "insufficient funds")
		case errors.Is(err, domain.ErrNoArbitrage):
			writeError(w, http.StatusUnprocessableEntity, "no arbitrage at current prices")
		case errors.Is(err, domain.ErrMissingPrice):
			writeError(w, http.StatusUnprocessableEntity, "missing price data for pair")
		case errors.Is(err, domain.ErrInvalidPair):
			writeError(w, http.StatusUnprocessableEntity, "pair is not tradeable")
		default:
			h.logger.ErrorContext(r.Context(), "handler: execute trade failed",
				slog.String("pair_id", req.PairID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to execute trade")
		}
		return
	}

	writeJSON(w, http.StatusCreated, tradeResponse{Trade: rec, Portfolio: after})
}

// ResetPortfolio wipes positions and restores the starting cash.
// POST /api/portfolio/reset
func (h *PortfolioHandler) ResetPortfolio(w http.ResponseWriter, r *http.Request) {
	fresh, err := h.portfolio.Reset(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: portfolio reset failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to reset portfolio")
		return
	}

	writeJSON(w, http.StatusOK, fresh)
}

// ListTrades returns the trade log, newest first.
// GET /api/portfolio/trades?limit=50&offset=0
func (h *PortfolioHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	trades, err := h.portfolio.Trades(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list trades failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}
	if trades == nil {
		trades = []domain.TradeRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}
