package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pairscout/engine/internal/domain"
	"github.com/pairscout/engine/internal/service"
)

// PairService defines what the pair handler needs from the service layer.
type PairService interface {
	GetPair(ctx context.Context, id string) (service.PairView, error)
	ListPairs(ctx context.Context, keyword string, opts domain.ListOpts) ([]service.PairView, int64, error)
	Keywords(ctx context.Context) ([]domain.KeywordCount, error)
}

// PairHandler serves the candidate-pair review endpoints.
type PairHandler struct {
	pairs  PairService
	logger *slog.Logger
}

// NewPairHandler creates a PairHandler with the given service and logger.
func NewPairHandler(pairs PairService, logger *slog.Logger) *PairHandler {
	return &PairHandler{
		pairs:  pairs,
		logger: logger,
	}
}

// listPairsResponse wraps the list endpoint output with metadata.
type listPairsResponse struct {
	Pairs   []service.PairView `json:"pairs"`
	Keyword string             `json:"keyword,omitempty"`
	Total   int64              `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
}

// ListPairs returns candidate pairs with fresh arbitrage verdicts, filtered
// to one keyword when the query parameter is present.
// GET /api/pairs?keyword=iran&limit=50&offset=0
func (h *PairHandler) ListPairs(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	opts := parseListOpts(r)

	pairs, total, err := h.pairs.ListPairs(r.Context(), keyword, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list pairs failed",
			slog.String("keyword", keyword),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list pairs")
		return
	}

	writeJSON(w, http.StatusOK, listPairsResponse{
		Pairs:   pairs,
		Keyword: keyword,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetPair returns a single pair by its ID, refreshed and evaluated.
// GET /api/pairs/{id}
func (h *PairHandler) GetPair(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing pair id")
		return
	}

	pair, err := h.pairs.GetPair(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pair not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get pair failed",
			slog.String("pair_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get pair")
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// ListKeywords returns every scouted keyword with its pair count.
// GET /api/keywords
func (h *PairHandler) ListKeywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.pairs.Keywords(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list keywords failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list keywords")
		return
	}
	if keywords == nil {
		keywords = []domain.KeywordCount{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"keywords": keywords})
}
