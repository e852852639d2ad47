package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// KeywordRebuilder rebuilds the candidate pairs for a single keyword from
// the markets already in the store.
type KeywordRebuilder interface {
	RebuildKeyword(ctx context.Context, keyword string) error
}

// PipelineHandler serves the pipeline trigger endpoint.
type PipelineHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{}  // when non-nil, sending enqueues one full run
	rebuilder KeywordRebuilder // when non-nil, per-keyword rebuilds run inline
}

// NewPipelineHandler creates a PipelineHandler with the given logger.
func NewPipelineHandler(logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{logger: logger}
}

// WithTriggerChannel sets the channel to send on when a full run is
// requested. The pipeline loop must receive from this channel.
func (h *PipelineHandler) WithTriggerChannel(ch chan<- struct{}) *PipelineHandler {
	h.triggerCh = ch
	return h
}

// WithRebuilder sets the keyword rebuilder used for targeted rebuilds.
func (h *PipelineHandler) WithRebuilder(r KeywordRebuilder) *PipelineHandler {
	h.rebuilder = r
	return h
}

// TriggerPipeline enqueues one scrape-and-pair run. With ?keyword=, only
// that keyword's pairs are rebuilt from the stored markets, synchronously.
// POST /api/pipeline/trigger
func (h *PipelineHandler) TriggerPipeline(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")

	if keyword != "" {
		if h.rebuilder == nil {
			writeError(w, http.StatusServiceUnavailable, "keyword rebuild not available")
			return
		}
		if err := h.rebuilder.RebuildKeyword(r.Context(), keyword); err != nil {
			h.logger.ErrorContext(r.Context(), "handler: keyword rebuild failed",
				slog.String("keyword", keyword),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "keyword rebuild failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"keyword": keyword,
		})
		return
	}

	h.logger.InfoContext(r.Context(), "handler: pipeline trigger requested")
	if h.triggerCh != nil {
		select {
		case h.triggerCh <- struct{}{}:
		default:
			// already triggered and not yet consumed
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "pipeline run enqueued",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
