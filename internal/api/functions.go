package api

import (
	"errors"
	"net/http"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/metrics"
	"github.com/starford/notely/internal/summarizer"
)

// FunctionHandler serves the remote functions.
type FunctionHandler struct {
	summarizer *summarizer.Service
	metrics    *metrics.Metrics
}

// NewFunctionHandler creates a new FunctionHandler. m may be nil.
func NewFunctionHandler(s *summarizer.Service, m *metrics.Metrics) *FunctionHandler {
	return &FunctionHandler{summarizer: s, metrics: m}
}

// SummarizeNote handles POST /api/functions/summarize-note.
//
//	@Summary		Summarize note content
//	@Tags			functions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SummarizeRequest	true	"Content to summarize"
//	@Success		200		{object}	SummarizeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/functions/summarize-note [post]
func (h *FunctionHandler) SummarizeNote(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	summary, err := h.summarizer.Summarize(r.Context(), currentUser(r).ID, req.Content)
	h.observe(err)
	if err != nil {
		writeError(w, "summarize note", err)
		return
	}
	writeJSON(w, http.StatusOK, SummarizeResponse{Summary: summary})
}

func (h *FunctionHandler) observe(err error) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrEmptyContent):
		outcome = "empty"
	case errors.Is(err, apperr.ErrRateLimited):
		outcome = "rate_limited"
	default:
		outcome = "error"
	}
	h.metrics.SummariesTotal.WithLabelValues(outcome).Inc()
}
