package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/heartline-ai/heartline/internal/domain"
	"github.com/heartline-ai/heartline/internal/observability"
	"github.com/heartline-ai/heartline/internal/storage"
)

const defaultTranscriptLimit = 50

// TranscriptService lists recorded turns.
type TranscriptService interface {
	ListTranscripts(ctx context.Context, sessionID string, limit int) ([]storage.Transcript, error)
}

// TranscriptHandler serves recorded conversation turns.
type TranscriptHandler struct {
	logger  *observability.Logger
	service TranscriptService
}

// NewTranscriptHandler creates a new transcript handler.
func NewTranscriptHandler(logger *observability.Logger, service TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{logger: logger, service: service}
}

// TranscriptsResponseDTO lists a session's recorded turns.
type TranscriptsResponseDTO struct {
	SessionID   string               `json:"session_id"`
	Transcripts []storage.Transcript `json:"transcripts"`
}

// List handles GET /transcripts/{session}?limit=n.
func (h *TranscriptHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")

	limit := defaultTranscriptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	out, err := h.service.ListTranscripts(r.Context(), sessionID, limit)
	if err != nil {
		if domain.IsKind(err, domain.KindInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("List transcripts failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if out == nil {
		out = []storage.Transcript{}
	}

	writeJSON(w, http.StatusOK, TranscriptsResponseDTO{SessionID: sessionID, Transcripts: out})
}
