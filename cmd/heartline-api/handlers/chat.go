// Package handlers provides HTTP handlers for the Heartline API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/heartline-ai/heartline/cmd/heartline-api/middleware"
	"github.com/heartline-ai/heartline/internal/chat"
	"github.com/heartline-ai/heartline/internal/domain"
	"github.com/heartline-ai/heartline/internal/observability"
)

// ChatService answers turns and manages session history.
type ChatService interface {
	Chat(ctx context.Context, sessionID, input string) (chat.Reply, error)
	History(ctx context.Context, sessionID string) (chat.History, error)
	ClearHistory(ctx context.Context, sessionID string) error
}

// ChatHandler handles the conversation endpoints.
type ChatHandler struct {
	logger  *observability.Logger
	service ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, service ChatService) *ChatHandler {
	return &ChatHandler{
		logger:  logger,
		service: service,
	}
}

// ChatRequestDTO is the body of POST /chatbot.
type ChatRequestDTO struct {
	UserInput string `json:"user_input"`
}

// ChatResponseDTO is the reply to POST /chatbot.
type ChatResponseDTO struct {
	Response string `json:"response"`
}

// HistoryResponseDTO lists a session's turns.
type HistoryResponseDTO struct {
	ContextHistory chat.History `json:"context_history"`
}

// SessionResponseDTO is the session view served at GET /session.
type SessionResponseDTO struct {
	History chat.History `json:"history"`
}

// Chat handles POST /chatbot.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := middleware.SessionIDFromContext(ctx)
	reply, err := h.service.Chat(ctx, sessionID, req.UserInput)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponseDTO{Response: reply.Response})
}

// History handles GET /context_history.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponseDTO{ContextHistory: history})
}

// Session handles GET /session.
func (h *ChatHandler) Session(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponseDTO{History: history})
}

// ClearHistory handles POST /clear_context_history.
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearHistory(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Context history cleared."})
}

// fail maps a classified error to a status code. Input errors are the
// caller's problem and only logged at debug level.
func (h *ChatHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.logger.WithContext(r.Context())

	if domain.IsKind(err, domain.KindInput) {
		logger.Debug().Err(err).Msg("Rejected request")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
