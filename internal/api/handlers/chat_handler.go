package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/peakgeo/sentinel-agent/internal/application/services"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
)

const maxChatMessageLength = 4000

// ChatService defines the conversational operations used by the handler.
type ChatService interface {
	Chat(ctx context.Context, history []providers.ChatMessage, userMessage string) (*services.ChatResult, error)
}

// ChatHandler handles conversational agent HTTP requests
type ChatHandler struct {
	service ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{
		service: service,
	}
}

type chatRequest struct {
	Message string                  `json:"message"`
	History []providers.ChatMessage `json:"history,omitempty"`
}

// Chat handles POST /api/chat
//
// History round-trips through the client: callers send back the messages
// slice from the previous response to continue a conversation.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.Message = strings.TrimSpace(payload.Message)
	if payload.Message == "" {
		respondWithError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(payload.Message) > maxChatMessageLength {
		respondWithError(w, http.StatusBadRequest, "message is too long")
		return
	}

	result, err := h.service.Chat(r.Context(), payload.History, payload.Message)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
