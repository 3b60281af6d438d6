package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sakay/genchat/internal/auth"
	"github.com/sakay/genchat/internal/gemini"
	"github.com/sakay/genchat/internal/history"
	"github.com/sakay/genchat/internal/log"
)

// MaxMessageLength bounds the accepted chat message size.
const MaxMessageLength = 8192

// ChatService generates a reply to a user message. *gemini.Service
// satisfies it; tests substitute a stub.
type ChatService interface {
	Chat(ctx context.Context, message string) gemini.Reply
}

// ChatRequest is the request body for the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the success body for the chat endpoint.
type ChatResponse struct {
	Response string `json:"response"`
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	chat    ChatService
	history *history.Store
	logger  log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat ChatService, store *history.Store, logger log.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, history: store, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux behind the auth gate.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, gate func(http.Handler) http.Handler) {
	mux.Handle("POST /api/chat", gate(http.HandlerFunc(h.handle)))
}

// handle serves one chat round trip: append the user message to history,
// call the generation service, append and return its reply. A reply
// without user-presentable text becomes a generic error body; internal
// detail stays in the server logs.
func (h *ChatHandler) handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		// Only reachable when the route is wired without the auth gate.
		h.logger.Error("chat request without verified identity")
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required", "")
		return
	}
	if len(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "message too long", "")
		return
	}

	h.history.Append(userID, history.RoleUser, req.Message)

	reply := h.chat.Chat(r.Context(), req.Message)
	if !reply.OK() {
		writeError(w, http.StatusBadGateway, "generation failed",
			"no response is available right now")
		return
	}

	h.history.Append(userID, history.RoleAssistant, reply.Text)
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply.Text})
}
