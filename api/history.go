package api

import (
	"net/http"

	"github.com/sakay/genchat/internal/auth"
	"github.com/sakay/genchat/internal/history"
	"github.com/sakay/genchat/internal/log"
)

// HistoryHandler serves the caller's chat history.
type HistoryHandler struct {
	store  *history.Store
	logger log.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(store *history.Store, logger log.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, logger: logger}
}

// RegisterRoutes registers history routes on the given mux behind the auth gate.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux, gate func(http.Handler) http.Handler) {
	mux.Handle("GET /api/history", gate(http.HandlerFunc(h.list)))
}

// list returns the verified caller's messages, oldest first.
func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		h.logger.Error("history request without verified identity")
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	msgs := h.store.Get(userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"history": msgs,
		"total":   len(msgs),
	})
}
