package api

import (
	"net/http"

	"github.com/sakay/genchat/internal/log"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	chat   ChatService
	logger log.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(chat ChatService, logger log.Logger) *HealthHandler {
	return &HealthHandler{chat: chat, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness returns 200 OK while the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness returns 200 OK once the chat service is wired. The service is
// constructed before the server starts, so an unset service means the
// process came up in a broken state.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.chat == nil {
		h.logger.Error("readiness check failed: chat service not configured")
		http.Error(w, "chat service not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
