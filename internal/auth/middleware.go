package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sakay/genchat/internal/log"
)

// Middleware returns the auth gate: it extracts the Authorization header,
// requires exactly "Bearer <token>" (case-insensitive scheme, two parts),
// and verifies the token before invoking the wrapped handler with the
// subject id attached to the request context.
//
// Every extraction or verification failure yields the same 401 body;
// reasons are only visible in server logs.
func Middleware(verifier Verifier, logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				logger.Warn("missing authorization header", "path", r.URL.Path)
				writeUnauthorized(w)
				return
			}

			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				logger.Warn("malformed authorization header", "path", r.URL.Path)
				writeUnauthorized(w)
				return
			}

			userID, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				logger.Error("failed to verify id token", "error", err, "path", r.URL.Path)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// writeUnauthorized writes the uniform 401 response.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
