// Package middleware provides HTTP middleware for the Kitchen API.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// HeaderAdminToken carries the admin token. A bearer Authorization header is
// accepted as well.
const HeaderAdminToken = "X-Kitchen-Admin-Token"

// =============================================================================
// Admin Token Middleware
// =============================================================================

// AdminToken rejects requests that do not present the token. An empty token
// disables the check.
func AdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(HeaderAdminToken)
			if presented == "" {
				presented = bearerToken(r.Header.Get("Authorization"))
			}

			if presented == "" {
				writeJSONError(w, http.StatusUnauthorized, "admin token required", "unauthorized")
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.Warn("invalid admin token",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusForbidden, "invalid admin token", "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// =============================================================================
// JSON Error Response
// =============================================================================

// errorBody matches the API's error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message, Code: code})
}
