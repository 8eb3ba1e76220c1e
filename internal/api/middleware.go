package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hireloop-ai/hireloop/internal/auth"
	"github.com/hireloop-ai/hireloop/internal/util"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFrom returns the authenticated identity stored by requireAuth.
func identityFrom(r *http.Request) (*auth.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(*auth.Identity)
	return id, ok
}

// requireAuth verifies the bearer token, checks the permission and stores the
// identity in the request context.
func (s *Server) requireAuth(perm auth.Permission, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			slog.Warn("Server.requireAuth: missing bearer token", "path", r.URL.Path)
			writeErrorEnvelope(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		id, err := s.auth.VerifyAccessToken(token)
		if err != nil {
			slog.Warn("Server.requireAuth: token rejected", "path", r.URL.Path, "error", err)
			writeErrorEnvelope(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if !auth.Allowed(id.Role, perm) {
			slog.Warn("Server.requireAuth: permission denied", "path", r.URL.Path, "uid", id.UID, "role", id.Role)
			writeErrorEnvelope(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	}
}

// requestIDMiddleware tags every response with a correlation id so log lines
// and client reports can be matched up. A client-supplied id is echoed back.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = util.GenerateRandomID("req_", 16)
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware answers preflight requests and attaches the CORS headers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
