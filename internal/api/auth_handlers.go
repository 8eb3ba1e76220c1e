package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireloop-ai/hireloop/internal/auth"
	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/models"
	"github.com/hireloop-ai/hireloop/internal/store"
)

const refreshCookieName = "hireloop_refresh"

// loginResponse is the data payload returned by login, signup and refresh.
type loginResponse struct {
	AccessToken string      `json:"access_token"`
	UID         int64       `json:"uid"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.loginHandler: processing login request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.loginHandler: failed to decode JSON", "error", err)
		writeErrorEnvelope(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		writeErrorEnvelope(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		slog.Error("Server.loginHandler: user lookup failed", "error", err)
		writeDomainError(w, err)
		return
	}
	if user == nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		slog.Warn("Server.loginHandler: credentials rejected", "email", req.Email)
		writeErrorEnvelope(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := s.issueTokens(w, r, user); err != nil {
		slog.Error("Server.loginHandler: token issuance failed", "error", err, "uid", user.UID)
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	slog.Info("Server.loginHandler: login succeeded", "uid", user.UID)
}

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.signupHandler: processing signup request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.signupHandler: failed to decode JSON", "error", err)
		writeErrorEnvelope(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		writeErrorEnvelope(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		slog.Error("Server.signupHandler: user lookup failed", "error", err)
		writeDomainError(w, err)
		return
	}
	if existing != nil {
		writeErrorEnvelope(w, http.StatusConflict, "Email is already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Server.signupHandler: password hash failed", "error", err)
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	uid, err := s.store.NextID(store.SeqUser)
	if err != nil {
		slog.Error("Server.signupHandler: id allocation failed", "error", err)
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	now := time.Now()
	user := models.User{
		UID: uid, Name: req.Name, Email: req.Email,
		PasswordHash: hash, Role: req.Role,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.store.CreateUser(user); err != nil {
		slog.Error("Server.signupHandler: create user failed", "error", err, "uid", uid)
		writeDomainError(w, err)
		return
	}

	if err := s.issueTokens(w, r, &user); err != nil {
		slog.Error("Server.signupHandler: token issuance failed", "error", err, "uid", uid)
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	slog.Info("Server.signupHandler: account created", "uid", uid, "role", user.Role)
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.refreshHandler: processing refresh request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing refresh token")
		return
	}
	id, err := s.auth.VerifyRefreshToken(cookie.Value)
	if err != nil {
		slog.Warn("Server.refreshHandler: refresh token rejected", "error", err)
		writeErrorEnvelope(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	user, err := s.store.GetUser(id.UID)
	if err != nil {
		slog.Error("Server.refreshHandler: user lookup failed", "error", err, "uid", id.UID)
		writeDomainError(w, err)
		return
	}
	// A rotated or revoked token no longer matches the stored one.
	if user == nil || user.RefreshToken != cookie.Value {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Refresh token revoked")
		return
	}

	if err := s.issueTokens(w, r, user); err != nil {
		slog.Error("Server.refreshHandler: token issuance failed", "error", err, "uid", user.UID)
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	slog.Info("Server.refreshHandler: tokens rotated", "uid", user.UID)
}

// issueTokens mints an access and refresh token pair, rotates the stored
// refresh token, pipelines the login-time user cache write, sets the refresh
// cookie and writes the login response.
func (s *Server) issueTokens(w http.ResponseWriter, r *http.Request, user *models.User) error {
	access, err := s.auth.IssueAccessToken(user.UID, user.Role)
	if err != nil {
		return err
	}
	refresh, err := s.auth.IssueRefreshToken(user.UID, user.Role)
	if err != nil {
		return err
	}

	user.RefreshToken = refresh
	user.UpdatedAt = time.Now()
	if err := s.store.UpdateUser(*user); err != nil {
		return err
	}

	err = s.cache.RunBatch(r.Context(), func(b cache.Batch) {
		b.HSet(cache.UserKey(user.UID), map[string]interface{}{
			"uid":   user.UID,
			"name":  user.Name,
			"email": user.Email,
			"role":  string(user.Role),
		})
		b.Expire(cache.UserKey(user.UID), cache.UserTTL)
	})
	if err != nil {
		// The cache is an accelerator here; login still works without it.
		slog.Warn("Server.issueTokens: user cache write failed", "error", err, "uid", user.UID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh,
		Path:     "/api/auth",
		Expires:  time.Now().Add(auth.DefaultRefreshTTL),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeEnvelope(w, http.StatusOK, "Authenticated", loginResponse{
		AccessToken: access,
		UID:         user.UID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
	})
	return nil
}
