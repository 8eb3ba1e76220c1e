// Package api provides HTTP handlers and the main API server logic for
// Hireloop.
//
// It exposes the auth, interview, dashboard, turn, QnA, practice and resume
// endpoints. Every collaborator is injected; the server owns only routing,
// identity extraction and the response envelope.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireloop-ai/hireloop/internal/auth"
	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/dashboard"
	"github.com/hireloop-ai/hireloop/internal/interview"
	"github.com/hireloop-ai/hireloop/internal/models"
	"github.com/hireloop-ai/hireloop/internal/store"
)

const (
	defaultAddr       = ":8080"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Opts holds configuration for the API server.
type Opts struct {
	// Addr is the listen address (host:port).
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server wires the HTTP surface to the injected services.
type Server struct {
	store      store.Store
	cache      *cache.Client
	controller *interview.Controller
	dashboard  *dashboard.Service
	auth       *auth.Service

	addr string
	mux  *http.ServeMux
}

// NewServer creates an API server over the given collaborators.
func NewServer(st store.Store, kv *cache.Client, ctrl *interview.Controller, dash *dashboard.Service, authSvc *auth.Service, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	s := &Server{
		store:      st,
		cache:      kv,
		controller: ctrl,
		dashboard:  dash,
		auth:       authSvc,
		addr:       cfg.Addr,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/auth/login", s.loginHandler)
	s.mux.HandleFunc("/api/auth/signup", s.signupHandler)
	s.mux.HandleFunc("/api/auth/refresh", s.refreshHandler)

	s.mux.HandleFunc("/interviewagent/create-session", s.requireAuth(auth.PermTakeInterview, s.createSessionHandler))
	s.mux.HandleFunc("/interviewagent/send-message-streaming", s.requireAuth(auth.PermTakeInterview, s.sendMessageHandler))

	s.mux.HandleFunc("/api/dashboard/get-dashboard-data", s.requireAuth(auth.PermViewResults, s.dashboardHandler))
	s.mux.HandleFunc("/api/interview-runs/get-all-interview-sessions", s.requireAuth(auth.PermViewResults, s.interviewRunsHandler))
	s.mux.HandleFunc("/api/turn/get-turn-by-iid", s.requireAuth(auth.PermViewResults, s.turnsBySessionHandler))
	s.mux.HandleFunc("/api/turn/get-all-turns", s.requireAuth(auth.PermViewResults, s.allTurnsHandler))
	s.mux.HandleFunc("/api/qna/get-qna-by-iid", s.requireAuth(auth.PermViewResults, s.qnaHandler))
	s.mux.HandleFunc("/api/practice/get-practice-details", s.requireAuth(auth.PermViewResults, s.practiceHandler))
	s.mux.HandleFunc("/api/storage/send-data", s.requireAuth(auth.PermUploadResume, s.uploadDataHandler))
}

// Handler returns the full middleware-wrapped handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return requestIDMiddleware(corsMiddleware(s.mux))
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server.Run: stopped")
	return nil
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	var uerr *models.UpstreamError
	switch {
	case errors.As(err, &verr):
		writeErrorEnvelope(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, models.ErrNotFound):
		writeErrorEnvelope(w, http.StatusNotFound, "Record not found")
	case errors.Is(err, models.ErrNoActiveSession):
		writeErrorEnvelope(w, http.StatusNotFound, "No active interview session")
	case errors.As(err, &uerr):
		writeErrorEnvelope(w, http.StatusBadGateway, "Upstream service unavailable")
	default:
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error")
	}
}
