// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

// Package web is the portal's HTTP presentation layer: the login and
// registration forms and the session-gated landing page. All business
// decisions live in internal/auth; this package only translates form
// submissions in and typed errors out.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/fedeportal/fedeportal/internal/auth"
	"github.com/fedeportal/fedeportal/internal/observability"
)

// Options configures the web server.
type Options struct {
	Addr         string
	Auth         *auth.Service
	Registration *auth.RegistrationService
	CookieName   string
	CookieSecure bool
	Metrics      *observability.Metrics // optional
	Logger       *slog.Logger           // optional, defaults to slog.Default()
}

// Server serves the portal's HTML surface.
type Server struct {
	addr         string
	auth         *auth.Service
	registration *auth.RegistrationService
	cookieName   string
	cookieSecure bool
	metrics      *observability.Metrics
	logger       *slog.Logger
	router       *mux.Router
	httpServer   *http.Server
}

// NewServer creates a Server and wires its routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Auth == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if opts.Registration == nil {
		return nil, oops.Errorf("registration service is required")
	}
	if opts.CookieName == "" {
		return nil, oops.Errorf("cookie name is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:         opts.Addr,
		auth:         opts.Auth,
		registration: opts.Registration,
		cookieName:   opts.CookieName,
		cookieSecure: opts.CookieSecure,
		metrics:      opts.Metrics,
		logger:       logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/register", s.handleRegisterPage).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	protected := r.PathPrefix("/portal").Subrouter()
	protected.Use(s.RequireSession)
	protected.HandleFunc("", s.handlePortal).Methods(http.MethodGet)

	s.router = r
	return s, nil
}

// Handler returns the root HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP. It returns an error channel that receives any
// error from the listener after startup; the channel is closed when the
// server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	httpSrv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("web server error", "error", err)
			errCh <- err
		}
	}()

	s.logger.Info("web server started", "addr", s.addr)
	return errCh, nil
}

// Stop gracefully shuts down the web server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.With("operation", "shutdown_web_server").Wrap(err)
	}
	s.logger.Info("web server stopped")
	return nil
}
