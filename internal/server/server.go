// Package server exposes the hook-assembled pages over HTTP.
//
// DESIGN: The server owns no page logic. Every response body comes from the
// hook dispatcher:
//   - GET /, GET /p/{page}: App.renderRoute through pages.App
//   - POST /events:         events.Create, which dispatches events.saved
//   - GET /live:            websocket stream fed by an events.saved action
//   - GET /debug/hooks:     registered hooks and counters as JSON
//   - GET /healthz:         liveness
//
// FLOW:
//  1. cmd wires features into the dispatcher and dispatches init
//  2. New builds the mux and registers the events.saved counter
//  3. Start serves until Shutdown closes live streams and drains requests
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/features/events"
	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/monitoring"
	"github.com/antiarchy/antiarchy/internal/pages"
	"github.com/antiarchy/antiarchy/internal/store"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

// Server is the HTTP host.
type Server struct {
	config        *config.Config
	hooks         *hooks.Dispatcher
	store         store.Store
	app           *pages.App
	live          *LiveHub
	requestLogger *monitoring.RequestLogger
	alerts        *monitoring.AlertManager
	metrics       *monitoring.MetricsCollector
	countSaved    *hooks.Action
	httpServer    *http.Server
}

// New creates a server. live may be nil, in which case /live answers 404.
func New(cfg *config.Config, d *hooks.Dispatcher, st store.Store, live *LiveHub, logger *monitoring.Logger, metrics *monitoring.MetricsCollector) *Server {
	if logger == nil {
		logger = monitoring.New(monitoring.LoggerConfig{Level: cfg.Monitoring.LogLevel, Format: cfg.Monitoring.LogFormat, Output: cfg.Monitoring.LogOutput})
	}
	if metrics == nil {
		metrics = monitoring.NewMetricsCollector()
	}

	s := &Server{
		config:        cfg,
		hooks:         d,
		store:         st,
		app:           pages.NewApp(d),
		live:          live,
		requestLogger: monitoring.NewRequestLogger(logger.With("http")),
		alerts:        monitoring.NewAlertManager(logger, monitoring.AlertConfig{HighLatencyThreshold: cfg.Monitoring.HighLatencyThreshold}),
		metrics:       metrics,
		countSaved:    hooks.NewAction(countSaved),
	}

	// priority 0 so the counter runs before feature listeners that may fail
	d.AddAction(events.ActionSaved, s.countSaved, hooks.WithPriority(0), hooks.WithReceiver(metrics))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /p/{page}", s.handlePage)
	mux.HandleFunc("POST /events", s.handleCreateEvent)
	mux.HandleFunc("GET /live", s.handleLive)
	mux.HandleFunc("GET /debug/hooks", s.handleHooks)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	h = s.security(h)
	h = s.loggingMiddleware(h)
	h = s.panicRecovery(h)
	return h
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown closes live streams, drains in-flight requests and removes the
// server's own hook registration.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.live != nil {
		s.live.Close()
	}
	s.hooks.RemoveAction(events.ActionSaved, s.countSaved, s.metrics)
	return s.httpServer.Shutdown(ctx)
}

func countSaved(receiver any, _ hooks.Args) error {
	if mc, ok := receiver.(*monitoring.MetricsCollector); ok {
		mc.RecordEventSaved()
	}
	return nil
}
