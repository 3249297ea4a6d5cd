package main

import (
	"context"
	"fmt"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/features"
	"github.com/antiarchy/antiarchy/internal/features/events"
	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/monitoring"
	"github.com/antiarchy/antiarchy/internal/pages"
	"github.com/antiarchy/antiarchy/internal/server"
	"github.com/antiarchy/antiarchy/internal/store"
)

// host holds everything the subcommands share.
type host struct {
	cfg      *config.Config
	logger   *monitoring.Logger
	metrics  *monitoring.MetricsCollector
	hooks    *hooks.Dispatcher
	store    store.Store
	live     *server.LiveHub
	features *features.Set
	enabled  []string
}

// wire opens the store, registers every enabled feature and dispatches
// init. Registration order is the tie-break for equal priorities.
func wire(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*host, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	metrics := monitoring.NewMetricsCollector()
	d := hooks.New(
		hooks.WithLogger(logger.With("hooks").Zerolog()),
		hooks.WithRecorder(metrics),
	)

	live := server.NewLiveHub()
	set := features.NewSet(cfg.Features,
		pages.NewHome(),
		events.NewAddForm(),
		events.NewList(),
		events.NewCounter(st),
		live,
	)

	h := &host{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		hooks:    d,
		store:    st,
		live:     live,
		features: set,
		enabled:  set.Register(d),
	}

	if _, err := d.DoAction(hooks.ActionInit, ctx); err != nil {
		h.close()
		return nil, fmt.Errorf("init: %w", err)
	}
	return h, nil
}

func (h *host) close() {
	h.features.Unregister(h.hooks)
	if err := h.store.Close(); err != nil {
		h.logger.Warn().Err(err).Msg("store close failed")
	}
}
