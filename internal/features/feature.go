// Package features defines the common Feature interface for hook modules.
//
// DESIGN: Each feature lives in its own subpackage and only talks to the host
// through the hook dispatcher:
//   - events/: add-event form, event list, events.saved notifications
//
// FLOW:
//  1. The host builds every feature with its dependencies
//  2. Set.Register wires enabled features into the dispatcher
//  3. The host dispatches hooks.ActionInit once
//  4. Set.Unregister removes every registration on shutdown
package features

import (
	"github.com/rs/zerolog/log"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/hooks"
)

// Feature is a module that contributes hooks.
type Feature interface {
	// Name returns the feature identifier used in config.features.
	Name() string

	// Register adds the feature's hooks. opts carry the configured priority.
	Register(d *hooks.Dispatcher, opts ...hooks.HookOption)

	// Unregister removes every hook added by Register.
	Unregister(d *hooks.Dispatcher)
}

// Set registers a group of features according to config.
type Set struct {
	cfg        config.FeaturesConfig
	features   []Feature
	registered []Feature
}

// NewSet creates a set over fs.
func NewSet(cfg config.FeaturesConfig, fs ...Feature) *Set {
	return &Set{cfg: cfg, features: fs}
}

// Register wires every enabled feature into d and returns their names.
func (s *Set) Register(d *hooks.Dispatcher) []string {
	var names []string
	for _, f := range s.features {
		if !s.cfg.Enabled(f.Name()) {
			log.Debug().Str("feature", f.Name()).Msg("feature disabled")
			continue
		}
		f.Register(d, s.cfg.Priority(f.Name()))
		s.registered = append(s.registered, f)
		names = append(names, f.Name())
	}
	return names
}

// Unregister removes every feature registered by Register.
func (s *Set) Unregister(d *hooks.Dispatcher) {
	for _, f := range s.registered {
		f.Unregister(d)
	}
	s.registered = nil
}
