// Feature configuration - which modules register hooks, and where.
//
// DESIGN: Priority is free-form (int, float or numeric string) and is
// coerced by the hook dispatcher at registration time.
package config

import (
	"fmt"

	"github.com/antiarchy/antiarchy/internal/hooks"
)

// Feature names.
const (
	FeatureHome         = "home"
	FeatureAddEvent     = "add_event"
	FeatureListEvents   = "list_events"
	FeatureEventCounter = "event_counter"
	FeatureLive         = "live"
)

// FeatureConfig controls a single feature module.
type FeatureConfig struct {
	Enabled  bool `yaml:"enabled"`
	Priority any  `yaml:"priority"` // nil = hooks.DefaultPriority
}

// FeaturesConfig maps feature name to its settings.
type FeaturesConfig map[string]FeatureConfig

// Enabled reports whether name is enabled. Features missing from the map
// are enabled with the default priority.
func (f FeaturesConfig) Enabled(name string) bool {
	fc, ok := f[name]
	if !ok {
		return true
	}
	return fc.Enabled
}

// Priority returns the registration option for name.
func (f FeaturesConfig) Priority(name string) hooks.HookOption {
	return hooks.WithPriorityValue(f[name].Priority)
}

// Validate rejects priorities that cannot be read as an integer.
func (f FeaturesConfig) Validate() error {
	for name, fc := range f {
		if fc.Priority == nil {
			continue
		}
		if _, ok := hooks.CoercePriority(fc.Priority); !ok {
			return fmt.Errorf("features.%s.priority: cannot use %v as a priority", name, fc.Priority)
		}
	}
	return nil
}
