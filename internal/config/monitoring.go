// Monitoring configuration - logging and alert settings.
package config

import (
	"fmt"
	"time"
)

// MonitoringConfig contains all monitoring settings.
type MonitoringConfig struct {
	LogLevel  string `yaml:"log_level"`  // trace, debug, info, warn, error
	LogFormat string `yaml:"log_format"` // json, console, auto
	LogOutput string `yaml:"log_output"` // stdout, stderr, or file path

	HighLatencyThreshold time.Duration `yaml:"high_latency_threshold"` // 0 = 5s
}

// Validate checks log format values. Unknown levels fall back to info at
// logger construction, so they are not rejected here.
func (m MonitoringConfig) Validate() error {
	switch m.LogFormat {
	case "", "json", "console", "auto":
		return nil
	default:
		return fmt.Errorf("invalid monitoring.log_format: %q (must be json, console or auto)", m.LogFormat)
	}
}
