// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - requests/successes: Total and successful HTTP request counts
//   - actions/filters:    Hook dispatches that found handlers
//   - hook_failures:      Dispatches aborted by a handler error
//   - events_saved:       Documents written by the events feature
package monitoring

import (
	"sync/atomic"
	"time"

	"github.com/antiarchy/antiarchy/internal/hooks"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	requests     atomic.Int64
	successes    atomic.Int64
	actions      atomic.Int64
	filters      atomic.Int64
	hookFailures atomic.Int64
	eventsSaved  atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordRequest records a request.
func (mc *MetricsCollector) RecordRequest(success bool, _ time.Duration) {
	mc.requests.Add(1)
	if success {
		mc.successes.Add(1)
	}
}

// RecordDispatch implements hooks.Recorder.
func (mc *MetricsCollector) RecordDispatch(kind hooks.Kind, _ string, _ int, err error) {
	switch kind {
	case hooks.KindAction:
		mc.actions.Add(1)
	case hooks.KindFilter:
		mc.filters.Add(1)
	}
	if err != nil {
		mc.hookFailures.Add(1)
	}
}

// RecordEventSaved records a saved event document.
func (mc *MetricsCollector) RecordEventSaved() { mc.eventsSaved.Add(1) }

// Stats returns current metrics.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"requests":      mc.requests.Load(),
		"successes":     mc.successes.Load(),
		"actions":       mc.actions.Load(),
		"filters":       mc.filters.Load(),
		"hook_failures": mc.hookFailures.Load(),
		"events_saved":  mc.eventsSaved.Load(),
	}
}

var _ hooks.Recorder = (*MetricsCollector)(nil)
