package hooks

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrFilterType is returned when a filter chain yields a value of the wrong type.
var ErrFilterType = errors.New("filter value has unexpected type")

// Recorder receives one call per dispatch that found handlers.
// monitoring.MetricsCollector implements it.
type Recorder interface {
	RecordDispatch(kind Kind, name string, handlers int, err error)
}

// Dispatcher owns the hook table. Construct one per process (or per test)
// and pass it to every module that registers or dispatches.
//
// Dispatch is synchronous: handlers run on the caller's goroutine. The lock
// guards the table only and is never held while a handler runs, so handlers
// may register or remove hooks. Such changes apply to later dispatches; a
// running dispatch keeps the sequence it started with.
type Dispatcher struct {
	mu       sync.RWMutex
	actions  table[*Action]
	filters  table[*Filter]
	logger   zerolog.Logger
	recorder Recorder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used to trace dispatches.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithRecorder sets the dispatch metrics sink.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// New creates an empty dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		actions: newTable[*Action](),
		filters: newTable[*Filter](),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// =============================================================================
// REGISTRATION
// =============================================================================

// AddAction registers callback under name. An empty name or a nil callback
// is ignored.
func (d *Dispatcher) AddAction(name string, callback *Action, opts ...HookOption) {
	if name == "" || !callback.valid() {
		return
	}
	r := newRegistration(opts)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions.insert(name, entry[*Action]{callback: callback, priority: r.priority, receiver: r.receiver})
}

// AddFilter registers callback under name. An empty name or a nil callback
// is ignored.
func (d *Dispatcher) AddFilter(name string, callback *Filter, opts ...HookOption) {
	if name == "" || !callback.valid() {
		return
	}
	r := newRegistration(opts)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters.insert(name, entry[*Filter]{callback: callback, priority: r.priority, receiver: r.receiver})
}

// RemoveAction removes action handlers registered under name.
//
//   - nil callback: every handler for name is removed
//   - callback, nil receiver: every entry for callback is removed, whatever its receiver
//   - callback and receiver: only entries matching both are removed
//
// Unknown names and callbacks are a no-op.
func (d *Dispatcher) RemoveAction(name string, callback *Action, receiver any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if callback == nil {
		d.actions.clear(name)
		return
	}
	d.actions.remove(name, callback, receiver, receiver != nil)
}

// RemoveFilter removes filter handlers registered under name.
// The arguments behave as for RemoveAction.
func (d *Dispatcher) RemoveFilter(name string, callback *Filter, receiver any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if callback == nil {
		d.filters.clear(name)
		return
	}
	d.filters.remove(name, callback, receiver, receiver != nil)
}

// =============================================================================
// DISPATCH
// =============================================================================

// DoAction runs every action handler registered under name, in order, with
// the same arguments. It returns false when no handler is registered and
// true once all handlers ran. The first handler error stops the dispatch and
// is returned wrapped.
func (d *Dispatcher) DoAction(name string, args ...any) (bool, error) {
	d.mu.RLock()
	seq := d.actions.lookup(name)
	d.mu.RUnlock()

	if len(seq) == 0 {
		return false, nil
	}

	a := Args(args)
	for i, e := range seq {
		if err := e.callback.fn(e.receiver, a); err != nil {
			d.logger.Debug().Err(err).Str("action", name).Int("handler", i).Msg("action handler failed")
			d.record(KindAction, name, len(seq), err)
			return false, fmt.Errorf("action %q handler %d: %w", name, i, err)
		}
	}

	d.logger.Trace().Str("action", name).Int("handlers", len(seq)).Msg("action dispatched")
	d.record(KindAction, name, len(seq), nil)
	return true, nil
}

// ApplyFilters threads value through every filter handler registered under
// name and returns the final value. Each handler receives the previous
// handler's result plus the fixed extra arguments. Without handlers the
// value is returned unchanged. The first handler error stops the chain and
// is returned wrapped, with a nil value.
func (d *Dispatcher) ApplyFilters(name string, value any, args ...any) (any, error) {
	d.mu.RLock()
	seq := d.filters.lookup(name)
	d.mu.RUnlock()

	if len(seq) == 0 {
		return value, nil
	}

	a := Args(args)
	current := value
	for i, e := range seq {
		next, err := e.callback.fn(e.receiver, current, a)
		if err != nil {
			d.logger.Debug().Err(err).Str("filter", name).Int("handler", i).Msg("filter handler failed")
			d.record(KindFilter, name, len(seq), err)
			return nil, fmt.Errorf("filter %q handler %d: %w", name, i, err)
		}
		current = next
	}

	d.logger.Trace().Str("filter", name).Int("handlers", len(seq)).Msg("filter applied")
	d.record(KindFilter, name, len(seq), nil)
	return current, nil
}

// Apply runs ApplyFilters and asserts the result to T. A nil result yields
// the zero T. Any other type mismatch is reported as ErrFilterType.
func Apply[T any](d *Dispatcher, name string, value T, args ...any) (T, error) {
	var zero T

	out, err := d.ApplyFilters(name, value, args...)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%w: filter %q returned %T, want %T", ErrFilterType, name, out, zero)
	}
	return v, nil
}

func (d *Dispatcher) record(kind Kind, name string, handlers int, err error) {
	if d.recorder != nil {
		d.recorder.RecordDispatch(kind, name, handlers, err)
	}
}

// =============================================================================
// INTROSPECTION
// =============================================================================

// HookInfo describes the handlers registered under one name.
type HookInfo struct {
	Name       string `json:"name"`
	Priorities []int  `json:"priorities"` // in execution order
}

// HasAction reports whether any action handler is registered under name.
func (d *Dispatcher) HasAction(name string) bool { return d.Count(KindAction, name) > 0 }

// HasFilter reports whether any filter handler is registered under name.
func (d *Dispatcher) HasFilter(name string) bool { return d.Count(KindFilter, name) > 0 }

// Count returns the number of handlers registered under name.
func (d *Dispatcher) Count(kind Kind, name string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch kind {
	case KindAction:
		return len(d.actions.lookup(name))
	case KindFilter:
		return len(d.filters.lookup(name))
	}
	return 0
}

// Describe lists every registered hook of kind, sorted by name.
func (d *Dispatcher) Describe(kind Kind) []HookInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch kind {
	case KindAction:
		return describe(&d.actions)
	case KindFilter:
		return describe(&d.filters)
	}
	return nil
}

func describe[C comparable](t *table[C]) []HookInfo {
	names := t.names()
	infos := make([]HookInfo, 0, len(names))
	for _, name := range names {
		seq := t.lookup(name)
		prios := make([]int, len(seq))
		for i, e := range seq {
			prios[i] = e.priority
		}
		infos = append(infos, HookInfo{Name: name, Priorities: prios})
	}
	return infos
}
