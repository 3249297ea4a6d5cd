// Package hooks provides the in-process hook dispatcher.
//
// DESIGN: Feature modules extend the host through named hooks without the
// host importing them. Two namespaces share one space of identifiers:
//   - actions: handlers run for side effects, DoAction reports whether any ran
//   - filters: handlers thread one value through an ordered chain
//
// Registering an action under a name never affects a filter of the same name.
//
// ORDERING: Priority determines execution order (lower = earlier).
// Handlers with equal priority run in registration order.
//
// FLOW:
//  1. Modules call AddAction/AddFilter during wiring
//  2. The host calls DoAction/ApplyFilters by name
//  3. The dispatcher snapshots the sequence and runs it on the caller's goroutine
//  4. The first handler error aborts the dispatch and is returned to the caller
//
// Malformed registrations (empty name, nil callback) are ignored silently so
// modules can register unconditionally.
package hooks

import (
	"fmt"
)

// Kind identifies a hook namespace.
type Kind string

const (
	KindAction Kind = "action"
	KindFilter Kind = "filter"
)

// DefaultPriority is used when a registration does not specify one.
const DefaultPriority = 10

// Well-known hook names dispatched by the host.
const (
	// ActionInit fires once after every module has been wired.
	ActionInit = "init"
)

// Args is the fixed argument envelope handed to every handler of a dispatch.
// The same Args value is shared by all handlers of one call.
type Args []any

// Len returns the number of arguments.
func (a Args) Len() int { return len(a) }

// At returns argument i, or nil when out of range.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// String returns argument i as a string, or "" when absent or not a string.
func (a Args) String(i int) string {
	s, _ := a.At(i).(string)
	return s
}

// ArgAs returns argument i asserted to T.
func ArgAs[T any](a Args, i int) (T, bool) {
	v, ok := a.At(i).(T)
	return v, ok
}

// Action is a registered side-effect callback.
// Identity is the pointer: keep it to remove the registration later.
type Action struct {
	fn func(receiver any, args Args) error
}

// NewAction wraps fn as an action callback.
func NewAction(fn func(receiver any, args Args) error) *Action {
	return &Action{fn: fn}
}

func (a *Action) valid() bool { return a != nil && a.fn != nil }

// Filter is a registered value-transforming callback.
// Identity is the pointer: keep it to remove the registration later.
type Filter struct {
	fn func(receiver any, value any, args Args) (any, error)
}

// NewFilter wraps fn as a filter callback.
func NewFilter(fn func(receiver any, value any, args Args) (any, error)) *Filter {
	return &Filter{fn: fn}
}

// FilterOf wraps a typed filter. The incoming value must be a T, otherwise
// the handler fails with ErrFilterType.
func FilterOf[T any](fn func(receiver any, value T, args Args) (T, error)) *Filter {
	if fn == nil {
		return nil
	}
	return NewFilter(func(receiver any, value any, args Args) (any, error) {
		v, ok := value.(T)
		if !ok && value != nil {
			var zero T
			return nil, fmt.Errorf("%w: got %T, want %T", ErrFilterType, value, zero)
		}
		return fn(receiver, v, args)
	})
}

func (f *Filter) valid() bool { return f != nil && f.fn != nil }

// HookOption configures a single registration.
type HookOption func(*registration)

type registration struct {
	priority int
	receiver any
}

// WithPriority sets the handler priority (lower = earlier).
func WithPriority(p int) HookOption {
	return func(r *registration) { r.priority = p }
}

// WithPriorityValue sets the priority from a loosely typed value such as a
// config entry. Values that cannot be coerced keep DefaultPriority.
func WithPriorityValue(v any) HookOption {
	return func(r *registration) {
		if p, ok := CoercePriority(v); ok {
			r.priority = p
		}
	}
}

// WithReceiver binds a receiver delivered to the callback on every call,
// separately from the dispatch arguments.
func WithReceiver(receiver any) HookOption {
	return func(r *registration) { r.receiver = receiver }
}

func newRegistration(opts []HookOption) registration {
	r := registration{priority: DefaultPriority}
	for _, opt := range opts {
		if opt != nil {
			opt(&r)
		}
	}
	return r
}
