// Package events contributes event features to the home page.
//
// DESIGN: Three independent features, each a hooks registration:
//   - AddForm:  appends the "Add Event" form to Home.render
//   - List:     loads events into the viewer and appends the list
//   - Counter:  logs the stored event count on init
//
// Create is the write path used by the server: it saves an event and
// dispatches events.saved with (node *viewer.Node, ctx context.Context).
package events

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/pages"
	"github.com/antiarchy/antiarchy/internal/store"
	"github.com/antiarchy/antiarchy/internal/viewer"
)

// ActionSaved fires after an event is written.
const ActionSaved = "events.saved"

// ErrEmptyDescription is returned by Create for a blank description.
var ErrEmptyDescription = errors.New("event description is required")

var (
	formTemplate = template.Must(template.New("add_event").Parse(
		`<form method="post" action="/events"><textarea name="description"></textarea><button>Add Event</button></form>`))

	listTemplate = template.Must(template.New("list_events").Parse(
		`<ul class="events">{{range .}}<li data-id="{{.ID}}">{{.Attr "description"}}</li>{{end}}</ul>`))
)

// =============================================================================
// ADD FORM
// =============================================================================

// AddForm appends the event form to the home page.
type AddForm struct {
	filter *hooks.Filter
}

// NewAddForm creates the add-event feature.
func NewAddForm() *AddForm {
	f := &AddForm{}
	f.filter = hooks.FilterOf(f.render)
	return f
}

// Name implements features.Feature.
func (f *AddForm) Name() string { return config.FeatureAddEvent }

// Register implements features.Feature.
func (f *AddForm) Register(d *hooks.Dispatcher, opts ...hooks.HookOption) {
	d.AddFilter(pages.RenderHome, f.filter, opts...)
}

// Unregister implements features.Feature.
func (f *AddForm) Unregister(d *hooks.Dispatcher) {
	d.RemoveFilter(pages.RenderHome, f.filter, nil)
}

func (f *AddForm) render(_ any, parts []pages.Fragment, args hooks.Args) ([]pages.Fragment, error) {
	form, err := pages.Execute(formTemplate, nil)
	if err != nil {
		return nil, err
	}
	return append(parts, form), nil
}

// =============================================================================
// LIST
// =============================================================================

// List loads events and appends them to the home page.
type List struct {
	filter *hooks.Filter
}

// NewList creates the list-events feature.
func NewList() *List {
	l := &List{}
	l.filter = hooks.FilterOf(l.render)
	return l
}

// Name implements features.Feature.
func (l *List) Name() string { return config.FeatureListEvents }

// Register implements features.Feature.
func (l *List) Register(d *hooks.Dispatcher, opts ...hooks.HookOption) {
	d.AddFilter(pages.RenderHome, l.filter, opts...)
}

// Unregister implements features.Feature.
func (l *List) Unregister(d *hooks.Dispatcher) {
	d.RemoveFilter(pages.RenderHome, l.filter, nil)
}

func (l *List) render(_ any, parts []pages.Fragment, args hooks.Args) ([]pages.Fragment, error) {
	v, err := pages.ViewerArg(args, 0)
	if err != nil {
		return nil, err
	}
	if err := v.LoadEvents(pages.ContextArg(args, 1)); err != nil {
		return nil, err
	}

	list, err := pages.Execute(listTemplate, v.Events())
	if err != nil {
		return nil, err
	}
	return append(parts, list), nil
}

// =============================================================================
// COUNTER
// =============================================================================

// Counter logs how many events are stored when the host initializes.
// The store is bound as the action receiver.
type Counter struct {
	store  store.Store
	action *hooks.Action
}

// NewCounter creates the init counter for st.
func NewCounter(st store.Store) *Counter {
	return &Counter{store: st, action: hooks.NewAction(countEvents)}
}

// Name implements features.Feature.
func (c *Counter) Name() string { return config.FeatureEventCounter }

// Register implements features.Feature.
func (c *Counter) Register(d *hooks.Dispatcher, opts ...hooks.HookOption) {
	d.AddAction(hooks.ActionInit, c.action, append(opts, hooks.WithReceiver(c.store))...)
}

// Unregister implements features.Feature.
func (c *Counter) Unregister(d *hooks.Dispatcher) {
	d.RemoveAction(hooks.ActionInit, c.action, c.store)
}

func countEvents(receiver any, args hooks.Args) error {
	st, ok := receiver.(store.Store)
	if !ok {
		return fmt.Errorf("event counter bound to %T, want store.Store", receiver)
	}
	docs, err := st.Find(pages.ContextArg(args, 0), viewer.TypeEvent)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	log.Info().Int("events", len(docs)).Msg("event store ready")
	return nil
}

// =============================================================================
// WRITE PATH
// =============================================================================

// Create saves a new event with the given description and dispatches
// ActionSaved. The saved node is returned even when a listener fails.
func Create(ctx context.Context, d *hooks.Dispatcher, st store.Store, description string) (*viewer.Node, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	n := viewer.NewEvent()
	n.SetAttributes(map[string]any{"description": description})
	if err := n.Save(ctx, st); err != nil {
		return nil, err
	}

	if _, err := d.DoAction(ActionSaved, n, ctx); err != nil {
		return n, fmt.Errorf("event %s saved, notify failed: %w", n.ID, err)
	}
	return n, nil
}
