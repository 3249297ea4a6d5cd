package viewer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/antiarchy/antiarchy/internal/store"
)

// Viewer is the root of the state tree for one render.
type Viewer struct {
	mu     sync.RWMutex
	page   string
	events map[string]*Node
	store  store.Store
}

// New creates a viewer on page backed by st.
func New(st store.Store, page string) *Viewer {
	return &Viewer{page: page, events: make(map[string]*Node), store: st}
}

// Page returns the current page ("" is the home page).
func (v *Viewer) Page() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.page
}

// SetPage switches the current page.
func (v *Viewer) SetPage(page string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = page
}

// Store returns the backing store.
func (v *Viewer) Store() store.Store { return v.store }

// LoadEvents reads every event from the store and merges it into the tree,
// replacing nodes with the same id.
func (v *Viewer) LoadEvents(ctx context.Context) error {
	docs, err := v.store.Find(ctx, TypeEvent)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, doc := range docs {
		v.events[doc.ID] = FromDocument(doc)
	}
	return nil
}

// PutEvent adds or replaces an event node.
func (v *Viewer) PutEvent(n *Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events[n.ID] = n
}

// Events returns loaded events ordered by id (creation order for
// generated ids).
func (v *Viewer) Events() []*Node {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]*Node, 0, len(v.events))
	for _, n := range v.events {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
