// Package viewer holds the per-render state tree: the page being viewed and
// the nodes loaded from the document store.
package viewer

import (
	"context"
	"fmt"
	"maps"

	"github.com/antiarchy/antiarchy/internal/store"
)

// TypeEvent is the document type of events.
const TypeEvent = "event"

// Node is a typed document with free-form attributes.
type Node struct {
	ID         string
	Rev        string
	Type       string
	attributes map[string]any
}

// NewNode creates an unsaved node of nodeType with a fresh id.
func NewNode(nodeType string) *Node {
	return &Node{ID: store.NewID(), Type: nodeType, attributes: map[string]any{}}
}

// NewEvent creates an unsaved event node.
func NewEvent() *Node { return NewNode(TypeEvent) }

// FromDocument builds a node from a stored document.
func FromDocument(doc store.Document) *Node {
	attrs := doc.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &Node{ID: doc.ID, Rev: doc.Rev, Type: doc.Type, attributes: attrs}
}

// Attributes returns a copy of the node attributes.
func (n *Node) Attributes() map[string]any {
	return maps.Clone(n.attributes)
}

// Attr returns attribute key as a string, or "" when absent.
func (n *Node) Attr(key string) string {
	v, ok := n.attributes[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// SetAttributes replaces every attribute.
func (n *Node) SetAttributes(values map[string]any) {
	n.attributes = maps.Clone(values)
	if n.attributes == nil {
		n.attributes = map[string]any{}
	}
}

// Document converts the node for storage.
func (n *Node) Document() store.Document {
	return store.Document{ID: n.ID, Rev: n.Rev, Type: n.Type, Attributes: n.Attributes()}
}

// Save writes the node and records the new revision.
func (n *Node) Save(ctx context.Context, st store.Store) error {
	saved, err := st.Save(ctx, n.Document())
	if err != nil {
		return fmt.Errorf("save %s %s: %w", n.Type, n.ID, err)
	}
	n.Rev = saved.Rev
	return nil
}
