// Package store provides document storage for nodes of the state tree.
//
// DESIGN: Documents are flat JSON objects: {id, rev, type, ...attributes}.
// Every save bumps the revision ("N-<hex>"); saving with a stale revision
// fails with ErrConflict, like a document database would.
//
// Two implementations share the codec in codec.go:
//   - MemoryStore: map-backed, for tests and throwaway runs
//   - SQLiteStore: pure-Go SQLite (modernc.org/sqlite), one documents table
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no document matches type and id.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a save or delete carries a stale revision.
	ErrConflict = errors.New("document update conflict")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("store closed")
)

// Document is one stored node.
type Document struct {
	ID         string
	Rev        string
	Type       string
	Attributes map[string]any
}

// Store defines the interface for document storage.
type Store interface {
	// Save writes doc and returns it with its new revision. An empty ID is
	// replaced by a fresh time-ordered one. doc.Rev must equal the stored
	// revision (empty for new documents).
	Save(ctx context.Context, doc Document) (Document, error)

	// Get retrieves a document by type and id.
	Get(ctx context.Context, docType, id string) (Document, error)

	// Find returns every document of docType ordered by id.
	Find(ctx context.Context, docType string) ([]Document, error)

	// Delete removes a document. rev must equal the stored revision.
	Delete(ctx context.Context, docType, id, rev string) error

	// Close releases resources.
	Close() error
}

// NewID returns a time-ordered document id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// nextRev returns the revision following prev.
func nextRev(prev string) string {
	n := 0
	if head, _, ok := strings.Cut(prev, "-"); ok {
		n, _ = strconv.Atoi(head)
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("%d-%s", n+1, suffix)
}

// prepare validates doc and fills in id and revision for a save over
// storedRev ("" when the document does not exist).
func prepare(doc Document, storedRev string, exists bool) (Document, error) {
	if doc.Type == "" {
		return Document{}, fmt.Errorf("document type is required")
	}
	if exists && doc.Rev != storedRev {
		return Document{}, fmt.Errorf("%w: %s/%s has rev %s, got %q", ErrConflict, doc.Type, doc.ID, storedRev, doc.Rev)
	}
	if !exists && doc.Rev != "" {
		return Document{}, fmt.Errorf("%w: %s/%s does not exist, got rev %q", ErrConflict, doc.Type, doc.ID, doc.Rev)
	}
	doc.Rev = nextRev(storedRev)
	return doc, nil
}

// MemoryStore is a simple in-memory implementation of Store.
// Documents are kept encoded so callers never share maps with the store.
type MemoryStore struct {
	docs    map[string]map[string][]byte // type -> id -> encoded document
	mu      sync.RWMutex
	stopped bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string][]byte)}
}

// Save writes a document.
func (s *MemoryStore) Save(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return Document{}, ErrClosed
	}
	if doc.ID == "" {
		doc.ID = NewID()
	}

	storedRev := ""
	raw, exists := s.docs[doc.Type][doc.ID]
	if exists {
		stored, err := Decode(raw)
		if err != nil {
			return Document{}, err
		}
		storedRev = stored.Rev
	}

	doc, err := prepare(doc, storedRev, exists)
	if err != nil {
		return Document{}, err
	}

	encoded, err := Encode(doc)
	if err != nil {
		return Document{}, err
	}
	if s.docs[doc.Type] == nil {
		s.docs[doc.Type] = make(map[string][]byte)
	}
	s.docs[doc.Type][doc.ID] = encoded

	return Decode(encoded)
}

// Get retrieves a document.
func (s *MemoryStore) Get(ctx context.Context, docType, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return Document{}, ErrClosed
	}
	raw, ok := s.docs[docType][id]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, docType, id)
	}
	return Decode(raw)
}

// Find returns every document of docType ordered by id.
func (s *MemoryStore) Find(ctx context.Context, docType string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return nil, ErrClosed
	}

	byID := s.docs[docType]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc, err := Decode(byID[id])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes a document.
func (s *MemoryStore) Delete(ctx context.Context, docType, id, rev string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrClosed
	}
	raw, ok := s.docs[docType][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, docType, id)
	}
	stored, err := Decode(raw)
	if err != nil {
		return err
	}
	if stored.Rev != rev {
		return fmt.Errorf("%w: %s/%s has rev %s, got %q", ErrConflict, docType, id, stored.Rev, rev)
	}
	delete(s.docs[docType], id)
	return nil
}

// Close clears data. Later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		s.stopped = true
		s.docs = nil
	}
	return nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
