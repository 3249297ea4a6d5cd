package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiarchy/antiarchy/internal/config"
)

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "docs.db"))
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
}

func TestStore_SaveAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		saved, err := s.Save(ctx, Document{Type: "event", Attributes: map[string]any{"description": "picnic"}})
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.True(t, strings.HasPrefix(saved.Rev, "1-"), saved.Rev)

		got, err := s.Get(ctx, "event", saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved, got)
		assert.Equal(t, "picnic", got.Attributes["description"])
	})
}

func TestStore_RevisionsAndConflicts(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		first, err := s.Save(ctx, Document{ID: "e1", Type: "event", Attributes: map[string]any{"n": 1}})
		require.NoError(t, err)

		first.Attributes["n"] = 2
		second, err := s.Save(ctx, first)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(second.Rev, "2-"), second.Rev)
		assert.Equal(t, float64(2), second.Attributes["n"])

		_, err = s.Save(ctx, first)
		assert.ErrorIs(t, err, ErrConflict, "stale revision")

		_, err = s.Save(ctx, Document{ID: "e2", Rev: "3-abc", Type: "event"})
		assert.ErrorIs(t, err, ErrConflict, "revision for a new document")
	})
}

func TestStore_FindByType(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for _, id := range []string{"b", "a", "c"} {
			_, err := s.Save(ctx, Document{ID: id, Type: "event"})
			require.NoError(t, err)
		}
		_, err := s.Save(ctx, Document{ID: "x", Type: "creator"})
		require.NoError(t, err)

		docs, err := s.Find(ctx, "event")
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})

		none, err := s.Find(ctx, "post")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStore_Delete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		doc, err := s.Save(ctx, Document{ID: "e1", Type: "event"})
		require.NoError(t, err)

		assert.ErrorIs(t, s.Delete(ctx, "event", "e1", "1-wrong"), ErrConflict)
		require.NoError(t, s.Delete(ctx, "event", "e1", doc.Rev))

		_, err = s.Get(ctx, "event", "e1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "event", "e1", doc.Rev), ErrNotFound)
	})
}

func TestStore_RequiresType(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.Save(context.Background(), Document{ID: "x"})
		assert.Error(t, err)
	})
}

func TestStore_Closed(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Close())
		require.NoError(t, s.Close(), "close is idempotent")

		_, err := s.Save(context.Background(), Document{Type: "event"})
		assert.ErrorIs(t, err, ErrClosed)
		_, err = s.Find(context.Background(), "event")
		assert.ErrorIs(t, err, ErrClosed)
		_, err = s.Get(context.Background(), "event", "x")
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestCodec(t *testing.T) {
	doc := Document{
		ID:   "e1",
		Rev:  "1-abc",
		Type: "event",
		Attributes: map[string]any{
			"description": "a.b.c",
			"dotted.key":  true,
			"tags":        []any{"x", "y"},
			"id":          "shadowed",
		},
	}

	data, err := Encode(doc)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "1-abc", got.Rev)
	assert.Equal(t, "event", got.Type)
	assert.Equal(t, map[string]any{
		"description": "a.b.c",
		"dotted.key":  true,
		"tags":        []any{"x", "y"},
	}, got.Attributes)

	_, err = Decode([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
	_, err = Decode([]byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestNextRev(t *testing.T) {
	assert.True(t, strings.HasPrefix(nextRev(""), "1-"))
	assert.True(t, strings.HasPrefix(nextRev("9-deadbeef"), "10-"))
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Type: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(context.Background(), config.StoreConfig{Type: "couch"})
	assert.Error(t, err)
}
