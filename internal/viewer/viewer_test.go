package viewer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiarchy/antiarchy/internal/store"
)

func TestNode_SaveTracksRevision(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	defer st.Close()

	n := NewEvent()
	n.SetAttributes(map[string]any{"description": "picnic"})
	require.NoError(t, n.Save(ctx, st))
	first := n.Rev
	assert.NotEmpty(t, first)

	n.SetAttributes(map[string]any{"description": "picnic at noon"})
	require.NoError(t, n.Save(ctx, st))
	assert.NotEqual(t, first, n.Rev)

	doc, err := st.Get(ctx, TypeEvent, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "picnic at noon", doc.Attributes["description"])
}

func TestNode_AttributesAreCopied(t *testing.T) {
	n := NewEvent()
	in := map[string]any{"description": "a"}
	n.SetAttributes(in)
	in["description"] = "b"

	assert.Equal(t, "a", n.Attr("description"))

	out := n.Attributes()
	out["description"] = "c"
	assert.Equal(t, "a", n.Attr("description"))
	assert.Equal(t, "", n.Attr("missing"))
}

func TestViewer_LoadEvents(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	defer st.Close()

	for _, id := range []string{"b", "a"} {
		_, err := st.Save(ctx, store.Document{ID: id, Type: TypeEvent, Attributes: map[string]any{"description": id}})
		require.NoError(t, err)
	}
	_, err := st.Save(ctx, store.Document{ID: "c", Type: "creator"})
	require.NoError(t, err)

	v := New(st, "")
	require.NoError(t, v.LoadEvents(ctx))

	events := v.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, "b", events[1].Attr("description"))

	require.NoError(t, v.LoadEvents(ctx))
	assert.Len(t, v.Events(), 2, "reload replaces nodes by id")
}

func TestViewer_LoadEventsError(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Close())

	v := New(st, "")
	assert.ErrorIs(t, v.LoadEvents(context.Background()), store.ErrClosed)
}

func TestViewer_Page(t *testing.T) {
	v := New(store.NewMemoryStore(), "about")
	assert.Equal(t, "about", v.Page())
	v.SetPage("")
	assert.Equal(t, "", v.Page())
}
