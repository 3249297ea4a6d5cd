package events

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/pages"
	"github.com/antiarchy/antiarchy/internal/store"
	"github.com/antiarchy/antiarchy/internal/viewer"
)

func setup(t *testing.T) (*hooks.Dispatcher, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })

	d := hooks.New()
	pages.NewHome().Register(d)
	return d, st
}

func TestHomePage_FormThenList(t *testing.T) {
	ctx := context.Background()
	d, st := setup(t)
	NewAddForm().Register(d)
	NewList().Register(d)

	_, err := Create(ctx, d, st, "picnic <3")
	require.NoError(t, err)

	doc, err := pages.NewApp(d).Render(ctx, viewer.New(st, ""))
	require.NoError(t, err)
	html := string(doc)

	formAt := strings.Index(html, `<form method="post" action="/events">`)
	listAt := strings.Index(html, `<ul class="events">`)
	require.NotEqual(t, -1, formAt)
	require.NotEqual(t, -1, listAt)
	assert.Less(t, formAt, listAt, "equal priorities keep registration order")
	assert.Contains(t, html, "picnic &lt;3", "descriptions are escaped")
}

func TestHomePage_PriorityMovesListFirst(t *testing.T) {
	d, st := setup(t)
	NewAddForm().Register(d)
	NewList().Register(d, hooks.WithPriority(1))

	doc, err := pages.NewApp(d).Render(context.Background(), viewer.New(st, ""))
	require.NoError(t, err)
	html := string(doc)
	assert.Less(t, strings.Index(html, `<ul class="events">`), strings.Index(html, "<form"))
}

func TestList_StoreErrorAbortsRender(t *testing.T) {
	d, st := setup(t)
	NewList().Register(d)
	require.NoError(t, st.Close())

	_, err := pages.NewApp(d).Render(context.Background(), viewer.New(st, ""))
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestList_Unregister(t *testing.T) {
	d, st := setup(t)
	l := NewList()
	l.Register(d)
	l.Unregister(d)

	assert.False(t, d.HasFilter(pages.RenderHome))
	doc, err := pages.NewApp(d).Render(context.Background(), viewer.New(st, ""))
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "<ul")
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	d, st := setup(t)

	var saved []*viewer.Node
	d.AddAction(ActionSaved, hooks.NewAction(func(_ any, args hooks.Args) error {
		n, ok := hooks.ArgAs[*viewer.Node](args, 0)
		require.True(t, ok)
		saved = append(saved, n)
		return nil
	}))

	n, err := Create(ctx, d, st, "  march  ")
	require.NoError(t, err)
	assert.Equal(t, "march", n.Attr("description"))
	require.Len(t, saved, 1)
	assert.Equal(t, n.ID, saved[0].ID)

	doc, err := st.Get(ctx, viewer.TypeEvent, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.Rev, doc.Rev)
}

func TestCreate_EmptyDescription(t *testing.T) {
	d, st := setup(t)

	_, err := Create(context.Background(), d, st, "   ")
	assert.ErrorIs(t, err, ErrEmptyDescription)

	docs, err := st.Find(context.Background(), viewer.TypeEvent)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCreate_ListenerFailure(t *testing.T) {
	d, st := setup(t)
	boom := errors.New("listener")
	d.AddAction(ActionSaved, hooks.NewAction(func(_ any, _ hooks.Args) error { return boom }))

	n, err := Create(context.Background(), d, st, "rally")
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, n, "the event is saved before listeners run")

	_, err = st.Get(context.Background(), viewer.TypeEvent, n.ID)
	assert.NoError(t, err)
}

func TestCounter_RunsOnInit(t *testing.T) {
	d, st := setup(t)
	c := NewCounter(st)
	c.Register(d)

	ran, err := d.DoAction(hooks.ActionInit, context.Background())
	require.NoError(t, err)
	assert.True(t, ran)

	require.NoError(t, st.Close())
	_, err = d.DoAction(hooks.ActionInit, context.Background())
	assert.ErrorIs(t, err, store.ErrClosed)

	c.Unregister(d)
	assert.False(t, d.HasAction(hooks.ActionInit))
}
