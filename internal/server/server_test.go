package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/features"
	"github.com/antiarchy/antiarchy/internal/features/events"
	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/monitoring"
	"github.com/antiarchy/antiarchy/internal/pages"
	"github.com/antiarchy/antiarchy/internal/store"
)

type fixture struct {
	server  *Server
	hooks   *hooks.Dispatcher
	store   store.Store
	live    *LiveHub
	metrics *monitoring.MetricsCollector
	handler http.Handler
}

func newFixture(t *testing.T, featureCfg config.FeaturesConfig) *fixture {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
		Store:    config.StoreConfig{Type: config.StoreMemory},
		Features: featureCfg,
	}
	st := store.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })

	metrics := monitoring.NewMetricsCollector()
	d := hooks.New(hooks.WithRecorder(metrics))
	live := NewLiveHub()
	features.NewSet(featureCfg,
		pages.NewHome(),
		events.NewAddForm(),
		events.NewList(),
		live,
	).Register(d)

	logger := monitoring.NewWithWriter(io.Discard, zerolog.Disabled)
	s := New(cfg, d, st, live, logger, metrics)
	t.Cleanup(live.Close)

	return &fixture{server: s, hooks: d, store: st, live: live, metrics: metrics, handler: s.Handler()}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func postEvent(description string) *http.Request {
	form := url.Values{"description": {description}}
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHome(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>You can do it</h1>")
	assert.Contains(t, rec.Body.String(), `action="/events"`)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestUnknownPage(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/p/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pages.NotFound))
}

func TestHomeDisabled(t *testing.T) {
	f := newFixture(t, config.FeaturesConfig{config.FeatureHome: {Enabled: false}})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page Not Found")
}

func TestRequestIDPassthrough(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "req-123")

	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(postEvent("bake sale"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "bake sale")
	assert.Equal(t, int64(1), f.metrics.Stats()["events_saved"])
}

func TestCreateEvent_EmptyDescription(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(postEvent("  "))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, events.ErrEmptyDescription.Error(), gjson.Get(rec.Body.String(), "error").String())
}

func TestCreateEvent_ListenerFailureStillRedirects(t *testing.T) {
	f := newFixture(t, nil)
	f.hooks.AddAction(events.ActionSaved, hooks.NewAction(func(_ any, _ hooks.Args) error {
		return errors.New("mailer down")
	}))

	rec := f.do(postEvent("vigil"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	docs, err := f.store.Find(context.Background(), "event")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, int64(1), f.metrics.Stats()["events_saved"], "counter runs first")
}

func TestRenderFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.hooks.AddFilter(pages.RenderHome, hooks.NewFilter(func(_ any, _ any, _ hooks.Args) (any, error) {
		return nil, errors.New("template exploded")
	}))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int64(2), f.metrics.Stats()["hook_failures"], "Home.render and the enclosing App.renderRoute both abort")
}

func TestPanicRecovery(t *testing.T) {
	f := newFixture(t, nil)
	f.hooks.AddFilter(pages.RenderRoute, hooks.NewFilter(func(_ any, _ any, _ hooks.Args) (any, error) {
		panic("handler bug")
	}))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", gjson.Get(rec.Body.String(), "error").String())
}

func TestDebugHooks(t *testing.T) {
	f := newFixture(t, config.FeaturesConfig{config.FeatureListEvents: {Enabled: true, Priority: "5"}})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/debug/hooks", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	home := gjson.Get(body, `filters.#(name=="Home.render").priorities`)
	assert.Equal(t, "[5,10]", home.Raw)
	saved := gjson.Get(body, `actions.#(name=="events.saved").priorities`)
	assert.Equal(t, "[0,10]", saved.Raw)
	assert.True(t, gjson.Get(body, "metrics.requests").Exists())
}

func TestLive(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/live", nil)
	require.NoError(t, err)
	defer c.CloseNow()

	_, err = events.Create(ctx, f.hooks, f.store, "street party")
	require.NoError(t, err)

	typ, msg, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Equal(t, events.ActionSaved, gjson.GetBytes(msg, "action").String())
	assert.Equal(t, "street party", gjson.GetBytes(msg, "node.description").String())
	assert.Equal(t, "event", gjson.GetBytes(msg, "node.type").String())

	f.live.Close()
	_, _, err = c.Read(ctx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}

func TestLiveDisabled(t *testing.T) {
	f := newFixture(t, config.FeaturesConfig{config.FeatureLive: {Enabled: false}})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveHub_DropsForSlowSubscriber(t *testing.T) {
	h := NewLiveHub()
	ch, cancel, ok := h.subscribe()
	require.True(t, ok)
	defer cancel()

	for i := 0; i < liveBuffer+3; i++ {
		h.broadcast([]byte("x"))
	}

	assert.Len(t, ch, liveBuffer)
	assert.Equal(t, int64(3), h.Dropped())

	h.Close()
	_, _, ok = h.subscribe()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers())
}
