// Live updates - pushes events.saved notifications to websocket clients.
//
// DESIGN: LiveHub is a feature like any other: it registers an action on
// events.saved. The action runs on the request goroutine that saved the
// event, so it never blocks: each subscriber has a buffered channel and a
// full channel drops the message for that subscriber only.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/features/events"
	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/store"
	"github.com/antiarchy/antiarchy/internal/viewer"
)

const (
	liveBuffer       = 16
	liveWriteTimeout = 5 * time.Second
)

// LiveHub fans saved events out to websocket subscribers.
type LiveHub struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed bool

	active  atomic.Bool
	dropped atomic.Int64
	action  *hooks.Action
}

// NewLiveHub creates an empty hub.
func NewLiveHub() *LiveHub {
	h := &LiveHub{subs: make(map[chan []byte]struct{})}
	h.action = hooks.NewAction(h.publish)
	return h
}

// Name implements features.Feature.
func (h *LiveHub) Name() string { return config.FeatureLive }

// Register implements features.Feature.
func (h *LiveHub) Register(d *hooks.Dispatcher, opts ...hooks.HookOption) {
	d.AddAction(events.ActionSaved, h.action, opts...)
	h.active.Store(true)
}

// Unregister implements features.Feature.
func (h *LiveHub) Unregister(d *hooks.Dispatcher) {
	d.RemoveAction(events.ActionSaved, h.action, nil)
	h.active.Store(false)
}

// Active reports whether the hub is registered.
func (h *LiveHub) Active() bool { return h.active.Load() }

// Dropped returns how many messages were discarded for slow subscribers.
func (h *LiveHub) Dropped() int64 { return h.dropped.Load() }

// Subscribers returns the number of connected subscribers.
func (h *LiveHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// publish is the events.saved action: args are (node *viewer.Node, ctx).
func (h *LiveHub) publish(_ any, args hooks.Args) error {
	n, ok := hooks.ArgAs[*viewer.Node](args, 0)
	if !ok || n == nil {
		return fmt.Errorf("live: argument 0 is %T, want *viewer.Node", args.At(0))
	}
	msg, err := liveMessage(n)
	if err != nil {
		return err
	}
	h.broadcast(msg)
	return nil
}

// liveMessage encodes {"action":"events.saved","node":{...document...}}.
func liveMessage(n *viewer.Node) ([]byte, error) {
	doc, err := store.Encode(n.Document())
	if err != nil {
		return nil, fmt.Errorf("live: encode node: %w", err)
	}
	msg, err := sjson.SetBytes([]byte(`{}`), "action", events.ActionSaved)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(msg, "node", doc)
}

func (h *LiveHub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// subscribe returns a message channel and its cancel func. ok is false once
// the hub is closed.
func (h *LiveHub) subscribe() (ch chan []byte, cancel func(), ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, nil, false
	}
	ch = make(chan []byte, liveBuffer)
	h.subs[ch] = struct{}{}

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel, true
}

// Close disconnects every subscriber. Later upgrades are refused.
func (h *LiveHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// ServeHTTP upgrades the request and streams messages until the client goes
// away or the hub closes. The subscription exists before the handshake
// completes, so a client sees every event saved after Dial returns.
func (h *LiveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ch, cancel, ok := h.subscribe()
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer cancel()

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("live: upgrade failed")
		return
	}
	defer c.CloseNow()

	// the client sends nothing; CloseRead handles control frames
	ctx := c.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				c.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := write(ctx, c, msg); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Debug().Err(err).Msg("live: write failed")
				}
				return
			}
		}
	}
}

func write(ctx context.Context, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, msg)
}
