package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/antiarchy/antiarchy/internal/features/events"
	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/monitoring"
	"github.com/antiarchy/antiarchy/internal/pages"
	"github.com/antiarchy/antiarchy/internal/viewer"
)

// MaxFormBytes caps POST /events bodies.
const MaxFormBytes = 64 << 10

// handlePage renders the page named by the path. Routes no module claims
// get the "not found" fragment with a 404 status.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	requestID := monitoring.RequestIDFromContext(r.Context())
	page := r.PathValue("page")
	start := time.Now()

	v := viewer.New(s.store, page)
	body, err := s.app.RenderBody(r.Context(), v)
	if err != nil {
		s.alerts.FlagHookFailure(requestID, pages.RenderRoute, err)
		s.writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	doc, err := pages.Layout(body)
	if err != nil {
		log.Error().Err(err).Str("page", page).Msg("layout failed")
		s.writeError(w, "render failed", http.StatusInternalServerError)
		return
	}

	s.requestLogger.LogRender(&monitoring.RenderInfo{
		RequestID: requestID,
		Page:      page,
		Bytes:     len(doc),
		Duration:  time.Since(start),
	})

	status := http.StatusOK
	if body == pages.NotFound {
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(doc)
}

// handleCreateEvent saves an event from the form field "description" and
// redirects home. A failing events.saved listener is logged; the event is
// already stored.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	requestID := monitoring.RequestIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, "invalid form", http.StatusBadRequest)
		return
	}

	n, err := events.Create(r.Context(), s.hooks, s.store, r.PostForm.Get("description"))
	switch {
	case errors.Is(err, events.ErrEmptyDescription):
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil && n == nil:
		log.Error().Err(err).Str("request_id", requestID).Msg("create event failed")
		s.writeError(w, "create event failed", http.StatusInternalServerError)
		return
	case err != nil:
		s.alerts.FlagHookFailure(requestID, events.ActionSaved, err)
	}

	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusSeeOther)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.live == nil || !s.live.Active() {
		s.writeError(w, "live updates disabled", http.StatusNotFound)
		return
	}
	s.live.ServeHTTP(w, r)
}

// hooksResponse is the body of GET /debug/hooks.
type hooksResponse struct {
	Actions []hooks.HookInfo `json:"actions"`
	Filters []hooks.HookInfo `json:"filters"`
	Metrics map[string]int64 `json:"metrics"`
}

func (s *Server) handleHooks(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, hooksResponse{
		Actions: s.hooks.Describe(hooks.KindAction),
		Filters: s.hooks.Describe(hooks.KindFilter),
		Metrics: s.metrics.Stats(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, msg string, status int) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
