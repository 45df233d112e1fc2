// Package session binds a builder state to a schema and keeps the generated
// palettes, wizard and templates current after every mutation.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/DeusData/cypher-builder/internal/builder"
	"github.com/DeusData/cypher-builder/internal/cypher"
	"github.com/DeusData/cypher-builder/internal/metrics"
	"github.com/DeusData/cypher-builder/internal/schema"
	"github.com/DeusData/cypher-builder/internal/templates"
)

// ErrNotFound is returned for unknown sessions and template indexes.
var ErrNotFound = errors.New("not found")

var validate = validator.New()

// Options configures new sessions.
type Options struct {
	Limits         builder.Limits
	DeleteX        float64
	AnimationDelay time.Duration
	Schema         *schema.Schema
	Metrics        *metrics.Collector
}

// DefaultOptions returns stock limits, a 300px delete threshold and a 5ms
// animation release.
func DefaultOptions() Options {
	return Options{
		Limits:         builder.DefaultLimits(),
		DeleteX:        300,
		AnimationDelay: 5 * time.Millisecond,
	}
}

// Session is one builder instance. All methods are safe for concurrent use.
type Session struct {
	ID      string
	Created time.Time

	mu        sync.Mutex
	opts      Options
	state     *builder.State
	schema    *schema.Schema
	templates []templates.Template
	pipeline  Pipeline
	timers    map[string]*time.Timer
	closed    bool
}

// View is a consistent snapshot of a session.
type View struct {
	ID      string         `json:"id"`
	State   *builder.State `json:"state"`
	Cypher  string         `json:"cypher"`
	Caption string         `json:"caption"`
	Schema  schema.Summary `json:"schema"`
}

// New creates a session with a fresh builder state and runs the pipeline
// once so every palette is populated.
func New(id string, opts Options) *Session {
	s := &Session{
		ID:      id,
		Created: time.Now(),
		opts:    opts,
		state:   builder.New(),
		schema:  opts.Schema,
		timers:  make(map[string]*time.Timer),
	}
	if s.schema == nil {
		s.schema = schema.Empty()
	}
	s.pipeline.Metrics = opts.Metrics
	s.templates = templates.Build(s.schema)
	s.pipeline.Run(s.state, s.schema, opts.Limits)
	return s
}

// Apply validates and applies one event, then refreshes the derived
// palettes.
func (s *Session) Apply(ev builder.Event) (builder.Result, error) {
	if err := validate.Struct(ev); err != nil {
		return builder.Result{}, fmt.Errorf("invalid event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.state.Apply(ev, s.opts.DeleteX)
	if err != nil {
		return res, err
	}
	s.opts.Metrics.Mutation(string(ev.Type), res.Applied)

	if ev.Type == builder.EventSelect {
		switch {
		case res.Applied:
			s.scheduleRelease(res.ID)
		case s.state.Elements[ev.ID] == nil:
			// stale palette id
			slog.Warn("session.select.missing", "session", s.ID, "id", ev.ID)
			s.pipeline.Invalidate()
		}
	}
	if ev.Type == builder.EventReset {
		s.stopTimers()
	}
	s.pipeline.Run(s.state, s.schema, s.opts.Limits)
	return res, nil
}

// scheduleRelease clears the animation deltas of id after the configured
// delay. The id may be gone by then; ReleaseAnimation tolerates that.
func (s *Session) scheduleRelease(id string) {
	if s.closed {
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(s.opts.AnimationDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.timers, id)
		s.state.ReleaseAnimation(id)
	})
}

func (s *Session) stopTimers() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// SetSchema installs a new schema, rebuilds the templates and regenerates
// every palette.
func (s *Session) SetSchema(sc *schema.Schema) {
	if sc == nil {
		sc = schema.Empty()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schema = sc
	s.templates = templates.Build(sc)
	s.pipeline.Invalidate()
	s.pipeline.Run(s.state, s.schema, s.opts.Limits)

	sum := sc.Summarize()
	slog.Info("session.schema", "session", s.ID, "labels", sum.Labels,
		"relationships", sum.Relationships, "templates", len(s.templates))
}

// Schema returns the current schema.
func (s *Session) Schema() *schema.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Templates returns the templates of the current schema.
func (s *Session) Templates() []templates.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templates
}

// ApplyTemplate substitutes template i into the query zone.
func (s *Session) ApplyTemplate(i int) (templates.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.templates) {
		return templates.Template{}, fmt.Errorf("template %d: %w", i, ErrNotFound)
	}
	t := s.templates[i]
	s.stopTimers()
	s.state.ReplaceQuery(t.Items, t.Elements)
	s.pipeline.Run(s.state, s.schema, s.opts.Limits)
	s.opts.Metrics.Mutation("apply_template", true)
	return t, nil
}

// Cypher renders the query zone.
func (s *Session) Cypher() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cypher()
}

func (s *Session) cypher() string {
	return cypher.Render(s.state.Containers, s.state.Elements, builder.PaletteCount)
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:      s.ID,
		State:   s.state.Clone(),
		Cypher:  s.cypher(),
		Caption: s.state.Caption,
		Schema:  s.schema.Summarize(),
	}
}

// Close stops pending animation timers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimers()
}
