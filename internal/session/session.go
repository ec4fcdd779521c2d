package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/briefspark/briefspark/internal/concept"
	"github.com/briefspark/briefspark/internal/log"
	"github.com/samber/lo"
)

// ErrBusy means a request of the same kind is already in flight for this
// session.
var ErrBusy = errors.New("a request of this kind is already in flight")

// TextGenerator produces the raw concept-list text for a prompt.
type TextGenerator interface {
	Generate(context.Context, string) (string, error)
}

// ImageGenerator produces a data URI image for a prompt.
type ImageGenerator interface {
	Generate(context.Context, string) (string, error)
}

// State is one snapshot of a studio session. Transitions never mutate a
// snapshot in place; each action replaces the manager's current snapshot
// with a fresh one.
type State struct {
	Brief         string            `json:"brief"`
	Creativity    float64           `json:"creativity"`
	Concepts      []concept.Concept `json:"concepts"`
	LoadingIdeas  bool              `json:"loadingIdeas"`
	VisualizingID string            `json:"visualizingId,omitempty"`
	Err           string            `json:"error,omitempty"`
}

// Manager owns one session's state and enforces the single-in-flight
// invariant: at most one ideas request and at most one visualize request at
// a time. The slots are the LoadingIdeas and VisualizingID fields checked
// and flipped under the mutex, not a UI nicety.
type Manager struct {
	text   TextGenerator
	images ImageGenerator

	mu    sync.Mutex
	state State
}

func NewManager(text TextGenerator, images ImageGenerator) *Manager {
	return &Manager{text: text, images: images, state: State{Creativity: 0.5}}
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// GenerateIdeas runs the brief through the text generator and replaces the
// concept list wholesale. A blank brief is a validation error recorded
// without any network call. Terminal errors are recorded without clearing
// previously generated concepts.
func (m *Manager) GenerateIdeas(ctx context.Context, brief string, creativity float64) (State, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("session")

	brief = strings.TrimSpace(brief)
	creativity = clamp(creativity)

	m.mu.Lock()
	if brief == "" {
		m.state = withError(m.state, "Please enter a creative brief first.")
		st := m.state
		m.mu.Unlock()
		logger.Warn("rejected empty brief")
		return st, nil
	}
	if m.state.LoadingIdeas {
		st := m.state
		m.mu.Unlock()
		return st, ErrBusy
	}
	next := m.state
	next.Brief = brief
	next.Creativity = creativity
	next.LoadingIdeas = true
	next.Err = ""
	m.state = next
	m.mu.Unlock()

	text, err := m.text.Generate(ctx, IdeasPrompt(brief, creativity))

	m.mu.Lock()
	defer m.mu.Unlock()
	next = m.state
	next.LoadingIdeas = false
	if err != nil {
		logger.Error("idea generation failed", "err", err)
		next.Err = err.Error()
		m.state = next
		return next, nil
	}
	next.Concepts = concept.ParseList(text)
	m.state = next
	logger.Info("generated concepts", "count", len(next.Concepts))
	return next, nil
}

// Visualize generates an image for one concept and sets only that concept's
// ImageURL. The concept list is copied, never mutated in place.
func (m *Manager) Visualize(ctx context.Context, id string) (State, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("session").With("concept", id)

	m.mu.Lock()
	target, found := lo.Find(m.state.Concepts, func(c concept.Concept) bool { return c.ID == id })
	if !found {
		m.state = withError(m.state, "That concept no longer exists.")
		st := m.state
		m.mu.Unlock()
		logger.Warn("rejected unknown concept")
		return st, nil
	}
	if m.state.VisualizingID != "" {
		st := m.state
		m.mu.Unlock()
		return st, ErrBusy
	}
	next := m.state
	next.VisualizingID = id
	next.Err = ""
	m.state = next
	m.mu.Unlock()

	uri, err := m.images.Generate(ctx, ImagePrompt(target.Text))

	m.mu.Lock()
	defer m.mu.Unlock()
	next = m.state
	next.VisualizingID = ""
	if err != nil {
		logger.Error("visualization failed", "err", err)
		next.Err = err.Error()
		m.state = next
		return next, nil
	}
	next.Concepts = lo.Map(next.Concepts, func(c concept.Concept, _ int) concept.Concept {
		if c.ID == id {
			c.ImageURL = uri
		}
		return c
	})
	m.state = next
	logger.Info("visualized concept")
	return next, nil
}

// DismissError clears the recorded error and nothing else.
func (m *Manager) DismissError() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = withError(m.state, "")
	return m.state
}

func withError(st State, message string) State {
	st.Err = message
	return st
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Registry hands out one Manager per session id, creating on first use.
// Sessions live only as long as the process.
type Registry struct {
	text   TextGenerator
	images ImageGenerator

	mu       sync.Mutex
	sessions map[string]*Manager
}

func NewRegistry(text TextGenerator, images ImageGenerator) *Registry {
	return &Registry{
		text:     text,
		images:   images,
		sessions: make(map[string]*Manager),
	}
}

func (r *Registry) Get(id string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.sessions[id]; ok {
		return m
	}
	m := NewManager(r.text, r.images)
	r.sessions[id] = m
	return m
}
