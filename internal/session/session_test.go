package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeText struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   int
	prompts []string
	block   chan struct{}
}

func (f *fakeText) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.text, f.err
}

type fakeImages struct {
	mu    sync.Mutex
	uri   string
	err   error
	calls int
}

func (f *fakeImages) Generate(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.uri, f.err
}

func TestManager_GenerateIdeas(t *testing.T) {
	ctx := context.Background()

	t.Run("empty brief is a validation error with zero network calls", func(t *testing.T) {
		text := &fakeText{}
		m := NewManager(text, &fakeImages{})

		st, err := m.GenerateIdeas(ctx, "   ", 0.5)
		require.NoError(t, err)
		assert.NotEmpty(t, st.Err)
		assert.Zero(t, text.calls)
		assert.False(t, st.LoadingIdeas)
	})

	t.Run("parses concepts and replaces the list", func(t *testing.T) {
		text := &fakeText{text: "1. Alpha\n2. Beta\n3. Gamma"}
		m := NewManager(text, &fakeImages{})

		st, err := m.GenerateIdeas(ctx, "sell more bicycles", 0.9)
		require.NoError(t, err)
		require.Len(t, st.Concepts, 3)
		assert.Equal(t, "Alpha", st.Concepts[0].Text)
		assert.Equal(t, "sell more bicycles", st.Brief)
		assert.Equal(t, 0.9, st.Creativity)
		assert.Empty(t, st.Err)
		assert.False(t, st.LoadingIdeas)

		st, err = m.GenerateIdeas(ctx, "sell fewer bicycles", 0.1)
		require.NoError(t, err)
		require.Len(t, st.Concepts, 3)
		assert.Equal(t, "sell fewer bicycles", st.Brief)
	})

	t.Run("creativity is clamped and steers the prompt", func(t *testing.T) {
		text := &fakeText{text: "1. A"}
		m := NewManager(text, &fakeImages{})

		st, err := m.GenerateIdeas(ctx, "brief", 7)
		require.NoError(t, err)
		assert.Equal(t, 1.0, st.Creativity)
		require.Len(t, text.prompts, 1)
		assert.Contains(t, text.prompts[0], "brief")
		assert.Contains(t, text.prompts[0], "numbered list")
	})

	t.Run("failure keeps previous concepts and records the error", func(t *testing.T) {
		text := &fakeText{text: "1. Alpha\n2. Beta"}
		m := NewManager(text, &fakeImages{})

		_, err := m.GenerateIdeas(ctx, "first brief", 0.5)
		require.NoError(t, err)

		text.err = errors.New("upstream exploded")
		st, err := m.GenerateIdeas(ctx, "second brief", 0.5)
		require.NoError(t, err)
		assert.Equal(t, "upstream exploded", st.Err)
		require.Len(t, st.Concepts, 2)
		assert.Equal(t, "Alpha", st.Concepts[0].Text)
	})

	t.Run("second concurrent request is rejected busy", func(t *testing.T) {
		text := &fakeText{text: "1. Alpha", block: make(chan struct{})}
		m := NewManager(text, &fakeImages{})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := m.GenerateIdeas(ctx, "brief", 0.5)
			assert.NoError(t, err)
		}()

		require.Eventually(t, func() bool {
			return m.Snapshot().LoadingIdeas
		}, 2*time.Second, 10*time.Millisecond)

		_, err := m.GenerateIdeas(ctx, "another brief", 0.5)
		assert.ErrorIs(t, err, ErrBusy)

		close(text.block)
		<-done
	})
}

func TestManager_Visualize(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, images *fakeImages) *Manager {
		t.Helper()
		m := NewManager(&fakeText{text: "1. Alpha\n2. Beta"}, images)
		_, err := m.GenerateIdeas(ctx, "brief", 0.5)
		require.NoError(t, err)
		return m
	}

	t.Run("sets only the target concept's image", func(t *testing.T) {
		images := &fakeImages{uri: "data:image/png;base64,QUJD"}
		m := seed(t, images)
		target := m.Snapshot().Concepts[1]

		st, err := m.Visualize(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,QUJD", st.Concepts[1].ImageURL)
		assert.Empty(t, st.Concepts[0].ImageURL)
		assert.Empty(t, st.VisualizingID)
		assert.Equal(t, 1, images.calls)
	})

	t.Run("unknown concept is a validation error without a call", func(t *testing.T) {
		images := &fakeImages{uri: "data:image/png;base64,QUJD"}
		m := seed(t, images)

		st, err := m.Visualize(ctx, "nope")
		require.NoError(t, err)
		assert.NotEmpty(t, st.Err)
		assert.Zero(t, images.calls)
	})

	t.Run("failure records the error and mutates nothing", func(t *testing.T) {
		images := &fakeImages{err: errors.New("no capacity")}
		m := seed(t, images)
		target := m.Snapshot().Concepts[0]

		st, err := m.Visualize(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, "no capacity", st.Err)
		assert.Empty(t, st.Concepts[0].ImageURL)
		assert.Empty(t, st.VisualizingID)
	})
}

func TestManager_DismissError(t *testing.T) {
	m := NewManager(&fakeText{text: "1. Alpha"}, &fakeImages{})
	_, err := m.GenerateIdeas(context.Background(), "brief", 0.5)
	require.NoError(t, err)

	_, err = m.GenerateIdeas(context.Background(), "", 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, m.Snapshot().Err)

	st := m.DismissError()
	assert.Empty(t, st.Err)
	assert.Len(t, st.Concepts, 1)
}

func TestIdeasPrompt(t *testing.T) {
	low := IdeasPrompt("brief", 0.1)
	high := IdeasPrompt("brief", 0.9)
	assert.NotEqual(t, low, high)
	assert.True(t, strings.Contains(low, "brief"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&fakeText{text: "1. A"}, &fakeImages{})

	a := r.Get("a")
	assert.Same(t, a, r.Get("a"))
	assert.NotSame(t, a, r.Get("b"))
}
