package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *[]time.Duration) {
	t.Helper()
	var delays []time.Duration
	client := New(http.DefaultClient)
	client.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return client, &delays
}

func TestDoJSON_RateLimitedThenSuccess(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, delays := newTestClient(t)

	var out struct {
		OK bool `json:"ok"`
	}
	err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, 3, requests)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestDoJSON_DelayDoublesEachRetry(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 5 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, delays := newTestClient(t)

	err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}, nil)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}, *delays)
}

func TestDoJSON_ExhaustedByRateLimiting(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, delays := newTestClient(t)

	err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}, nil)

	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.NotEmpty(t, err.Error())
	assert.Equal(t, DefaultMaxAttempts, requests)
	// the final rate-limited attempt still waits out its delay
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, *delays)
}

func TestDoJSON_UpstreamErrorRetriedThenPropagated(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"quota exceeded for project"}}`))
	}))
	defer srv.Close()

	client, delays := newTestClient(t)

	err := client.DoJSON(context.Background(), Request{Method: http.MethodPost, URL: srv.URL, Body: []byte(`{}`)}, nil)

	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "quota exceeded for project", statusErr.Message)

	// non-429 failures ride the same backoff until the final attempt, which
	// propagates without sleeping
	assert.Equal(t, DefaultMaxAttempts, requests)
	assert.Len(t, *delays, DefaultMaxAttempts-1)
}

func TestDoJSON_NonJSONErrorBodyFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream is on fire"))
	}))
	defer srv.Close()

	client, _ := newTestClient(t)
	client.MaxAttempts = 1

	err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), statusErr.Message)
}

func TestDoJSON_StringErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad credential"}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t)
	client.MaxAttempts = 1

	err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "bad credential", statusErr.Message)
}

func TestDoJSON_DecodeErrorRetried(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client, _ := newTestClient(t)
	client.MaxAttempts = 2

	var out map[string]any
	err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
	assert.Equal(t, 2, requests)
}

func TestDoJSON_NetworkErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, _ := newTestClient(t)
	client.MaxAttempts = 2

	err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}, nil)
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())
}

func TestDoJSON_CanceledContextStopsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := New(http.DefaultClient)
	client.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := client.DoJSON(ctx, Request{Method: http.MethodGet, URL: srv.URL}, nil)
	require.ErrorIs(t, err, context.Canceled)
}
