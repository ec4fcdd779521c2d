package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/briefspark/briefspark/internal/log"
)

const (
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = time.Second
)

// ErrRetriesExhausted is returned when the retry budget runs out without a
// concrete upstream error to report, which happens when every attempt was
// rate limited.
var ErrRetriesExhausted = errors.New("request failed after multiple retries")

// StatusError is a non-2xx response translated into an error. Message holds
// the message dug out of the error body when one could be extracted,
// otherwise the HTTP status text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Client wraps an *http.Client with JSON decoding and retry-with-backoff.
// Every failed attempt waits out the current delay before the next try; the
// delay starts at InitialDelay and doubles each time, uncapped. A 429 keeps
// retrying to the end of the budget; any other failure on the final attempt
// propagates as-is. Each call starts its own delay counter.
type Client struct {
	HTTPClient   *http.Client
	MaxAttempts  int
	InitialDelay time.Duration

	sleep func(context.Context, time.Duration) error
}

func New(client *http.Client) *Client {
	return &Client{
		HTTPClient:   client,
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
	}
}

// DoJSON issues req until it succeeds or the retry budget is spent, decoding
// the success body into out when out is non-nil.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	logger := log.FromContextOrDiscard(ctx).WithGroup("fetch").With("method", req.Method, "url", req.URL)

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := c.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}

	for attempt := 0; attempt < attempts; attempt++ {
		rateLimited, err := c.attempt(ctx, req, out)
		if err == nil {
			return nil
		}
		logger.Warn("request attempt failed", "attempt", attempt+1, "rate_limited", rateLimited, "err", err)

		if !rateLimited && attempt == attempts-1 {
			return err
		}
		// a rate-limited final attempt still waits out its delay before the
		// budget check ends the loop
		if err := c.wait(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}
	return ErrRetriesExhausted
}

func (c *Client) attempt(ctx context.Context, req Request, out any) (bool, error) {
	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return false, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	if len(req.Body) > 0 && hr.Header.Get("Content-Type") == "" {
		hr.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(hr)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return false, &StatusError{Code: resp.StatusCode, Message: errorMessage(body, resp)}
	}
	if out == nil {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}
	return false, nil
}

// errorMessage digs the human-readable message out of an error body shaped
// like {"error":{"message":...}} or {"error":...}, falling back to the HTTP
// status text for anything unparseable.
func errorMessage(body []byte, resp *http.Response) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
		var msg string
		if err := json.Unmarshal(payload.Error, &msg); err == nil && msg != "" {
			return msg
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
