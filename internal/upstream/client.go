// Package upstream is the HTTP client for the game server that owns the
// actual guessing logic. This app never interprets game state beyond a few
// cached fields; everything else is relayed verbatim.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no game server base URL was configured.
// Checked eagerly, before any network attempt.
var ErrNotConfigured = errors.New("Game server is not configured.")

// Error wraps any transport failure, non-2xx status, or undecodable body
// from the game server. Callers surface Details to the user unchanged.
type Error struct {
	Details string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream game server request failed: %s", e.Details)
}

// ErrorPayload maps a client error to the wire shape the browser expects.
func ErrorPayload(err error) map[string]any {
	if errors.Is(err, ErrNotConfigured) {
		return map[string]any{"error": ErrNotConfigured.Error()}
	}
	var ue *Error
	if errors.As(err, &ue) {
		return map[string]any{
			"error":   "Upstream game server request failed",
			"details": ue.Details,
		}
	}
	return map[string]any{
		"error":   "Upstream game server request failed",
		"details": err.Error(),
	}
}

type Client struct {
	base string
	http *http.Client
}

// New returns a client for the given base URL. base may be empty; calls then
// short-circuit with ErrNotConfigured. The upstream has no hard latency bound,
// so the transport carries an explicit timeout rather than waiting forever.
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Get issues a GET against base+path and decodes the JSON body.
func (c *Client) Get(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON-encoded body. A nil body sends an empty
// JSON object, which the game server accepts on its bodyless endpoints.
func (c *Client) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	if body == nil {
		body = map[string]any{}
	}
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	if c.base == "" {
		return nil, ErrNotConfigured
	}

	url := c.base + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Details: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Details: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Details: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details := fmt.Sprintf("%s %s returned status %d", method, path, resp.StatusCode)
		if len(raw) > 0 {
			details = fmt.Sprintf("%s: %s", details, strings.TrimSpace(string(raw)))
		}
		return nil, &Error{Details: details}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Details: fmt.Sprintf("invalid JSON from %s %s: %v", method, path, err)}
	}
	return payload, nil
}
