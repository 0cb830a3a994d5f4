// Package client provides a Go client library for the statbot API server.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mnordvik/statbot/pkg/api"
)

// Client communicates with the statbot API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new statbot API client pointing at the given base URL
// (e.g. "http://localhost:7411").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// doRequest builds and executes an HTTP request.
// If body is non-nil it is JSON-encoded and sent as the request body.
func (c *Client) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// doJSON executes a request, checks for a 2xx status, and JSON-decodes
// the response body into target (when target is non-nil).
func (c *Client) doJSON(method, path string, body interface{}, target interface{}) error {
	resp, err := c.doRequest(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// Healthz checks whether the API server is healthy.
func (c *Client) Healthz() error {
	resp, err := c.doRequest(http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("healthz failed (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// CreateSession submits a new question-answering session. The server assigns
// the id and starts the session in the Pending phase; poll GetSession until
// Status.Phase is terminal.
func (c *Client) CreateSession(spec api.SessionSpec) (*api.Session, error) {
	var out api.Session
	body := api.Session{Spec: spec}
	if err := c.doJSON(http.MethodPost, "/api/v1/sessions", &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession retrieves a session by id.
func (c *Client) GetSession(id string) (*api.Session, error) {
	var out api.Session
	if err := c.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns all sessions, newest first. phase optionally filters
// by lifecycle phase; pass "" for everything.
func (c *Client) ListSessions(phase string) ([]api.Session, error) {
	path := "/api/v1/sessions"
	if phase != "" {
		path += "?phase=" + phase
	}
	var out []api.Session
	if err := c.doJSON(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSession removes a session by id.
func (c *Client) DeleteSession(id string) error {
	return c.doJSON(http.MethodDelete, fmt.Sprintf("/api/v1/sessions/%s", id), nil, nil)
}

// WaitForSession polls until the session reaches a terminal phase or the
// timeout elapses.
func (c *Client) WaitForSession(id string, interval, timeout time.Duration) (*api.Session, error) {
	deadline := time.Now().Add(timeout)
	for {
		sess, err := c.GetSession(id)
		if err != nil {
			return nil, err
		}
		if sess.Status.Phase.Terminal() {
			return sess, nil
		}
		if time.Now().After(deadline) {
			return sess, fmt.Errorf("session %s still %s after %s", id, sess.Status.Phase, timeout)
		}
		time.Sleep(interval)
	}
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// Categories returns the spending category aliases the server's tools accept.
func (c *Client) Categories() ([]api.Category, error) {
	var out []api.Category
	if err := c.doJSON(http.MethodGet, "/api/v1/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
