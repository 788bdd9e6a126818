// Package client talks to vibetrack-server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/existflow/vibetrack/internal/model"
)

// TokenFunc returns the current bearer session token, or "" when signed out
type TokenFunc func() string

// Client is the vibetrack-server API client
type Client struct {
	serverURL  string
	token      TokenFunc
	httpClient *http.Client
}

// New creates a client for serverURL. token may be nil for the public
// endpoints only.
func New(serverURL string, token TokenFunc) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ServerURL returns the base URL
func (c *Client) ServerURL() string {
	return c.serverURL
}

// StatusError is a non-2xx response from the server
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

// Unwrap maps the status onto the shared error sentinels
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusUnauthorized:
		return model.ErrUnauthenticated
	case e.Code == http.StatusNotFound:
		return model.ErrNotFound
	case e.Code == http.StatusBadRequest || e.Code == http.StatusUnprocessableEntity:
		return model.ErrInvalid
	case e.Code >= 500:
		return model.ErrUnavailable
	}
	return nil
}

// TransportError means the server could not be reached
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "failed to connect: " + e.Err.Error()
}

// Is lets callers match transport failures as model.ErrUnavailable
func (e *TransportError) Is(target error) bool {
	return target == model.ErrUnavailable
}

func (e *TransportError) Unwrap() error { return e.Err }

// do sends a JSON request and decodes a JSON response into out
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+"/api/v1"+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
