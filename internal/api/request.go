package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// APIError represents a failed backend call: a non-2xx status, or a 2xx
// response whose JSON body carries an "error" field.
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// StatusOf returns the HTTP status carried by err, or 0 when none is available.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// MessageOf normalizes err to a human-readable message.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// errorPayload is the error shape returned by the backend.
type errorPayload struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// request describes a single backend call.
type request struct {
	method   string
	path     string
	rawQuery string // already encoded
	body     any    // JSON-encoded when non-nil
	token    string // bearer token
}

// doRequest performs one HTTP request.
func (c *Client) doRequest(ctx context.Context, r request) ([]byte, error) {
	fullURL := c.baseURL + r.path
	if r.rawQuery != "" {
		fullURL += "?" + r.rawQuery
	}

	var reqBody io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("api request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, body)
	}

	if appErr := applicationError(resp.StatusCode, body); appErr != nil {
		return nil, appErr
	}

	return body, nil
}

// newStatusError builds an APIError for a non-2xx response, preferring the
// backend's own message.
func newStatusError(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Body:       body,
	}

	var payload errorPayload
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		}
		apiErr.Errors = payload.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP error! status: %d", status)
	}

	return apiErr
}

// applicationError reports a 2xx JSON object carrying a non-empty "error" field.
func applicationError(status int, body []byte) *APIError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var payload errorPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload.Error == "" {
		return nil
	}

	return &APIError{
		StatusCode: status,
		Message:    payload.Error,
		Errors:     payload.Errors,
		Body:       body,
	}
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, r request) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			var jitter time.Duration
			if backoff > 0 {
				jitter = backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			}
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", r.path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, r)
		if err == nil {
			return body, nil
		}

		lastErr = err

		// Check if error is retryable
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// get performs a GET request, retrying when configured, and decodes the JSON body.
func (c *Client) get(ctx context.Context, r request, result any) error {
	r.method = http.MethodGet
	body, err := c.doWithRetry(ctx, r)
	if err != nil {
		return err
	}
	return decode(body, result)
}

// send performs a single non-idempotent request and decodes the body when result is set.
func (c *Client) send(ctx context.Context, r request, result any) error {
	body, err := c.doRequest(ctx, r)
	if err != nil {
		return err
	}
	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return decode(body, result)
}

func decode(body []byte, result any) error {
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
