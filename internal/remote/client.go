// Package remote implements the typed client for the authoritative
// curation API. Business logic never calls it directly; all traffic
// goes through the sync engine.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultTimeout     = 30 * time.Second
	maxAttempts        = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

// Config holds connection settings for the remote API.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client interfaces with the remote curation API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new remote API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks reachability of the remote API. Used by the
// connectivity prober.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil, nil)
}

// ListEntities fetches one page of entities.
func (c *Client) ListEntities(ctx context.Context, opts ListOptions) (*EntityPage, error) {
	var page EntityPage
	if err := c.doWithRetry(ctx, http.MethodGet, "/api/v1/entities", listQuery(opts), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateEntity uploads a new entity and returns the canonical record.
func (c *Client) CreateEntity(ctx context.Context, entity Entity) (*Entity, error) {
	var canonical Entity
	if err := c.doWithRetry(ctx, http.MethodPost, "/api/v1/entities", nil, entity, &canonical); err != nil {
		return nil, err
	}
	return &canonical, nil
}

// UpdateEntity uploads changed fields and returns the canonical record.
func (c *Client) UpdateEntity(ctx context.Context, entityID string, entity Entity) (*Entity, error) {
	var canonical Entity
	path := "/api/v1/entities/" + url.PathEscape(entityID)
	if err := c.doWithRetry(ctx, http.MethodPut, path, nil, entity, &canonical); err != nil {
		return nil, err
	}
	return &canonical, nil
}

// DeleteEntity removes the entity remotely.
func (c *Client) DeleteEntity(ctx context.Context, entityID string) error {
	path := "/api/v1/entities/" + url.PathEscape(entityID)
	return c.doWithRetry(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListCurations fetches one page of curations.
func (c *Client) ListCurations(ctx context.Context, opts ListOptions) (*CurationPage, error) {
	var page CurationPage
	if err := c.doWithRetry(ctx, http.MethodGet, "/api/v1/curations", listQuery(opts), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateCuration uploads a new curation and returns the canonical record.
func (c *Client) CreateCuration(ctx context.Context, curation Curation) (*Curation, error) {
	var canonical Curation
	if err := c.doWithRetry(ctx, http.MethodPost, "/api/v1/curations", nil, curation, &canonical); err != nil {
		return nil, err
	}
	return &canonical, nil
}

// UpdateCuration uploads changed fields and returns the canonical record.
func (c *Client) UpdateCuration(ctx context.Context, curationID string, curation Curation) (*Curation, error) {
	var canonical Curation
	path := "/api/v1/curations/" + url.PathEscape(curationID)
	if err := c.doWithRetry(ctx, http.MethodPut, path, nil, curation, &canonical); err != nil {
		return nil, err
	}
	return &canonical, nil
}

// DeleteCuration removes the curation remotely.
func (c *Client) DeleteCuration(ctx context.Context, curationID string) error {
	path := "/api/v1/curations/" + url.PathEscape(curationID)
	return c.doWithRetry(ctx, http.MethodDelete, path, nil, nil, nil)
}

func listQuery(opts ListOptions) url.Values {
	q := url.Values{}
	if opts.UpdatedAfter != nil {
		q.Set("updatedAfter", opts.UpdatedAfter.Format(time.RFC3339))
	}
	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	return q
}

// doWithRetry wraps do with bounded exponential backoff. Only rate
// limits and server errors are retried; the sync queue owns all other
// retry policy.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := calculateRetryDelay(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = c.do(ctx, method, path, query, body, out)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		return &ValidationError{StatusCode: resp.StatusCode, Message: msg}
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode}
	case resp.StatusCode >= 300:
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func calculateRetryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
