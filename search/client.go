package search

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

	"buyersdesk/query"

	"go.uber.org/zap"
)

// SearchPath is the listing search endpoint relative to the API base URL.
const SearchPath = "/api/listings/search"

// ErrNetwork matches every NetworkError.
var ErrNetwork = errors.New("search: search failed")

// NetworkError is a failed search request: either the transport failed
// (Err set) or the server answered with a non-2xx status.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search: request failed: %v", e.Err)
	}
	return fmt.Sprintf("search: unexpected status %d", e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Client fetches result pages from the search endpoint. Every Fetch is one
// HTTP request; callers debounce.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     zap.NewNop(),
	}
}

func (c *Client) WithLogger(logger *zap.Logger) *Client {
	c.logger = logger
	return c
}

func (c *Client) Fetch(ctx context.Context, s query.State) (query.ResultPage, error) {
	body, err := json.Marshal(NewRequest(s))
	if err != nil {
		return query.ResultPage{}, fmt.Errorf("search: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SearchPath, bytes.NewReader(body))
	if err != nil {
		return query.ResultPage{}, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return query.ResultPage{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("search request rejected",
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(started)))
		return query.ResultPage{}, &NetworkError{StatusCode: resp.StatusCode}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return query.ResultPage{}, &NetworkError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.Debug("search request done",
		zap.String("text", s.SearchText),
		zap.Int("results", len(out.Results)),
		zap.Duration("elapsed", time.Since(started)))
	return out.Page(), nil
}
