// Package client is a Go client for the coach REST API and its event stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"ai-market-coach/coach"
	models "ai-market-coach/database/models_pkg"
)

// DefaultBaseURL is used when COACH_API_URL is not set
const DefaultBaseURL = "http://localhost:8000"

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"kind"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d, %s): %s", e.Status, e.Kind, e.Message)
}

// SessionList is the response of the sessions endpoint
type SessionList struct {
	Sessions []models.Session `json:"sessions"`
	Count    int              `json:"count"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// Client calls the coach API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for baseURL; empty means DefaultBaseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// analysis waits on the market provider and the LLM
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze runs one analysis
func (c *Client) Analyze(ctx context.Context, req coach.Request) (*coach.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	var result coach.Result
	if err := c.do(ctx, http.MethodPost, "/api/analyze", bytes.NewReader(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Sessions lists stored sessions, newest first. An empty ticker lists all.
func (c *Client) Sessions(ctx context.Context, ticker string, limit, offset int) (*SessionList, error) {
	q := url.Values{}
	if ticker != "" {
		q.Set("ticker", ticker)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}

	path := "/api/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list SessionList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Session fetches one session by id
func (c *Client) Session(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Chart downloads the PNG price chart
func (c *Client) Chart(ctx context.Context, req coach.Request) ([]byte, error) {
	q := url.Values{}
	q.Set("ticker", req.Ticker)
	if req.Period != "" {
		q.Set("period", req.Period)
	}
	if req.Interval != "" {
		q.Set("interval", req.Interval)
	}

	resp, err := c.send(ctx, http.MethodGet, "/api/chart?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read chart")
	}
	return png, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, dest interface{}) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrapf(err, "decode %s response", path)
	}
	return nil
}

// send performs the request and turns non-2xx responses into *APIError
func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return nil, apiErr
	}
	return resp, nil
}
