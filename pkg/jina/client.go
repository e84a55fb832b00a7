// Package jina wraps the Jina AI Reader API, which renders a page
// server-side and returns its main content as markdown.
package jina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://r.jina.ai"

// Client reads pages through Jina Reader.
type Client interface {
	Read(ctx context.Context, targetURL string) (*Page, error)
}

// Page is the reader output for one URL.
type Page struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	Content       string `json:"content"`
	PublishedTime string `json:"publishedTime"`
	Usage         struct {
		Tokens int `json:"tokens"`
	} `json:"usage"`
}

type readResponse struct {
	Code int  `json:"code"`
	Data Page `json:"data"`
}

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jina: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the reader endpoint (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTargetSelector limits extraction to elements matching a CSS selector.
func WithTargetSelector(selector string) Option {
	return func(c *httpClient) {
		c.targetSelector = selector
	}
}

type httpClient struct {
	apiKey         string
	baseURL        string
	targetSelector string
	http           *http.Client
}

// NewClient creates a reader client. An empty apiKey uses the anonymous,
// lower rate limit tier.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "jina: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Return-Format", "markdown")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.targetSelector != "" {
		req.Header.Set("X-Target-Selector", c.targetSelector)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "jina: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "jina: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result readResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal response")
	}
	if result.Data.URL == "" {
		result.Data.URL = targetURL
	}
	return &result.Data, nil
}
