// Package google wraps the Google Custom Search JSON API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// MaxNum is the largest page size the API accepts.
const MaxNum = 10

// Client performs Custom Search queries.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is a single Custom Search query.
type SearchRequest struct {
	Query string
	// Num is clamped to [1, MaxNum].
	Num int
	// Lang restricts results to a language, e.g. "lang_ja".
	Lang string
	// Country biases results, e.g. "countryJP".
	Country string
}

// SearchResponse is the subset of the API response we use.
type SearchResponse struct {
	Items []Item `json:"items"`
}

// Item is one organic result.
type Item struct {
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Snippet     string  `json:"snippet"`
	DisplayLink string  `json:"displayLink"`
	PageMap     PageMap `json:"pagemap"`
}

// PageMap carries structured data Google extracted from the page.
type PageMap struct {
	Metatags []map[string]string    `json:"metatags"`
	CSEImage []struct{ Src string } `json:"cse_image"`
}

// Thumbnail returns the first image Google found for the result.
func (i Item) Thumbnail() string {
	if len(i.PageMap.CSEImage) > 0 {
		return i.PageMap.CSEImage[0].Src
	}
	for _, m := range i.PageMap.Metatags {
		if v := m["og:image"]; v != "" {
			return v
		}
	}
	return ""
}

// PublishedTime returns article:published_time from the page metatags.
func (i Item) PublishedTime() *time.Time {
	for _, m := range i.PageMap.Metatags {
		if v := m["article:published_time"]; v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return &t
			}
		}
	}
	return nil
}

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
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

type httpClient struct {
	apiKey  string
	cx      string
	baseURL string
	http    *http.Client
}

// NewClient creates a Custom Search client for the engine cx.
func NewClient(apiKey, cx string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		cx:      cx,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, sr SearchRequest) (*SearchResponse, error) {
	num := min(max(sr.Num, 1), MaxNum)

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.cx)
	q.Set("q", sr.Query)
	q.Set("num", strconv.Itoa(num))
	if sr.Lang != "" {
		q.Set("lr", sr.Lang)
	}
	if sr.Country != "" {
		q.Set("cr", sr.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}

	return &result, nil
}
