// Package youtube wraps the parts of the YouTube Data API v3 used to find
// shoe review videos.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// MaxResults is the largest page size the search endpoint accepts.
const MaxResults = 50

// ErrMissingKey is returned when the client has no API key.
var ErrMissingKey = eris.New("youtube: api key is not configured")

// Client searches and looks up videos.
type Client interface {
	Search(ctx context.Context, req SearchRequest) ([]Video, error)
	Video(ctx context.Context, id string) (*Video, error)
}

// SearchRequest is a video search.
type SearchRequest struct {
	Query      string
	MaxResults int
	// RelevanceLanguage biases results, e.g. "ja".
	RelevanceLanguage string
	RegionCode        string
}

// Video is a flattened search or lookup result.
type Video struct {
	ID           string
	Title        string
	Description  string
	ChannelTitle string
	PublishedAt  *time.Time
	ThumbnailURL string
}

// URL returns the watch page for the video.
func (v Video) URL() string {
	return WatchURL(v.ID)
}

// WatchURL builds a watch page URL from a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// ExtractVideoID returns the video ID from watch, short and embed URLs, or
// "" when rawURL is not a YouTube video link.
func ExtractVideoID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				return strings.Split(rest, "/")[0]
			}
		}
	}
	return ""
}

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube: unexpected status %d: %s", e.StatusCode, e.Body)
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
	baseURL string
	http    *http.Client
}

// NewClient creates a YouTube Data API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
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

type thumbnail struct {
	URL string `json:"url"`
}

type snippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   struct {
		Default thumbnail `json:"default"`
		Medium  thumbnail `json:"medium"`
		High    thumbnail `json:"high"`
	} `json:"thumbnails"`
}

func (s snippet) video(id string) Video {
	v := Video{
		ID:           id,
		Title:        s.Title,
		Description:  s.Description,
		ChannelTitle: s.ChannelTitle,
		ThumbnailURL: s.Thumbnails.Medium.URL,
	}
	if v.ThumbnailURL == "" {
		v.ThumbnailURL = s.Thumbnails.Default.URL
	}
	if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
		v.PublishedAt = &t
	}
	return v
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string  `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

func (c *httpClient) Search(ctx context.Context, sr SearchRequest) ([]Video, error) {
	n := sr.MaxResults
	if n <= 0 {
		n = 10
	}
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("order", "relevance")
	q.Set("q", sr.Query)
	q.Set("maxResults", strconv.Itoa(min(n, MaxResults)))
	if sr.RelevanceLanguage != "" {
		q.Set("relevanceLanguage", sr.RelevanceLanguage)
	}
	if sr.RegionCode != "" {
		q.Set("regionCode", sr.RegionCode)
	}

	var resp searchResponse
	if err := c.get(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, item.Snippet.video(item.ID.VideoID))
	}
	return videos, nil
}

func (c *httpClient) Video(ctx context.Context, id string) (*Video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("id", id)

	var resp videosResponse
	if err := c.get(ctx, "/videos", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, eris.Errorf("youtube: video %s not found", id)
	}
	v := resp.Items[0].Snippet.video(resp.Items[0].ID)
	return &v, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.apiKey == "" {
		return ErrMissingKey
	}
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "youtube: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "youtube: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "youtube: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "youtube: unmarshal response")
	}
	return nil
}
