// Package rakuten wraps the Rakuten Ichiba item search API.
package rakuten

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

const defaultBaseURL = "https://app.rakuten.co.jp/services/api"

// ShoesGenreID is the Ichiba genre for shoes.
const ShoesGenreID = "216130"

// MaxHits is the largest page size the API accepts.
const MaxHits = 30

// ErrMissingApplicationID is returned when the client has no application ID.
var ErrMissingApplicationID = eris.New("rakuten: application id is not configured")

// Client searches Ichiba items.
type Client interface {
	SearchItems(ctx context.Context, req SearchRequest) ([]Item, error)
}

// SearchRequest is an item search, sorted by review count.
type SearchRequest struct {
	Keyword string
	// Hits is clamped to [1, MaxHits].
	Hits    int
	GenreID string
}

// Item is one Ichiba listing.
type Item struct {
	ItemCode      string  `json:"itemCode"`
	ItemName      string  `json:"itemName"`
	ItemCaption   string  `json:"itemCaption"`
	ItemPrice     int     `json:"itemPrice"`
	ItemURL       string  `json:"itemUrl"`
	AffiliateURL  string  `json:"affiliateUrl"`
	ShopName      string  `json:"shopName"`
	ReviewCount   int     `json:"reviewCount"`
	ReviewAverage float64 `json:"reviewAverage"`
	MediumImages  []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"mediumImageUrls"`
}

// ImageURL returns the first listing image resized to 500px.
func (i Item) ImageURL() string {
	if len(i.MediumImages) == 0 {
		return ""
	}
	return strings.Replace(i.MediumImages[0].ImageURL, "?_ex=128x128", "?_ex=500x500", 1)
}

// LinkURL prefers the affiliate link when one was issued.
func (i Item) LinkURL() string {
	if i.AffiliateURL != "" {
		return i.AffiliateURL
	}
	return i.ItemURL
}

type searchResponse struct {
	Items []struct {
		Item Item `json:"Item"`
	} `json:"Items"`
}

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rakuten: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithAffiliateID attaches an affiliate ID to every search.
func WithAffiliateID(id string) Option {
	return func(c *httpClient) {
		c.affiliateID = id
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	applicationID string
	affiliateID   string
	baseURL       string
	http          *http.Client
}

// NewClient creates an Ichiba client.
func NewClient(applicationID string, opts ...Option) Client {
	c := &httpClient{
		applicationID: applicationID,
		baseURL:       defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchItems(ctx context.Context, sr SearchRequest) ([]Item, error) {
	if c.applicationID == "" {
		return nil, ErrMissingApplicationID
	}
	genre := sr.GenreID
	if genre == "" {
		genre = ShoesGenreID
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("formatVersion", "1")
	q.Set("applicationId", c.applicationID)
	q.Set("keyword", sr.Keyword)
	q.Set("genreId", genre)
	q.Set("hits", strconv.Itoa(min(max(sr.Hits, 1), MaxHits)))
	q.Set("sort", "-reviewCount")
	if c.affiliateID != "" {
		q.Set("affiliateId", c.affiliateID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/IchibaItem/Search/20220601?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "rakuten: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "rakuten: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "rakuten: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "rakuten: unmarshal response")
	}

	items := make([]Item, 0, len(result.Items))
	for _, wrapped := range result.Items {
		items = append(items, wrapped.Item)
	}
	return items, nil
}
