package scrape

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/shoe-curation/internal/normalize"
	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/pkg/jina"
)

// ReaderScraper extracts articles through the Jina Reader API. It renders
// pages server-side, so it reaches content that a plain GET does not.
type ReaderScraper struct {
	client  jina.Client
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

var _ Scraper = (*ReaderScraper)(nil)

// NewReaderScraper wraps client with retries and a circuit breaker named
// "jina". A nil breaker gets the default thresholds.
func NewReaderScraper(client jina.Client, retry resilience.RetryConfig, breaker *resilience.CircuitBreaker) *ReaderScraper {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("jina", resilience.DefaultCircuitBreakerConfig())
	}
	retry.OnRetry = resilience.RetryLogger("jina", "read")
	return &ReaderScraper{client: client, retry: retry, breaker: breaker}
}

// Scrape reads rawURL through the reader. Failures return *ScrapeError.
func (r *ReaderScraper) Scrape(ctx context.Context, rawURL string) (*Article, error) {
	page, err := resilience.Call(ctx, r.breaker, func(ctx context.Context) (*jina.Page, error) {
		return resilience.Do(ctx, r.retry, func(ctx context.Context) (*jina.Page, error) {
			p, err := r.client.Read(ctx, rawURL)
			var apiErr *jina.APIError
			if errors.As(err, &apiErr) {
				return nil, resilience.ClassifyStatus(err, apiErr.StatusCode)
			}
			return p, err
		})
	})
	if err != nil {
		se := &ScrapeError{URL: rawURL, Err: err}
		var apiErr *jina.APIError
		if errors.As(err, &apiErr) {
			se.StatusCode = apiErr.StatusCode
		}
		return nil, se
	}

	content := normalize.Plain(page.Content)
	if strings.TrimSpace(content) == "" {
		return nil, &ScrapeError{URL: rawURL, Err: ErrEmptyExtraction}
	}

	a := &Article{
		URL:         rawURL,
		FinalURL:    page.URL,
		Title:       normalize.Text(page.Title),
		Content:     normalize.Clamp(content, MaxContentRunes),
		Markdown:    page.Content,
		PublishedAt: parsePublished(page.PublishedTime),
		Metadata:    Metadata{Description: normalize.Text(page.Description)},
		Strategy:    "reader",
	}
	if a.Title == "" {
		a.Title = untitled
	}
	return a, nil
}
