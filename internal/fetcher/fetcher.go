// Package fetcher downloads web pages for the scrapers and feed readers with
// per-host rate limiting, retries and charset decoding.
package fetcher

import (
	"context"
	"fmt"
)

// Page is a fetched document with its body decoded to UTF-8.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Page, error)
}

// StatusError is returned when the remote server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d from %s", e.StatusCode, e.URL)
}
