// Package scrape extracts review articles from web pages.
package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
)

// Article is the structured content pulled from one review page.
type Article struct {
	URL         string
	FinalURL    string
	Title       string
	Author      string
	Content     string
	Markdown    string
	PublishedAt *time.Time
	Metadata    Metadata
	// Strategy names the extraction path that produced Content.
	Strategy string
}

// Metadata holds page-level meta tags.
type Metadata struct {
	Description string
	Keywords    string
	OGImage     string
	SiteName    string
}

// RawSource projects the article into an ARTICLE candidate.
func (a *Article) RawSource() model.RawSource {
	excerpt := a.Metadata.Description
	if excerpt == "" {
		excerpt = a.Content
	}
	platform := a.Metadata.SiteName
	if platform == "" {
		platform = normalize.Host(a.URL)
	}
	return model.RawSource{
		SourceType:   model.SourceArticle,
		Platform:     platform,
		Title:        a.Title,
		Excerpt:      excerpt,
		URL:          a.URL,
		Author:       a.Author,
		PublishedAt:  a.PublishedAt,
		ThumbnailURL: a.Metadata.OGImage,
	}
}

// ReviewSource projects the article into summarizer input.
func (a *Article) ReviewSource() model.ReviewSource {
	return model.ReviewSource{
		Type:    model.SourceArticle,
		Title:   a.Title,
		Content: a.Content,
		Author:  a.Author,
		URL:     a.URL,
		Summary: a.Metadata.Description,
	}
}

// Scraper fetches a single URL and returns its article content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Article, error)
}

// ScrapeError reports a failed fetch or an empty extraction. StatusCode is 0
// when no HTTP response was received.
type ScrapeError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ScrapeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scrape %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }
