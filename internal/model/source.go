package model

import (
	"strings"
	"time"
)

// SourceType is the category of an information source.
type SourceType string

const (
	SourceOfficial    SourceType = "OFFICIAL"
	SourceMarketplace SourceType = "MARKETPLACE"
	SourceSNS         SourceType = "SNS"
	SourceVideo       SourceType = "VIDEO"
	SourceArticle     SourceType = "ARTICLE"
	SourceCommunity   SourceType = "COMMUNITY"
)

// AllSourceTypes returns every known source type in display order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceOfficial,
		SourceMarketplace,
		SourceSNS,
		SourceVideo,
		SourceArticle,
		SourceCommunity,
	}
}

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceOfficial, SourceMarketplace, SourceSNS, SourceVideo, SourceArticle, SourceCommunity:
		return true
	}
	return false
}

// ParseSourceType converts a case-insensitive name into a SourceType.
func ParseSourceType(s string) (SourceType, bool) {
	t := SourceType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// SourceStatus is the publication state of a curated source.
type SourceStatus string

const (
	StatusDraft     SourceStatus = "DRAFT"
	StatusPublished SourceStatus = "PUBLISHED"
	StatusRejected  SourceStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s SourceStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusRejected
}

// RawSource is a candidate source produced by a fetcher. It never outlives
// one aggregation run unless promoted to a CuratedSource.
type RawSource struct {
	SourceType   SourceType `json:"sourceType"`
	Platform     string     `json:"platform"`
	Title        string     `json:"title"`
	Excerpt      string     `json:"excerpt,omitempty"`
	URL          string     `json:"url"`
	Author       string     `json:"author,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
}

// CuratedSource is a persisted information source tied to one shoe.
// Reliability is always derived from Type by the scoring policy.
type CuratedSource struct {
	ID           string       `json:"id"`
	ShoeID       string       `json:"shoeId"`
	Type         SourceType   `json:"type"`
	Platform     string       `json:"platform"`
	Title        string       `json:"title"`
	Excerpt      string       `json:"excerpt,omitempty"`
	URL          string       `json:"url"`
	Author       string       `json:"author,omitempty"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	Tags         []string     `json:"tags"`
	Reliability  float64      `json:"reliability"`
	Status       SourceStatus `json:"status"`
	Language     string       `json:"language"`
	Country      string       `json:"country,omitempty"`
	PublishedAt  *time.Time   `json:"publishedAt,omitempty"`
	ScrapedAt    time.Time    `json:"scrapedAt"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ReviewSource is the summarizer's view of one source.
type ReviewSource struct {
	Type    SourceType `json:"type"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Author  string     `json:"author,omitempty"`
	URL     string     `json:"url"`
	Summary string     `json:"summary,omitempty"`
}

// ToReviewSource projects a curated source into summarizer input.
func (c CuratedSource) ToReviewSource() ReviewSource {
	return ReviewSource{
		Type:    c.Type,
		Title:   c.Title,
		Content: c.Excerpt,
		Author:  c.Author,
		URL:     c.URL,
	}
}

// AttachedSource is a ReviewSource stored against a review.
type AttachedSource struct {
	ID       string `json:"id"`
	ReviewID string `json:"reviewId"`
	ReviewSource
	VideoID   string    `json:"videoId,omitempty"`
	ScrapedAt time.Time `json:"scrapedAt"`
}
