package curation

import (
	"context"
	"errors"
	"net/url"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
	"github.com/sells-group/shoe-curation/internal/store"
)

// Manual input limits, in runes.
const (
	MinTitleRunes   = 2
	MaxTitleRunes   = 200
	MaxExcerptRunes = 2000
	MaxAuthorRunes  = 120
	// maxManualTags bounds caller supplied tags.
	maxManualTags = 20
)

// ManualInput is an admin-entered curated source. It has no reliability
// field: reliability always comes from the scoring policy.
type ManualInput struct {
	Title        string           `json:"title"`
	URL          string           `json:"url"`
	Type         model.SourceType `json:"type"`
	Platform     string           `json:"platform,omitempty"`
	Excerpt      string           `json:"excerpt,omitempty"`
	Author       string           `json:"author,omitempty"`
	PublishedAt  *model.Date      `json:"publishedAt,omitempty"`
	ThumbnailURL string           `json:"thumbnailUrl,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
}

// Validate normalizes text fields and reports every failed constraint.
func (in *ManualInput) Validate() error {
	var v model.ValidationError
	in.Title = normalize.Text(in.Title)
	in.Platform = normalize.Text(in.Platform)
	in.Author = normalize.Text(in.Author)

	if n := utf8.RuneCountInString(in.Title); n < MinTitleRunes || n > MaxTitleRunes {
		v.Add("title", "must be %d-%d characters", MinTitleRunes, MaxTitleRunes)
	}
	if !isHTTPURL(in.URL) {
		v.Add("url", "must be an absolute http(s) URL")
	}
	if !in.Type.Valid() {
		v.Add("type", "must be one of %v", model.AllSourceTypes())
	}
	if utf8.RuneCountInString(in.Excerpt) > MaxExcerptRunes {
		v.Add("excerpt", "must be at most %d characters", MaxExcerptRunes)
	}
	if utf8.RuneCountInString(in.Author) > MaxAuthorRunes {
		v.Add("author", "must be at most %d characters", MaxAuthorRunes)
	}
	if in.ThumbnailURL != "" && !isHTTPURL(in.ThumbnailURL) {
		v.Add("thumbnailUrl", "must be an absolute http(s) URL")
	}
	return v.Err()
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// CreateManual stores one admin-entered source for a shoe. A URL already
// curated for the shoe is a validation error.
func (s *Service) CreateManual(ctx context.Context, shoeID string, in ManualInput) (*model.CuratedSource, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	shoe, err := s.store.GetShoe(ctx, shoeID)
	if err != nil {
		return nil, eris.Wrap(err, "curation: create manual source")
	}

	src := &model.CuratedSource{
		ShoeID:       shoe.ID,
		Type:         in.Type,
		Platform:     in.Platform,
		Title:        in.Title,
		Excerpt:      normalize.Text(in.Excerpt),
		URL:          normalize.CanonicalURL(in.URL),
		Author:       in.Author,
		ThumbnailURL: in.ThumbnailURL,
		Tags:         normalize.MergeTags(maxManualTags, in.Tags),
		Reliability:  s.policy.Score(in.Type),
		Status:       model.StatusPublished,
		Language:     shoe.Language(),
		Country:      shoe.Region,
		PublishedAt:  in.PublishedAt.Time(),
	}
	if src.Platform == "" {
		src.Platform = normalize.Host(src.URL)
	}

	if err := s.store.CreateSource(ctx, src); err != nil {
		if errors.Is(err, store.ErrDuplicateSource) {
			v := &model.ValidationError{}
			v.Add("url", "is already curated for this shoe")
			return nil, v
		}
		return nil, eris.Wrap(err, "curation: create manual source")
	}
	return src, nil
}

// List returns a shoe's published sources, best first.
func (s *Service) List(ctx context.Context, shoeID string, typ model.SourceType, limit int) ([]model.CuratedSource, error) {
	if typ != "" && !typ.Valid() {
		v := &model.ValidationError{}
		v.Add("type", "unknown source kind %q", typ)
		return nil, v
	}
	out, err := s.store.ListSources(ctx, store.SourceFilter{
		ShoeID: shoeID,
		Type:   typ,
		Status: model.StatusPublished,
		Limit:  limit,
	})
	return out, eris.Wrap(err, "curation: list sources")
}

// SetStatus moves a source between DRAFT, PUBLISHED and REJECTED.
func (s *Service) SetStatus(ctx context.Context, sourceID string, status model.SourceStatus) (*model.CuratedSource, error) {
	if !status.Valid() {
		v := &model.ValidationError{}
		v.Add("status", "must be DRAFT, PUBLISHED or REJECTED")
		return nil, v
	}
	src, err := s.store.UpdateSourceStatus(ctx, sourceID, status)
	return src, eris.Wrap(err, "curation: set status")
}

// RescoreResult counts rows whose reliability changed, per kind.
type RescoreResult struct {
	Updated int                      `json:"updated"`
	ByType  map[model.SourceType]int `json:"byType"`
}

// Rescore rewrites stored reliability to the current policy. An empty
// shoeID rescores every shoe.
func (s *Service) Rescore(ctx context.Context, shoeID string) (*RescoreResult, error) {
	res := &RescoreResult{ByType: make(map[model.SourceType]int)}
	for _, t := range model.AllSourceTypes() {
		n, err := s.store.UpdateReliability(ctx, shoeID, t, s.policy.Score(t))
		if err != nil {
			return nil, eris.Wrap(err, "curation: rescore")
		}
		if n > 0 {
			res.ByType[t] = n
			res.Updated += n
		}
	}
	return res, nil
}
