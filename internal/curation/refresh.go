package curation

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
)

// Refresh limits.
const (
	DefaultRefreshResults = 12
	MinRefreshResults     = 3
	MaxRefreshResults     = 20
	// MaxVideoResults caps VIDEO candidates in one refresh.
	MaxVideoResults = 6
	// MaxTags caps the tags stored on a refreshed source.
	MaxTags = 8
)

// refreshTags are appended to every refreshed source after the shoe's own
// brand, model, category and keywords.
var refreshTags = []string{"ランニング", "レビュー"}

// webKinds are the kinds a refresh searches when IncludeWeb is set.
var webKinds = []model.SourceType{
	model.SourceOfficial,
	model.SourceMarketplace,
	model.SourceSNS,
	model.SourceArticle,
	model.SourceCommunity,
}

// RefreshOptions selects what a refresh searches.
type RefreshOptions struct {
	IncludeVideos bool `json:"includeVideos"`
	IncludeWeb    bool `json:"includeWeb"`
	MaxResults    int  `json:"maxResults"`
}

// DefaultRefreshOptions searches everything for 12 results. Request decoders
// start from this value so absent JSON fields keep their defaults.
func DefaultRefreshOptions() RefreshOptions {
	return RefreshOptions{IncludeVideos: true, IncludeWeb: true, MaxResults: DefaultRefreshResults}
}

// Validate fills the default result count and checks its range.
func (o *RefreshOptions) Validate() error {
	var v model.ValidationError
	if o.MaxResults == 0 {
		o.MaxResults = DefaultRefreshResults
	}
	if o.MaxResults < MinRefreshResults || o.MaxResults > MaxRefreshResults {
		v.Add("maxResults", "must be between %d and %d", MinRefreshResults, MaxRefreshResults)
	}
	return v.Err()
}

// Kinds returns the source kinds the options request.
func (o RefreshOptions) Kinds() []model.SourceType {
	var kinds []model.SourceType
	if o.IncludeWeb {
		kinds = append(kinds, webKinds...)
	}
	if o.IncludeVideos {
		kinds = append(kinds, model.SourceVideo)
	}
	return kinds
}

// RefreshResult reports one refresh. Skipped counts candidates already
// stored for the shoe, including ones a concurrent refresh stored first.
type RefreshResult struct {
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Total    int      `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}

// Refresh aggregates fresh candidates for a shoe and stores the ones whose
// URL is not yet curated. Refreshes of the same shoe run one at a time.
func (s *Service) Refresh(ctx context.Context, shoeID string, opts RefreshOptions) (*RefreshResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	shoe, err := s.store.GetShoe(ctx, shoeID)
	if err != nil {
		return nil, eris.Wrap(err, "curation: refresh")
	}

	kinds := opts.Kinds()
	if len(kinds) == 0 {
		return &RefreshResult{}, nil
	}

	unlock := s.locks.Lock(shoe.ID)
	defer unlock()

	log := zap.L().With(zap.String("shoe_id", shoe.ID), zap.String("shoe", shoe.DisplayName()))
	start := time.Now()

	out, err := s.agg.Aggregate(ctx, aggregate.Params{
		Brand:         shoe.Brand,
		ModelName:     shoe.ModelName,
		MaxResults:    opts.MaxResults,
		Sources:       kinds,
		Locale:        shoe.Locale,
		IncludeImages: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "curation: refresh")
	}
	if err := out.Err(); err != nil {
		return nil, err
	}

	candidates := capVideos(out.Data, min(MaxVideoResults, opts.MaxResults))
	res := &RefreshResult{Total: len(candidates), Warnings: out.Warnings}

	existing, err := s.store.ListSourceURLs(ctx, shoe.ID)
	if err != nil {
		return nil, eris.Wrap(err, "curation: refresh")
	}

	fresh := make([]model.CuratedSource, 0, len(candidates))
	for _, c := range candidates {
		if existing[c.URL] {
			continue
		}
		fresh = append(fresh, s.curatedFrom(shoe, c))
	}

	if len(fresh) > 0 {
		res.Created, err = s.store.InsertSources(ctx, fresh)
		if err != nil {
			return nil, eris.Wrap(err, "curation: refresh")
		}
	}
	res.Skipped = res.Total - res.Created

	log.Info("curation: refresh complete",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func capVideos(data []model.RawSource, limit int) []model.RawSource {
	out := make([]model.RawSource, 0, len(data))
	videos := 0
	for _, d := range data {
		if d.SourceType == model.SourceVideo {
			if videos >= limit {
				continue
			}
			videos++
		}
		out = append(out, d)
	}
	return out
}

func (s *Service) curatedFrom(shoe *model.Shoe, raw model.RawSource) model.CuratedSource {
	return model.CuratedSource{
		ShoeID:       shoe.ID,
		Type:         raw.SourceType,
		Platform:     raw.Platform,
		Title:        raw.Title,
		Excerpt:      raw.Excerpt,
		URL:          raw.URL,
		Author:       raw.Author,
		ThumbnailURL: raw.ThumbnailURL,
		Tags:         s.tagsFor(shoe, raw.Title),
		Reliability:  s.policy.Score(raw.SourceType),
		Status:       model.StatusPublished,
		Language:     shoe.Language(),
		Country:      shoe.Region,
		PublishedAt:  raw.PublishedAt,
	}
}

// tagsFor lists the shoe's own terms first and fills the remaining slots
// with nouns from the source title.
func (s *Service) tagsFor(shoe *model.Shoe, title string) []string {
	base := append([]string{shoe.Brand, shoe.ModelName, shoe.Category}, shoe.Keywords...)
	base = append(base, refreshTags...)
	return normalize.MergeTags(MaxTags, base, s.tagger.Nouns(title, MaxTags))
}
