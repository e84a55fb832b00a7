package curation

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/scrape"
	"github.com/sells-group/shoe-curation/internal/store"
)

// scrapeConcurrency bounds article enrichment in AttachCurated.
const scrapeConcurrency = 4

// AttachOptions tunes AttachCurated.
type AttachOptions struct {
	// Limit caps how many curated sources are considered (default 12, max 30).
	Limit int `json:"limit,omitempty"`
	// Enrich scrapes ARTICLE sources so the summarizer sees the full text
	// instead of the stored excerpt.
	Enrich bool `json:"enrich,omitempty"`
}

// AttachResult reports one AttachCurated call.
type AttachResult struct {
	ReviewID    string `json:"reviewId"`
	Attached    int    `json:"attached"`
	Skipped     int    `json:"skipped"`
	Enriched    int    `json:"enriched"`
	SourceCount int    `json:"sourceCount"`
}

// AttachCurated copies the shoe's best published curated sources onto an AI
// summary review, skipping URLs the review already has.
func (s *Service) AttachCurated(ctx context.Context, reviewID string, opts AttachOptions) (*AttachResult, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, eris.Wrap(err, "curation: attach curated")
	}
	if review.Type != model.ReviewAISummary {
		v := &model.ValidationError{}
		v.Add("reviewId", "review %s is not an AI_SUMMARY review", reviewID)
		return nil, v
	}

	sources, err := s.store.ListSources(ctx, store.SourceFilter{
		ShoeID: review.ShoeID,
		Status: model.StatusPublished,
		Limit:  opts.Limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "curation: attach curated")
	}
	existing, err := s.store.ListAttachedSources(ctx, review.ID)
	if err != nil {
		return nil, eris.Wrap(err, "curation: attach curated")
	}
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.URL] = true
	}

	res := &AttachResult{ReviewID: review.ID}
	var pending []model.CuratedSource
	for _, src := range sources {
		if have[src.URL] {
			res.Skipped++
			continue
		}
		pending = append(pending, src)
	}

	articles := s.enrich(ctx, pending, opts.Enrich)
	for _, src := range pending {
		rs := src.ToReviewSource()
		if a, ok := articles[src.URL]; ok {
			rs.Content = a.Content
			rs.Summary = src.Excerpt
			if rs.Author == "" {
				rs.Author = a.Author
			}
			res.Enriched++
		}
		err := s.store.AttachSource(ctx, &model.AttachedSource{ReviewID: review.ID, ReviewSource: rs})
		if errors.Is(err, store.ErrDuplicateSource) {
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, eris.Wrap(err, "curation: attach curated")
		}
		res.Attached++
	}

	updated, err := s.store.GetReview(ctx, review.ID)
	if err != nil {
		return nil, eris.Wrap(err, "curation: attach curated")
	}
	res.SourceCount = updated.SourceCount
	return res, nil
}

func (s *Service) enrich(ctx context.Context, sources []model.CuratedSource, enabled bool) map[string]*scrape.Article {
	if !enabled || s.scraper == nil {
		return nil
	}
	var urls []string
	for _, src := range sources {
		if src.Type == model.SourceArticle {
			urls = append(urls, src.URL)
		}
	}
	if len(urls) == 0 {
		return nil
	}
	return scrape.ScrapeAll(ctx, s.scraper, urls, scrapeConcurrency)
}
