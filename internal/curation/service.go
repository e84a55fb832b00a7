// Package curation turns aggregated candidates into stored curated sources
// and feeds stored or scraped sources into a shoe's AI summary review.
package curation

import (
	"context"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/normalize"
	"github.com/sells-group/shoe-curation/internal/scorer"
	"github.com/sells-group/shoe-curation/internal/scrape"
	"github.com/sells-group/shoe-curation/internal/store"
	"github.com/sells-group/shoe-curation/pkg/youtube"
)

// Aggregator is the part of *aggregate.Aggregator the service needs.
type Aggregator interface {
	Aggregate(ctx context.Context, p aggregate.Params) (*aggregate.Outcome, error)
}

var _ Aggregator = (*aggregate.Aggregator)(nil)

// Service coordinates refresh, manual entry and review collection for shoes.
type Service struct {
	store   store.Store
	agg     Aggregator
	scraper scrape.Scraper
	videos  youtube.Client
	tagger  *normalize.Tagger
	policy  scorer.Policy
	locks   *keyedMutex
}

// New creates a Service. scraper and videos may be nil when collection is
// not used; tagger may be nil to skip title noun tags; a nil policy uses
// scorer.DefaultPolicy.
func New(
	st store.Store,
	agg Aggregator,
	scraper scrape.Scraper,
	videos youtube.Client,
	tagger *normalize.Tagger,
	policy scorer.Policy,
) *Service {
	if policy == nil {
		policy = scorer.DefaultPolicy
	}
	return &Service{
		store:   st,
		agg:     agg,
		scraper: scraper,
		videos:  videos,
		tagger:  tagger,
		policy:  policy,
		locks:   newKeyedMutex(),
	}
}
