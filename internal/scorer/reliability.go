// Package scorer assigns reliability scores to review sources and ranks them.
package scorer

import (
	"sort"
	"time"

	"github.com/sells-group/shoe-curation/internal/model"
)

// Policy maps a source type to a trust weight in [0,1]. Implementations must
// be pure: the same type always yields the same score.
type Policy interface {
	Score(t model.SourceType) float64
}

// DefaultScore applies to types missing from a table.
const DefaultScore = 0.75

// TablePolicy is a fixed lookup table.
type TablePolicy map[model.SourceType]float64

var _ Policy = TablePolicy(nil)

// DefaultPolicy is the editorial ranking of source kinds: brand and retailer
// pages first, social posts and forums last.
var DefaultPolicy = TablePolicy{
	model.SourceOfficial:    0.95,
	model.SourceMarketplace: 0.85,
	model.SourceVideo:       0.80,
	model.SourceArticle:     0.75,
	model.SourceSNS:         0.65,
	model.SourceCommunity:   0.60,
}

// Score returns the table value for t, clamped to [0,1], or DefaultScore.
func (p TablePolicy) Score(t model.SourceType) float64 {
	s, ok := p[t]
	if !ok {
		return DefaultScore
	}
	return min(max(s, 0), 1)
}

// RankRaw sorts sources in place by reliability desc, then published date
// desc. Undated sources sort after dated ones of equal reliability. The sort
// is stable so equal entries keep their merge order.
func RankRaw(sources []model.RawSource, p Policy) {
	sort.SliceStable(sources, func(i, j int) bool {
		return before(p.Score(sources[i].SourceType), p.Score(sources[j].SourceType),
			sources[i].PublishedAt, sources[j].PublishedAt)
	})
}

// RankCurated sorts stored sources by reliability desc, published desc, then
// created desc.
func RankCurated(sources []model.CuratedSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.Reliability != b.Reliability || !sameTime(a.PublishedAt, b.PublishedAt) {
			return before(a.Reliability, b.Reliability, a.PublishedAt, b.PublishedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func before(scoreA, scoreB float64, pubA, pubB *time.Time) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	switch {
	case pubA == nil:
		return false
	case pubB == nil:
		return true
	}
	return pubA.After(*pubB)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
