package source

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/pkg/youtube"
)

const videoProvider = "youtube"

// VideoFetcher searches YouTube for review videos.
type VideoFetcher struct {
	client youtube.Client
	retry  resilience.RetryConfig
}

// NewVideoFetcher creates a VIDEO fetcher.
func NewVideoFetcher(client youtube.Client, retry resilience.RetryConfig) *VideoFetcher {
	return &VideoFetcher{client: client, retry: retry}
}

// Kind implements Fetcher.
func (v *VideoFetcher) Kind() model.SourceType { return model.SourceVideo }

// VideoQueries returns the search strings for q. Japanese locales search
// both the Japanese and English review wording.
func VideoQueries(q Query) []string {
	if q.Language() == "ja" {
		return []string{q.Terms() + " レビュー", q.Terms() + " review"}
	}
	return []string{q.Terms() + " review"}
}

// Search implements Fetcher. Queries run concurrently; the fetcher fails
// only when every query fails.
func (v *VideoFetcher) Search(ctx context.Context, q Query) ([]model.RawSource, error) {
	queries := VideoQueries(q)
	results := make([][]youtube.Video, len(queries))
	errs := make([]error, len(queries))

	var g errgroup.Group
	for i, query := range queries {
		g.Go(func() error {
			results[i], errs[i] = call(ctx, v.retry, model.SourceVideo, videoProvider, func(ctx context.Context) ([]youtube.Video, error) {
				return v.client.Search(ctx, youtube.SearchRequest{
					Query:             query,
					MaxResults:        q.MaxResults,
					RelevanceLanguage: q.Language(),
					RegionCode:        q.Region(),
				})
			})
			return nil
		})
	}
	_ = g.Wait()

	var (
		failed  int
		lastErr error
	)
	for i, err := range errs {
		if err != nil {
			failed++
			lastErr = err
			zap.L().Warn("source: video query failed", zap.String("query", queries[i]), zap.Error(err))
		}
	}
	if failed == len(queries) {
		return nil, lastErr
	}

	seen := make(map[string]bool)
	var out []model.RawSource
	for _, videos := range results {
		for _, vid := range videos {
			if vid.ID == "" || seen[vid.ID] {
				continue
			}
			seen[vid.ID] = true
			out = append(out, videoSource(vid, q.IncludeImages))
		}
	}
	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

func videoSource(vid youtube.Video, images bool) model.RawSource {
	raw := model.RawSource{
		SourceType:  model.SourceVideo,
		Platform:    "YouTube",
		Title:       vid.Title,
		Excerpt:     vid.Description,
		URL:         vid.URL(),
		Author:      vid.ChannelTitle,
		PublishedAt: vid.PublishedAt,
	}
	if images {
		raw.ThumbnailURL = vid.ThumbnailURL
	}
	return raw
}
