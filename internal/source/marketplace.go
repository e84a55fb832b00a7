package source

import (
	"context"
	"fmt"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/pkg/rakuten"
)

const marketplacePlatform = "楽天市場"

// MarketplaceFetcher lists Rakuten Ichiba items with the most reviews.
// Review bodies are never copied; the excerpt carries rating statistics and
// links back to the listing.
type MarketplaceFetcher struct {
	client rakuten.Client
	retry  resilience.RetryConfig
}

// NewMarketplaceFetcher creates a MARKETPLACE fetcher.
func NewMarketplaceFetcher(client rakuten.Client, retry resilience.RetryConfig) *MarketplaceFetcher {
	return &MarketplaceFetcher{client: client, retry: retry}
}

// Kind implements Fetcher.
func (m *MarketplaceFetcher) Kind() model.SourceType { return model.SourceMarketplace }

// Search implements Fetcher. Listings without reviews are skipped.
func (m *MarketplaceFetcher) Search(ctx context.Context, q Query) ([]model.RawSource, error) {
	items, err := call(ctx, m.retry, model.SourceMarketplace, "rakuten", func(ctx context.Context) ([]rakuten.Item, error) {
		return m.client.SearchItems(ctx, rakuten.SearchRequest{Keyword: q.Terms(), Hits: q.MaxResults})
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.RawSource, 0, len(items))
	for _, it := range items {
		if it.ReviewCount == 0 || it.LinkURL() == "" {
			continue
		}
		raw := model.RawSource{
			SourceType: model.SourceMarketplace,
			Platform:   marketplacePlatform,
			Title:      it.ItemName,
			Excerpt:    RatingExcerpt(it),
			URL:        it.LinkURL(),
			Author:     it.ShopName,
		}
		if q.IncludeImages {
			raw.ThumbnailURL = it.ImageURL()
		}
		out = append(out, raw)
	}
	return out, nil
}

// RatingExcerpt summarizes an item's review statistics.
func RatingExcerpt(it rakuten.Item) string {
	return fmt.Sprintf("レビュー平均 %.2f / %d件 (¥%d, %s)", it.ReviewAverage, it.ReviewCount, it.ItemPrice, it.ShopName)
}
