package curation

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/scrape"
	"github.com/sells-group/shoe-curation/pkg/youtube"
)

type mockAggregator struct{ mock.Mock }

func (m *mockAggregator) Aggregate(ctx context.Context, p aggregate.Params) (*aggregate.Outcome, error) {
	args := m.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*aggregate.Outcome), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockScraper struct{ mock.Mock }

func (m *mockScraper) Scrape(ctx context.Context, url string) (*scrape.Article, error) {
	args := m.Called(ctx, url)
	if v := args.Get(0); v != nil {
		return v.(*scrape.Article), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVideos struct{ mock.Mock }

func (m *mockVideos) Search(ctx context.Context, req youtube.SearchRequest) ([]youtube.Video, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.([]youtube.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVideos) Video(ctx context.Context, id string) (*youtube.Video, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*youtube.Video), args.Error(1)
	}
	return nil, args.Error(1)
}
