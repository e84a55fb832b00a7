package source

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/pkg/google"
	"github.com/sells-group/shoe-curation/pkg/rakuten"
	"github.com/sells-group/shoe-curation/pkg/serper"
	"github.com/sells-group/shoe-curation/pkg/youtube"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

type mockYouTube struct {
	mock.Mock
}

func (m *mockYouTube) Search(ctx context.Context, req youtube.SearchRequest) ([]youtube.Video, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]youtube.Video), args.Error(1)
}

func (m *mockYouTube) Video(ctx context.Context, id string) (*youtube.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*youtube.Video), args.Error(1)
}

type mockSerper struct {
	mock.Mock
}

func (m *mockSerper) Search(ctx context.Context, req serper.SearchRequest) (*serper.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serper.SearchResponse), args.Error(1)
}

type mockGoogle struct {
	mock.Mock
}

func (m *mockGoogle) Search(ctx context.Context, req google.SearchRequest) (*google.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*google.SearchResponse), args.Error(1)
}

type mockRakuten struct {
	mock.Mock
}

func (m *mockRakuten) SearchItems(ctx context.Context, req rakuten.SearchRequest) ([]rakuten.Item, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rakuten.Item), args.Error(1)
}
