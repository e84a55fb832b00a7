package aggregate

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/source"
)

type mockFetcher struct {
	mock.Mock
	kind model.SourceType
}

func newMockFetcher(kind model.SourceType) *mockFetcher {
	return &mockFetcher{kind: kind}
}

func (m *mockFetcher) Kind() model.SourceType { return m.kind }

func (m *mockFetcher) Search(ctx context.Context, q source.Query) ([]model.RawSource, error) {
	args := m.Called(ctx, q)
	if fn, ok := args.Get(0).(func(context.Context) ([]model.RawSource, error)); ok {
		return fn(ctx)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawSource), args.Error(1)
}
