package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/curation"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/store"
)

type mockAggregator struct{ mock.Mock }

func (m *mockAggregator) Aggregate(ctx context.Context, p aggregate.Params) (*aggregate.Outcome, error) {
	args := m.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*aggregate.Outcome), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAggregator) BreakerStates() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

type mockCurator struct{ mock.Mock }

func (m *mockCurator) Refresh(ctx context.Context, shoeID string, opts curation.RefreshOptions) (*curation.RefreshResult, error) {
	args := m.Called(ctx, shoeID, opts)
	if v := args.Get(0); v != nil {
		return v.(*curation.RefreshResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCurator) CreateManual(ctx context.Context, shoeID string, in curation.ManualInput) (*model.CuratedSource, error) {
	args := m.Called(ctx, shoeID, in)
	if v := args.Get(0); v != nil {
		return v.(*model.CuratedSource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCurator) List(ctx context.Context, shoeID string, typ model.SourceType, limit int) ([]model.CuratedSource, error) {
	args := m.Called(ctx, shoeID, typ, limit)
	if v := args.Get(0); v != nil {
		return v.([]model.CuratedSource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCurator) SetStatus(ctx context.Context, sourceID string, status model.SourceStatus) (*model.CuratedSource, error) {
	args := m.Called(ctx, sourceID, status)
	if v := args.Get(0); v != nil {
		return v.(*model.CuratedSource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCurator) Rescore(ctx context.Context, shoeID string) (*curation.RescoreResult, error) {
	args := m.Called(ctx, shoeID)
	if v := args.Get(0); v != nil {
		return v.(*curation.RescoreResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCurator) Collect(ctx context.Context, in curation.CollectInput) (*curation.CollectResult, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*curation.CollectResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCurator) AttachCurated(ctx context.Context, reviewID string, opts curation.AttachOptions) (*curation.AttachResult, error) {
	args := m.Called(ctx, reviewID, opts)
	if v := args.Get(0); v != nil {
		return v.(*curation.AttachResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSummarizer struct{ mock.Mock }

func (m *mockSummarizer) Summarize(ctx context.Context, reviewID string) (*model.Review, error) {
	args := m.Called(ctx, reviewID)
	if v := args.Get(0); v != nil {
		return v.(*model.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) GetShoe(ctx context.Context, id string) (*model.Shoe, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Shoe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalog) GetReview(ctx context.Context, id string) (*model.Review, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalog) ListAttachedSources(ctx context.Context, reviewID string) ([]model.AttachedSource, error) {
	args := m.Called(ctx, reviewID)
	if v := args.Get(0); v != nil {
		return v.([]model.AttachedSource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalog) ListSources(ctx context.Context, filter store.SourceFilter) ([]model.CuratedSource, error) {
	args := m.Called(ctx, filter)
	if v := args.Get(0); v != nil {
		return v.([]model.CuratedSource), args.Error(1)
	}
	return nil, args.Error(1)
}
