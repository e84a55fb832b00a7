package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/internal/source"
)

func ts(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func article(url, title string) model.RawSource {
	return model.RawSource{SourceType: model.SourceArticle, Platform: "blog", Title: title, URL: url}
}

var victory = Params{Brand: "Nike", ModelName: "Air Zoom Victory 2", IncludeImages: true}

func TestAggregate_PartialFailure(t *testing.T) {
	video := newMockFetcher(model.SourceVideo)
	video.On("Search", mock.Anything, mock.Anything).
		Return(nil, &source.ProviderError{Kind: model.SourceVideo, Provider: "youtube", StatusCode: 403, Err: errors.New("quota exceeded")})
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.Anything).
		Return([]model.RawSource{article("https://run.example/victory-2", "Victory 2 レビュー")}, nil)

	p := victory
	p.Sources = []model.SourceType{model.SourceVideo, model.SourceArticle}
	out, err := New(Options{}, video, web).Aggregate(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, out.Success)
	require.Len(t, out.Data, 1)
	assert.Equal(t, model.SourceArticle, out.Data[0].SourceType)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "VIDEO: ")
	assert.Contains(t, out.Warnings[0], "quota exceeded")
	assert.Empty(t, out.Errors)
	assert.NoError(t, out.Err())
	require.NotNil(t, out.Stats)
	assert.Equal(t, 1, out.Stats.Total)
}

func TestAggregate_AllFail(t *testing.T) {
	boom := errors.New("connection refused")
	video := newMockFetcher(model.SourceVideo)
	video.On("Search", mock.Anything, mock.Anything).Return(nil, boom)
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("serper: status 500"))

	out, err := New(Options{}, video, web).Aggregate(context.Background(), victory)
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Empty(t, out.Data)
	require.Len(t, out.Errors, 2)
	assert.Equal(t, model.SourceVideo, out.Errors[0].Kind)
	assert.Equal(t, model.SourceArticle, out.Errors[1].Kind)

	var failure *AggregationFailure
	require.True(t, errors.As(out.Err(), &failure))
	assert.Len(t, failure.Errors, 2)
	assert.ErrorIs(t, out.Err(), boom)
	assert.Contains(t, out.Err().Error(), "all 2 source kinds failed")
}

func TestAggregate_DedupesByCanonicalURL(t *testing.T) {
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{
		article("https://run.example/victory-2?utm_source=x", "first"),
		article("https://RUN.example/victory-2/", "second"),
		article("https://other.example/v2", "third"),
	}, nil)
	community := newMockFetcher(model.SourceCommunity)
	community.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{
		{Title: "forum copy", URL: "https://run.example/victory-2#comments"},
	}, nil)

	out, err := New(Options{}, web, community).Aggregate(context.Background(), victory)
	require.NoError(t, err)

	require.Len(t, out.Data, 2)
	urls := map[string]string{}
	for _, s := range out.Data {
		_, dup := urls[s.URL]
		assert.False(t, dup, "duplicate url %s", s.URL)
		urls[s.URL] = s.Title
	}
	assert.Equal(t, "first", urls["https://run.example/victory-2"])
}

func TestAggregate_RanksAndTruncates(t *testing.T) {
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{
		{Title: "old article", URL: "https://a.example/1", PublishedAt: ts("2024-01-01T00:00:00Z")},
		{Title: "new article", URL: "https://a.example/2", PublishedAt: ts("2025-01-01T00:00:00Z")},
		{Title: "undated article", URL: "https://a.example/3"},
	}, nil)
	official := newMockFetcher(model.SourceOfficial)
	official.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{
		{Title: "Nike 公式", URL: "https://nike.com/victory"},
	}, nil)
	sns := newMockFetcher(model.SourceSNS)
	sns.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{
		{Title: "post", URL: "https://x.com/p/1", PublishedAt: ts("2025-06-01T00:00:00Z")},
	}, nil)

	p := victory
	p.MaxResults = 4
	out, err := New(Options{}, web, official, sns).Aggregate(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, out.Data, 4)
	titles := make([]string, len(out.Data))
	for i, s := range out.Data {
		titles[i] = s.Title
	}
	assert.Equal(t, []string{"Nike 公式", "new article", "old article", "undated article"}, titles)
}

func TestAggregate_FiltersToRequestedKinds(t *testing.T) {
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{
		article("https://blog.example/1", "blog"),
		{SourceType: model.SourceSNS, Title: "tweet", URL: "https://x.com/p/1"},
	}, nil)

	p := victory
	p.Sources = []model.SourceType{model.SourceArticle}
	out, err := New(Options{}, web).Aggregate(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, out.Data, 1)
	assert.Equal(t, "blog", out.Data[0].Title)
}

func TestAggregate_ExcludeImages(t *testing.T) {
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.MatchedBy(func(q source.Query) bool { return !q.IncludeImages })).
		Return([]model.RawSource{{Title: "t", URL: "https://a.example/1", ThumbnailURL: "https://a.example/1.jpg"}}, nil)

	p := victory
	p.IncludeImages = false
	out, err := New(Options{}, web).Aggregate(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, out.Data, 1)
	assert.Empty(t, out.Data[0].ThumbnailURL)
	web.AssertExpectations(t)
}

func TestAggregate_TimeoutIsAWarning(t *testing.T) {
	slow := newMockFetcher(model.SourceVideo)
	slow.On("Search", mock.Anything, mock.Anything).Return(func(ctx context.Context) ([]model.RawSource, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil)
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{article("https://a.example/1", "fast")}, nil)

	out, err := New(Options{Timeout: 20 * time.Millisecond}, slow, web).Aggregate(context.Background(), victory)
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Len(t, out.Data, 1)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "timed out")
}

func TestAggregate_PerKindQuery(t *testing.T) {
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, source.Query{
		Brand: "Nike", ModelName: "Air Zoom Victory 2", Locale: "ja-JP", MaxResults: 7, IncludeImages: true,
	}).Return([]model.RawSource{}, nil)
	video := newMockFetcher(model.SourceVideo)
	video.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{}, nil)

	p := victory
	p.Brand = "  Nike "
	p.Locale = "ja-JP"
	p.MaxResults = 10
	out, err := New(Options{}, web, video).Aggregate(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Empty(t, out.Data)
	web.AssertExpectations(t)
}

func TestAggregate_Validation(t *testing.T) {
	agg := New(Options{}, newMockFetcher(model.SourceArticle))

	_, err := agg.Aggregate(context.Background(), Params{ModelName: "Pegasus", Sources: []model.SourceType{"RAKUTEN"}})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	fields := []string{}
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"brand", "sources"}, fields)

	_, err = New(Options{}).Aggregate(context.Background(), victory)
	require.True(t, errors.As(err, &ve))
}

func TestAggregate_UnregisteredKind(t *testing.T) {
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{article("https://a.example/1", "a")}, nil)

	p := victory
	p.Sources = []model.SourceType{model.SourceArticle, model.SourceMarketplace}
	out, err := New(Options{}, web).Aggregate(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, out.Success)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "MARKETPLACE: ")
	assert.ErrorIs(t, out.Results[1].Err, ErrNoFetcher)
}

func TestAggregate_CircuitOpensPerKind(t *testing.T) {
	video := newMockFetcher(model.SourceVideo)
	video.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("youtube down")).Once()
	web := newMockFetcher(model.SourceArticle)
	web.On("Search", mock.Anything, mock.Anything).Return([]model.RawSource{article("https://a.example/1", "a")}, nil)

	breakers := resilience.NewBreakers(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	agg := New(Options{Breakers: breakers}, video, web)

	_, err := agg.Aggregate(context.Background(), victory)
	require.NoError(t, err)
	out, err := agg.Aggregate(context.Background(), victory)
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.ErrorIs(t, out.Results[0].Err, resilience.ErrCircuitOpen)
	assert.Equal(t, "open", agg.BreakerStates()["VIDEO"])
	video.AssertNumberOfCalls(t, "Search", 1)
}

func TestPerKindCap(t *testing.T) {
	tests := []struct {
		max, kinds, want int
	}{
		{30, 6, 7},
		{30, 1, 30},
		{10, 3, 6},
		{5, 2, 5},
		{12, 0, 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PerKindCap(tt.max, tt.kinds), "max=%d kinds=%d", tt.max, tt.kinds)
	}
}

func TestParams_Defaults(t *testing.T) {
	p := Params{Brand: "ASICS", ModelName: "ノヴァブラスト 5", MaxResults: 99}
	require.NoError(t, p.Validate())
	assert.Equal(t, MaxMaxResults, p.MaxResults)
	assert.Equal(t, DefaultLocale, p.Locale)

	p = Params{Brand: "ASICS", ModelName: "Novablast"}
	require.NoError(t, p.Validate())
	assert.Equal(t, DefaultMaxResults, p.MaxResults)
}
