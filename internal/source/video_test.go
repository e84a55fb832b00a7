package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/pkg/youtube"
)

func byQuery(query string) interface{} {
	return mock.MatchedBy(func(r youtube.SearchRequest) bool { return r.Query == query })
}

func TestVideoFetcher_MergesBothQueries(t *testing.T) {
	published := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	yt := new(mockYouTube)
	yt.On("Search", mock.Anything, byQuery("Nike Pegasus 41 レビュー")).Return([]youtube.Video{
		{ID: "a", Title: "ペガサス41 レビュー", ChannelTitle: "ランチャンネル", ThumbnailURL: "https://i.ytimg.com/a.jpg", PublishedAt: &published},
		{ID: "b", Title: "ペガサス41 1000km"},
	}, nil)
	yt.On("Search", mock.Anything, byQuery("Nike Pegasus 41 review")).Return([]youtube.Video{
		{ID: "b", Title: "dupe"},
		{ID: "c", Title: "Pegasus 41 review"},
	}, nil)

	q := pegasus
	q.MaxResults = 10
	got, err := NewVideoFetcher(yt, fastRetry()).Search(context.Background(), q)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.SourceVideo, got[0].SourceType)
	assert.Equal(t, "YouTube", got[0].Platform)
	assert.Equal(t, "https://www.youtube.com/watch?v=a", got[0].URL)
	assert.Equal(t, "ランチャンネル", got[0].Author)
	assert.Equal(t, "https://i.ytimg.com/a.jpg", got[0].ThumbnailURL)
	assert.Equal(t, &published, got[0].PublishedAt)

	urls := []string{got[0].URL, got[1].URL, got[2].URL}
	assert.ElementsMatch(t, []string{
		"https://www.youtube.com/watch?v=a",
		"https://www.youtube.com/watch?v=b",
		"https://www.youtube.com/watch?v=c",
	}, urls)
}

func TestVideoFetcher_CapsResults(t *testing.T) {
	yt := new(mockYouTube)
	yt.On("Search", mock.Anything, mock.Anything).Return([]youtube.Video{{ID: "1"}, {ID: "2"}, {ID: "3"}}, nil)

	q := Query{Brand: "ASICS", ModelName: "Novablast 5", Locale: "en", MaxResults: 2}
	got, err := NewVideoFetcher(yt, fastRetry()).Search(context.Background(), q)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	yt.AssertNumberOfCalls(t, "Search", 1)
}

func TestVideoFetcher_OneQueryFailing(t *testing.T) {
	yt := new(mockYouTube)
	yt.On("Search", mock.Anything, byQuery("Nike Pegasus 41 レビュー")).Return(nil, &youtube.APIError{StatusCode: 400, Body: "bad"})
	yt.On("Search", mock.Anything, byQuery("Nike Pegasus 41 review")).Return([]youtube.Video{{ID: "c"}}, nil)

	got, err := NewVideoFetcher(yt, fastRetry()).Search(context.Background(), pegasus)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestVideoFetcher_MissingKeyIsProviderError(t *testing.T) {
	yt := new(mockYouTube)
	yt.On("Search", mock.Anything, mock.Anything).Return(nil, youtube.ErrMissingKey)

	got, err := NewVideoFetcher(yt, fastRetry()).Search(context.Background(), pegasus)

	assert.Nil(t, got)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.SourceVideo, pe.Kind)
	assert.Equal(t, "youtube", pe.Provider)
	assert.ErrorIs(t, err, youtube.ErrMissingKey)
	// one call per query, never retried
	yt.AssertNumberOfCalls(t, "Search", 2)
}

func TestVideoFetcher_ImagesSuppressed(t *testing.T) {
	yt := new(mockYouTube)
	yt.On("Search", mock.Anything, mock.Anything).Return([]youtube.Video{{ID: "a", ThumbnailURL: "https://i.ytimg.com/a.jpg"}}, nil)

	q := pegasus
	q.IncludeImages = false
	got, err := NewVideoFetcher(yt, fastRetry()).Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ThumbnailURL)
}

func TestVideoQueries(t *testing.T) {
	assert.Len(t, VideoQueries(Query{Brand: "On", ModelName: "Cloudmonster", Locale: "ja-JP"}), 2)
	assert.Equal(t, []string{"On Cloudmonster review"}, VideoQueries(Query{Brand: "On", ModelName: "Cloudmonster", Locale: "de-DE"}))
}
