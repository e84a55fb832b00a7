package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shoe-curation/internal/fetcher"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/resilience"
)

const runnersRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>ランナー掲示板</title>
<item><title>Pegasus 41 を300km履いた感想</title><link>https://forum.example/t/1</link>
<description><![CDATA[<p>耐久性は<b>かなり良い</b></p>]]></description>
<author>runner@example.com (ミホ)</author>
<pubDate>Mon, 03 Mar 2025 10:00:00 +0900</pubDate>
<enclosure url="https://forum.example/img/1.jpg" type="image/jpeg" length="1"/></item>
<item><title>Vaporfly 3 のサイズ感</title><link>https://forum.example/t/2</link><description>ハーフで使用</description></item>
</channel></rss>`

const searchAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>bookmarks</title>
<entry><title>ランニングシューズまとめ</title><link href="https://b.example/entry/9"/><updated>2025-02-01T00:00:00Z</updated><summary>今季の注目モデル</summary></entry>
</feed>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forum.rss":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(runnersRSS))
		case "/search":
			assert.Equal(t, "Nike Pegasus 41", r.URL.Query().Get("q"))
			w.Header().Set("Content-Type", "application/atom+xml")
			_, _ = w.Write([]byte(searchAtom))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testHTTPFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		HostRate:  1000,
		HostBurst: 100,
		Retry:     resilience.RetryConfig{MaxAttempts: 1},
	})
}

func TestCommunityFetcher_StaticAndSearchFeeds(t *testing.T) {
	srv := newFeedServer(t)
	f := NewCommunityFetcher(testHTTPFetcher(), []Feed{
		{Name: "forum", URL: srv.URL + "/forum.rss"},
		{Name: "bookmarks", URL: srv.URL + "/search?q={query}", Platform: "はてなブックマーク"},
	})

	got, err := f.Search(context.Background(), pegasus)
	require.NoError(t, err)
	require.Len(t, got, 2)

	forum := got[0]
	assert.Equal(t, model.SourceCommunity, forum.SourceType)
	assert.Equal(t, "ランナー掲示板", forum.Platform)
	assert.Equal(t, "https://forum.example/t/1", forum.URL)
	assert.Contains(t, forum.Excerpt, "耐久性は")
	assert.NotContains(t, forum.Excerpt, "<p>")
	assert.Equal(t, "https://forum.example/img/1.jpg", forum.ThumbnailURL)
	require.NotNil(t, forum.PublishedAt)
	assert.Equal(t, 2025, forum.PublishedAt.Year())

	bookmarks := got[1]
	assert.Equal(t, "はてなブックマーク", bookmarks.Platform)
	assert.Equal(t, "https://b.example/entry/9", bookmarks.URL)
	require.NotNil(t, bookmarks.PublishedAt)
}

func TestCommunityFetcher_PartialFeedFailure(t *testing.T) {
	srv := newFeedServer(t)
	f := NewCommunityFetcher(testHTTPFetcher(), []Feed{
		{Name: "gone", URL: srv.URL + "/gone.rss"},
		{Name: "forum", URL: srv.URL + "/forum.rss"},
	})

	got, err := f.Search(context.Background(), pegasus)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCommunityFetcher_AllFeedsFail(t *testing.T) {
	srv := newFeedServer(t)
	f := NewCommunityFetcher(testHTTPFetcher(), []Feed{{Name: "gone", URL: srv.URL + "/gone.rss"}})

	_, err := f.Search(context.Background(), pegasus)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.SourceCommunity, pe.Kind)
	assert.Equal(t, 404, pe.StatusCode)
}

func TestCommunityFetcher_NoFeeds(t *testing.T) {
	got, err := NewCommunityFetcher(testHTTPFetcher(), nil).Search(context.Background(), pegasus)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadFeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`feeds:
  - name: hatena
    url: https://b.hatena.ne.jp/q/{query}?mode=rss
    platform: はてなブックマーク
  - name: forum
    url: https://forum.example/feed
`), 0o600))

	feeds, err := LoadFeeds(path)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.True(t, feeds[0].Search())
	assert.False(t, feeds[1].Search())
	assert.Equal(t, "https://b.hatena.ne.jp/q/Nike+Pegasus+41?mode=rss", feeds[0].URLFor(pegasus))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("feeds:\n  - name: empty\n"), 0o600))
	_, err = LoadFeeds(bad)
	assert.ErrorContains(t, err, "has no url")

	_, err = LoadFeeds(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
