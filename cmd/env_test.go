//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shoe-curation/internal/config"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/scrape"
	"github.com/sells-group/shoe-curation/internal/source"
)

func TestInitStore_SQLite(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck
}

func TestInitStore_SQLiteDefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	// Migrate forces the file to be written.
	require.NoError(t, st.Migrate(context.Background()))
	_, statErr := os.Stat(filepath.Join(tmpDir, "curation.db"))
	assert.NoError(t, statErr)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "mysql"}}

	st, err := initStore(context.Background())
	assert.Nil(t, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func fetcherKinds(fs []source.Fetcher) []model.SourceType {
	var out []model.SourceType
	for _, f := range fs {
		out = append(out, f.Kind())
	}
	return out
}

func TestBuildFetchers_None(t *testing.T) {
	p, err := initProviders(&config.Config{})
	require.NoError(t, err)
	assert.Empty(t, buildFetchers(p, nil, retryConfig(&config.Config{})))
}

func TestBuildFetchers_AllProviders(t *testing.T) {
	c := &config.Config{
		YouTube:   config.YouTubeConfig{Key: "yt"},
		Serper:    config.SerperConfig{Key: "sp"},
		Rakuten:   config.RakutenConfig{ApplicationID: "app", AffiliateID: "aff"},
		Community: config.CommunityConfig{Feeds: []config.FeedConfig{{Name: "forum", URL: "https://example.com/rss"}}},
	}
	p, err := initProviders(c)
	require.NoError(t, err)

	kinds := fetcherKinds(buildFetchers(p, newPageFetcher(c), retryConfig(c)))
	assert.ElementsMatch(t, model.AllSourceTypes(), kinds)
}

func TestBuildFetchers_GoogleNeedsCX(t *testing.T) {
	p, err := initProviders(&config.Config{Google: config.GoogleConfig{Key: "g"}})
	require.NoError(t, err)
	assert.Nil(t, p.google)
	assert.Empty(t, buildFetchers(p, nil, retryConfig(&config.Config{})))
}

func TestBuildFetchers_GoogleOnly(t *testing.T) {
	p, err := initProviders(&config.Config{Google: config.GoogleConfig{Key: "g", CX: "cx"}})
	require.NoError(t, err)

	kinds := fetcherKinds(buildFetchers(p, nil, retryConfig(&config.Config{})))
	assert.ElementsMatch(t, []model.SourceType{model.SourceOfficial, model.SourceSNS, model.SourceArticle}, kinds)
}

func TestLoadFeeds_FileThenInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`feeds:
  - name: file-feed
    url: https://example.com/file.rss
    platform: forum
`), 0o644))

	feeds, err := loadFeeds(config.CommunityConfig{
		FeedsFile: path,
		Feeds:     []config.FeedConfig{{Name: "inline", URL: "https://example.com/inline.rss"}},
	})
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "file-feed", feeds[0].Name)
	assert.Equal(t, "forum", feeds[0].Platform)
	assert.Equal(t, "inline", feeds[1].Name)
}

func TestLoadFeeds_InlineMissingURL(t *testing.T) {
	_, err := loadFeeds(config.CommunityConfig{Feeds: []config.FeedConfig{{Name: "broken"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLoadFeeds_MissingFile(t *testing.T) {
	_, err := loadFeeds(config.CommunityConfig{FeedsFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestNewArticleScraper(t *testing.T) {
	c := &config.Config{}
	_, direct := newArticleScraper(c, newPageFetcher(c)).(*scrape.ArticleScraper)
	assert.True(t, direct)

	c.Jina = config.JinaConfig{Enabled: true, BaseURL: "https://r.jina.ai"}
	_, chained := newArticleScraper(c, newPageFetcher(c)).(*scrape.Chain)
	assert.True(t, chained)
}

func TestInitReviews_NoKey(t *testing.T) {
	assert.Nil(t, initReviews(&config.Config{}, nil))
}

func TestInitEnv_SQLite(t *testing.T) {
	cfg = &config.Config{
		Store:  config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "env.db")},
		Serper: config.SerperConfig{Key: "sp"},
	}

	env, err := initEnv(context.Background(), "refresh")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Store)
	assert.NotNil(t, env.Curation)
	assert.Nil(t, env.Reviews)
	assert.ElementsMatch(t, []model.SourceType{model.SourceOfficial, model.SourceSNS, model.SourceArticle}, env.Aggregator.Kinds())

	shoe := &model.Shoe{Brand: "Nike", ModelName: "Pegasus 41"}
	require.NoError(t, env.Store.SaveShoe(context.Background(), shoe))
	got, err := env.Store.GetShoe(context.Background(), shoe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pegasus 41", got.ModelName)
}

func TestInitEnv_InvalidConfig(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	_, err := initEnv(context.Background(), "refresh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")
}
