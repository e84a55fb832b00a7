package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/config"
	"github.com/sells-group/shoe-curation/internal/curation"
	"github.com/sells-group/shoe-curation/internal/fetcher"
	"github.com/sells-group/shoe-curation/internal/normalize"
	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/internal/scorer"
	"github.com/sells-group/shoe-curation/internal/scrape"
	"github.com/sells-group/shoe-curation/internal/source"
	"github.com/sells-group/shoe-curation/internal/store"
	"github.com/sells-group/shoe-curation/internal/summarize"
	anthropicpkg "github.com/sells-group/shoe-curation/pkg/anthropic"
	"github.com/sells-group/shoe-curation/pkg/google"
	"github.com/sells-group/shoe-curation/pkg/jina"
	"github.com/sells-group/shoe-curation/pkg/rakuten"
	"github.com/sells-group/shoe-curation/pkg/serper"
	"github.com/sells-group/shoe-curation/pkg/youtube"
)

// curationEnv holds the initialized store, clients and services shared by
// the serve, refresh, collect and summarize commands.
type curationEnv struct {
	Store      store.Store
	Aggregator *aggregate.Aggregator
	Curation   *curation.Service
	Reviews    *summarize.ReviewService // nil without an Anthropic key
}

// Close releases resources held by the environment.
func (e *curationEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "curation.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// providers holds the external API clients built from config. A nil field
// means the provider has no credentials.
type providers struct {
	videos  youtube.Client
	serper  serper.Client
	google  google.Client
	rakuten rakuten.Client
	feeds   []source.Feed
}

func initProviders(c *config.Config) (*providers, error) {
	p := &providers{}
	if c.YouTube.Key != "" {
		p.videos = youtube.NewClient(c.YouTube.Key, youtube.WithBaseURL(c.YouTube.BaseURL))
	}
	if c.Serper.Key != "" {
		p.serper = serper.NewClient(c.Serper.Key, serper.WithBaseURL(c.Serper.BaseURL))
	}
	if c.Google.Key != "" && c.Google.CX != "" {
		p.google = google.NewClient(c.Google.Key, c.Google.CX, google.WithBaseURL(c.Google.BaseURL))
	}
	if c.Rakuten.ApplicationID != "" {
		opts := []rakuten.Option{rakuten.WithBaseURL(c.Rakuten.BaseURL)}
		if c.Rakuten.AffiliateID != "" {
			opts = append(opts, rakuten.WithAffiliateID(c.Rakuten.AffiliateID))
		}
		p.rakuten = rakuten.NewClient(c.Rakuten.ApplicationID, opts...)
	}

	feeds, err := loadFeeds(c.Community)
	if err != nil {
		return nil, err
	}
	p.feeds = feeds
	return p, nil
}

// loadFeeds merges the feeds file with inline feeds. Inline feeds come last.
func loadFeeds(c config.CommunityConfig) ([]source.Feed, error) {
	var feeds []source.Feed
	if c.FeedsFile != "" {
		fromFile, err := source.LoadFeeds(c.FeedsFile)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, fromFile...)
	}
	for i, f := range c.Feeds {
		if f.URL == "" {
			return nil, eris.Errorf("community.feeds[%d] (%s) has no url", i, f.Name)
		}
		feeds = append(feeds, source.Feed{Name: f.Name, URL: f.URL, Platform: f.Platform})
	}
	return feeds, nil
}

// buildFetchers registers one fetcher per source kind the providers can
// serve. Web kinds share a Serper-first searcher with Google as fallback.
func buildFetchers(p *providers, pages fetcher.Fetcher, retry resilience.RetryConfig) []source.Fetcher {
	var out []source.Fetcher

	var searchers []source.Searcher
	if p.serper != nil {
		searchers = append(searchers, source.NewSerperSearcher(p.serper))
	}
	if p.google != nil {
		searchers = append(searchers, source.NewGoogleSearcher(p.google))
	}
	if len(searchers) > 0 {
		web := source.NewFallbackSearcher(searchers...)
		out = append(out,
			source.NewWebFetcher(source.WebOfficial, web, retry),
			source.NewWebFetcher(source.WebSNS, web, retry),
			source.NewWebFetcher(source.WebArticles, web, retry),
		)
	}
	if p.videos != nil {
		out = append(out, source.NewVideoFetcher(p.videos, retry))
	}
	if p.rakuten != nil {
		out = append(out, source.NewMarketplaceFetcher(p.rakuten, retry))
	}
	if len(p.feeds) > 0 {
		out = append(out, source.NewCommunityFetcher(pages, p.feeds))
	}
	return out
}

func retryConfig(c *config.Config) resilience.RetryConfig {
	return resilience.NewRetryConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs)
}

func newPageFetcher(c *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Retry: retryConfig(c)})
}

// newArticleScraper scrapes pages directly and, when enabled, falls back to
// the Jina reader for pages that block or defeat local extraction.
func newArticleScraper(c *config.Config, pages fetcher.Fetcher) scrape.Scraper {
	direct := scrape.NewArticleScraper(pages, scrape.NewPathMatcher(nil))
	if !c.Jina.Enabled {
		return direct
	}
	client := jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL))
	breaker := resilience.NewCircuitBreaker("jina", resilience.NewCircuitBreakerConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs))
	return scrape.NewChain(direct, scrape.NewReaderScraper(client, retryConfig(c), breaker))
}

func initAggregator(c *config.Config, p *providers, pages fetcher.Fetcher) *aggregate.Aggregator {
	fetchers := buildFetchers(p, pages, retryConfig(c))
	agg := aggregate.New(aggregate.Options{
		Timeout:       time.Duration(c.Aggregate.TimeoutSecs) * time.Second,
		MaxConcurrent: c.Aggregate.MaxConcurrent,
		RatePerSec:    c.Aggregate.RatePerSec,
		Breakers:      resilience.NewBreakers(resilience.NewCircuitBreakerConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs)),
		Policy:        scorer.DefaultPolicy,
	}, fetchers...)
	zap.L().Info("aggregator ready", zap.Any("kinds", agg.Kinds()))
	return agg
}

func initReviews(c *config.Config, st store.Store) *summarize.ReviewService {
	if c.Anthropic.Key == "" {
		return nil
	}
	client := anthropicpkg.NewClient(c.Anthropic.Key)
	gen := summarize.New(client, summarize.Config{
		Model:       c.Anthropic.Model,
		MaxTokens:   c.Anthropic.MaxTokens,
		Temperature: c.Anthropic.Temperature,
	})
	return summarize.NewReviewService(st, gen)
}

// initEnv validates config for mode and builds every service. Callers should
// defer env.Close().
func initEnv(ctx context.Context, mode string) (*curationEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &curationEnv{Store: st}

	p, err := initProviders(cfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	pages := newPageFetcher(cfg)
	env.Aggregator = initAggregator(cfg, p, pages)

	tagger, err := normalize.NewTagger()
	if err != nil {
		// Tags then come from the shoe only.
		zap.L().Warn("tagger unavailable", zap.Error(err))
		tagger = nil
	}
	scraper := newArticleScraper(cfg, pages)
	env.Curation = curation.New(st, env.Aggregator, scraper, p.videos, tagger, scorer.DefaultPolicy)
	env.Reviews = initReviews(cfg, st)
	return env, nil
}
