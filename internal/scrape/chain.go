package scrape

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScrapeAll scrapes urls in parallel with at most maxConcurrent requests in
// flight. Failed URLs are logged and skipped. The result is keyed by the
// requested URL.
func ScrapeAll(ctx context.Context, s Scraper, urls []string, maxConcurrent int) map[string]*Article {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	var (
		mu       sync.Mutex
		articles = make(map[string]*Article, len(urls))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, u := range urls {
		g.Go(func() error {
			a, err := s.Scrape(gCtx, u)
			if err != nil {
				zap.L().Debug("scrape: skipping url", zap.String("url", u), zap.Error(err))
				return nil
			}
			mu.Lock()
			articles[u] = a
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return articles
}

// Chain tries scrapers in order and returns the first article. Excluded
// URLs and caller cancellation stop the chain. When every scraper fails the
// first error is returned, so callers see the direct fetch's status.
type Chain struct {
	scrapers []Scraper
}

var _ Scraper = (*Chain)(nil)

// NewChain creates a Chain. Nil scrapers are skipped.
func NewChain(scrapers ...Scraper) *Chain {
	c := &Chain{}
	for _, s := range scrapers {
		if s != nil {
			c.scrapers = append(c.scrapers, s)
		}
	}
	return c
}

// Scrape implements Scraper.
func (c *Chain) Scrape(ctx context.Context, rawURL string) (*Article, error) {
	var first error
	for i, s := range c.scrapers {
		a, err := s.Scrape(ctx, rawURL)
		if err == nil {
			return a, nil
		}
		if first == nil {
			first = err
		}
		if errors.Is(err, ErrExcluded) || ctx.Err() != nil {
			break
		}
		if i < len(c.scrapers)-1 {
			zap.L().Debug("scrape: scraper failed, trying next", zap.String("url", rawURL), zap.Error(err))
		}
	}
	if first == nil {
		return nil, &ScrapeError{URL: rawURL, Err: eris.New("scrape: no scrapers configured")}
	}
	return nil, first
}
