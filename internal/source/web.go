package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/pkg/google"
	"github.com/sells-group/shoe-curation/pkg/serper"
)

// WebResult is one organic web search hit.
type WebResult struct {
	Title       string
	URL         string
	Snippet     string
	Thumbnail   string
	PublishedAt *time.Time
}

// Searcher runs a web search.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, num int, q Query) ([]WebResult, error)
}

// SerperSearcher adapts the Serper client.
type SerperSearcher struct {
	client serper.Client
}

// NewSerperSearcher wraps a Serper client.
func NewSerperSearcher(c serper.Client) *SerperSearcher { return &SerperSearcher{client: c} }

func (s *SerperSearcher) Name() string { return "serper" }

func (s *SerperSearcher) Search(ctx context.Context, query string, num int, q Query) ([]WebResult, error) {
	resp, err := s.client.Search(ctx, serper.SearchRequest{
		Query:    query,
		Num:      num,
		Country:  strings.ToLower(q.Region()),
		Language: q.Language(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]WebResult, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		out = append(out, WebResult{Title: r.Title, URL: r.Link, Snippet: r.Snippet, Thumbnail: r.ImageURL})
	}
	return out, nil
}

// GoogleSearcher adapts the Custom Search client.
type GoogleSearcher struct {
	client google.Client
}

// NewGoogleSearcher wraps a Custom Search client.
func NewGoogleSearcher(c google.Client) *GoogleSearcher { return &GoogleSearcher{client: c} }

func (g *GoogleSearcher) Name() string { return "google" }

func (g *GoogleSearcher) Search(ctx context.Context, query string, num int, q Query) ([]WebResult, error) {
	req := google.SearchRequest{Query: query, Num: num, Lang: "lang_" + q.Language()}
	if r := q.Region(); r != "" {
		req.Country = "country" + r
	}
	resp, err := g.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]WebResult, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, WebResult{
			Title:       it.Title,
			URL:         it.Link,
			Snippet:     it.Snippet,
			Thumbnail:   it.Thumbnail(),
			PublishedAt: it.PublishedTime(),
		})
	}
	return out, nil
}

// FallbackSearcher tries each searcher in order and returns the first
// success.
type FallbackSearcher struct {
	searchers []Searcher
}

// NewFallbackSearcher builds a chain, skipping nil entries.
func NewFallbackSearcher(searchers ...Searcher) *FallbackSearcher {
	fs := &FallbackSearcher{}
	for _, s := range searchers {
		if s != nil {
			fs.searchers = append(fs.searchers, s)
		}
	}
	return fs
}

// Name lists the chain, e.g. "serper>google".
func (f *FallbackSearcher) Name() string {
	names := make([]string, len(f.searchers))
	for i, s := range f.searchers {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

// Len reports how many searchers are configured.
func (f *FallbackSearcher) Len() int { return len(f.searchers) }

func (f *FallbackSearcher) Search(ctx context.Context, query string, num int, q Query) ([]WebResult, error) {
	if len(f.searchers) == 0 {
		return nil, eris.New("source: no web search provider configured")
	}
	var lastErr error
	for _, s := range f.searchers {
		res, err := s.Search(ctx, query, num, q)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		zap.L().Warn("source: web searcher failed, trying next",
			zap.String("searcher", s.Name()),
			zap.Error(err),
		)
		lastErr = err
	}
	return nil, lastErr
}

// WebMode selects how a WebFetcher builds queries and types results.
type WebMode int

const (
	// WebArticles searches reviews and classifies each hit by host and title.
	WebArticles WebMode = iota
	// WebSNS restricts the search to social networks.
	WebSNS
	// WebOfficial restricts the search to the brand's own site.
	WebOfficial
)

// WebFetcher turns web search hits into candidates for one source kind.
type WebFetcher struct {
	mode     WebMode
	searcher Searcher
	retry    resilience.RetryConfig
}

// NewWebFetcher creates a fetcher for mode backed by searcher.
func NewWebFetcher(mode WebMode, searcher Searcher, retry resilience.RetryConfig) *WebFetcher {
	return &WebFetcher{mode: mode, searcher: searcher, retry: retry}
}

// Kind implements Fetcher.
func (w *WebFetcher) Kind() model.SourceType {
	switch w.mode {
	case WebSNS:
		return model.SourceSNS
	case WebOfficial:
		return model.SourceOfficial
	}
	return model.SourceArticle
}

// ReviewQuery builds the article search string for q.
func ReviewQuery(q Query) string {
	if q.Language() == "ja" {
		return q.Terms() + " レビュー 最新"
	}
	return q.Terms() + " review"
}

func (w *WebFetcher) query(q Query) (string, bool) {
	switch w.mode {
	case WebSNS:
		sites := make([]string, 0, len(snsDomains))
		for _, d := range snsDomains {
			sites = append(sites, "site:"+d)
		}
		return `"` + q.Terms() + `" (` + strings.Join(sites, " OR ") + ")", true
	case WebOfficial:
		domain := OfficialDomain(q.Brand)
		if domain == "" {
			return "", false
		}
		return q.ModelName + " site:" + domain, true
	}
	return ReviewQuery(q), true
}

// Search implements Fetcher. Unknown brands yield no OFFICIAL results.
func (w *WebFetcher) Search(ctx context.Context, q Query) ([]model.RawSource, error) {
	query, ok := w.query(q)
	if !ok {
		return nil, nil
	}
	kind := w.Kind()
	hits, err := call(ctx, w.retry, kind, w.searcher.Name(), func(ctx context.Context) ([]WebResult, error) {
		return w.searcher.Search(ctx, query, q.MaxResults, q)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.RawSource, 0, len(hits))
	for _, h := range hits {
		host := normalize.Host(h.URL)
		if host == "" {
			continue
		}
		typ := kind
		if w.mode == WebArticles {
			typ = Classify(host, h.Title)
		}
		raw := model.RawSource{
			SourceType:  typ,
			Platform:    host,
			Title:       h.Title,
			Excerpt:     h.Snippet,
			URL:         h.URL,
			PublishedAt: h.PublishedAt,
		}
		if q.IncludeImages {
			raw.ThumbnailURL = h.Thumbnail
		}
		out = append(out, raw)
	}
	return out, nil
}
