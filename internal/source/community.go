package source

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/shoe-curation/internal/fetcher"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
)

// queryPlaceholder in a feed URL is replaced by the escaped search terms.
const queryPlaceholder = "{query}"

// Feed is one RSS/Atom source of community posts.
type Feed struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Platform string `yaml:"platform"`
}

// Search reports whether the feed is a search endpoint. Items from search
// feeds are trusted to match; static feeds are filtered by model name.
func (f Feed) Search() bool { return strings.Contains(f.URL, queryPlaceholder) }

// URLFor expands the query placeholder for q.
func (f Feed) URLFor(q Query) string {
	return strings.ReplaceAll(f.URL, queryPlaceholder, url.QueryEscape(q.Terms()))
}

type feedFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads a YAML feed list of the form `feeds: [{name, url, platform}]`.
func LoadFeeds(path string) ([]Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read feeds file %s", path)
	}
	var ff feedFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, eris.Wrapf(err, "source: parse feeds file %s", path)
	}
	for i, f := range ff.Feeds {
		if strings.TrimSpace(f.URL) == "" {
			return nil, eris.Errorf("source: feed %d (%s) has no url", i, f.Name)
		}
	}
	return ff.Feeds, nil
}

// CommunityFetcher reads community RSS/Atom feeds.
type CommunityFetcher struct {
	fetcher fetcher.Fetcher
	feeds   []Feed
}

// NewCommunityFetcher creates a COMMUNITY fetcher over feeds.
func NewCommunityFetcher(f fetcher.Fetcher, feeds []Feed) *CommunityFetcher {
	return &CommunityFetcher{fetcher: f, feeds: feeds}
}

// Kind implements Fetcher.
func (c *CommunityFetcher) Kind() model.SourceType { return model.SourceCommunity }

// Search implements Fetcher. Feeds are read in parallel; the fetcher fails
// only when every feed fails.
func (c *CommunityFetcher) Search(ctx context.Context, q Query) ([]model.RawSource, error) {
	if len(c.feeds) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		perFeed = make([][]model.RawSource, len(c.feeds))
		failed  int
		lastErr error
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, feed := range c.feeds {
		g.Go(func() error {
			items, err := c.readFeed(gCtx, feed, q)
			if err != nil {
				zap.L().Warn("source: community feed failed", zap.String("feed", feed.Name), zap.Error(err))
				mu.Lock()
				failed++
				lastErr = err
				mu.Unlock()
				return nil
			}
			perFeed[i] = items
			return nil
		})
	}
	_ = g.Wait()

	if failed == len(c.feeds) {
		return nil, newProviderError(model.SourceCommunity, "feeds", lastErr)
	}

	var out []model.RawSource
	for _, items := range perFeed {
		out = append(out, items...)
	}
	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

func (c *CommunityFetcher) readFeed(ctx context.Context, feed Feed, q Query) ([]model.RawSource, error) {
	page, err := c.fetcher.Get(ctx, feed.URLFor(q))
	if err != nil {
		return nil, err
	}
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, eris.Wrapf(err, "source: parse feed %s", feed.Name)
	}

	platform := feed.Platform
	if platform == "" {
		platform = normalize.Text(parsed.Title)
	}
	needle := strings.ToLower(normalize.Text(q.ModelName))

	var out []model.RawSource
	for _, item := range parsed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		content := item.Description
		if content == "" {
			content = item.Content
		}
		if !feed.Search() && !strings.Contains(strings.ToLower(normalize.Text(item.Title+" "+content)), needle) {
			continue
		}
		out = append(out, feedItemSource(item, platform, content, q.IncludeImages))
	}
	return out, nil
}

func feedItemSource(item *gofeed.Item, platform, content string, images bool) model.RawSource {
	raw := model.RawSource{
		SourceType: model.SourceCommunity,
		Platform:   platform,
		Title:      item.Title,
		Excerpt:    normalize.Markdown(content),
		URL:        item.Link,
	}
	if item.Author != nil {
		raw.Author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		raw.Author = item.Authors[0].Name
	}
	switch {
	case item.PublishedParsed != nil:
		raw.PublishedAt = item.PublishedParsed
	case item.UpdatedParsed != nil:
		raw.PublishedAt = item.UpdatedParsed
	}
	if images {
		if item.Image != nil {
			raw.ThumbnailURL = item.Image.URL
		}
		for _, enc := range item.Enclosures {
			if raw.ThumbnailURL == "" && enc != nil && strings.HasPrefix(enc.Type, "image/") {
				raw.ThumbnailURL = enc.URL
			}
		}
	}
	return raw
}
