package scrape

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/fetcher"
	"github.com/sells-group/shoe-curation/internal/normalize"
)

const (
	// MinContentRunes is the shortest text a strategy must yield before later
	// strategies are skipped.
	MinContentRunes = 100
	// MaxContentRunes bounds Article.Content.
	MaxContentRunes = 20000

	untitled = "タイトル不明"
)

var (
	contentSelectors = []string{
		"article",
		"main",
		".article-content",
		".post-content",
		".entry-content",
		"#content",
	}
	noiseSelector = "script, style, noscript, nav, footer, aside, form, iframe, .ad, .ads, .advertisement"
)

var (
	// ErrEmptyExtraction is wrapped in ScrapeError when no strategy yields text.
	ErrEmptyExtraction = eris.New("scrape: no article text extracted")
	// ErrExcluded is wrapped in ScrapeError for URLs the path matcher rejects.
	ErrExcluded = eris.New("scrape: url excluded by path matcher")
)

// ArticleScraper extracts review articles with selector strategies, falling
// back to the page body and finally to readability.
type ArticleScraper struct {
	fetcher fetcher.Fetcher
	matcher *PathMatcher
}

var _ Scraper = (*ArticleScraper)(nil)

// NewArticleScraper creates an ArticleScraper. A nil matcher uses the
// default exclude patterns.
func NewArticleScraper(f fetcher.Fetcher, matcher *PathMatcher) *ArticleScraper {
	if matcher == nil {
		matcher = NewPathMatcher(nil)
	}
	return &ArticleScraper{fetcher: f, matcher: matcher}
}

// Scrape fetches rawURL and extracts its article. Fetch failures, non-2xx
// responses and pages without any extractable text return *ScrapeError.
func (s *ArticleScraper) Scrape(ctx context.Context, rawURL string) (*Article, error) {
	if s.matcher.IsExcluded(rawURL) {
		return nil, &ScrapeError{URL: rawURL, Err: ErrExcluded}
	}

	page, err := s.fetcher.Get(ctx, rawURL)
	if err != nil {
		se := &ScrapeError{URL: rawURL, Err: err}
		var status *fetcher.StatusError
		if errors.As(err, &status) {
			se.StatusCode = status.StatusCode
		}
		return nil, se
	}

	article, err := Extract(page)
	if err != nil {
		return nil, &ScrapeError{URL: rawURL, StatusCode: page.StatusCode, Err: err}
	}
	zap.L().Debug("scrape: extracted article",
		zap.String("url", rawURL),
		zap.String("strategy", article.Strategy),
		zap.Int("content_runes", utf8.RuneCountInString(article.Content)),
	)
	return article, nil
}

// Extract runs the extraction strategies over an already fetched page.
func Extract(page *fetcher.Page) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}

	a := &Article{
		URL:      page.URL,
		FinalURL: page.FinalURL,
		Title: firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			doc.Find("title").First().Text(),
			doc.Find("h1").First().Text(),
		),
		Author: firstNonEmpty(
			metaContent(doc, `meta[name="author"]`),
			doc.Find(`[rel="author"]`).First().Text(),
			doc.Find(".author").First().Text(),
		),
		PublishedAt: parsePublished(firstNonEmpty(
			metaContent(doc, `meta[property="article:published_time"]`),
			attr(doc, "time[datetime]", "datetime"),
			attr(doc, ".published", "datetime"),
			doc.Find(".published").First().Text(),
		)),
		Metadata: Metadata{
			Description: firstNonEmpty(
				metaContent(doc, `meta[name="description"]`),
				metaContent(doc, `meta[property="og:description"]`),
			),
			Keywords: normalize.Text(metaContent(doc, `meta[name="keywords"]`)),
			OGImage:  normalize.Resolve(page.URL, metaContent(doc, `meta[property="og:image"]`), ""),
			SiteName: normalize.Text(metaContent(doc, `meta[property="og:site_name"]`)),
		},
	}

	var html string
	a.Content, html, a.Strategy = selectorContent(doc)
	if utf8.RuneCountInString(a.Content) < MinContentRunes {
		a.Content, html, a.Strategy = bodyContent(doc)
	}
	if utf8.RuneCountInString(a.Content) < MinContentRunes {
		if text, title, byline, site, ok := readabilityContent(page); ok && utf8.RuneCountInString(text) > utf8.RuneCountInString(a.Content) {
			a.Content, html, a.Strategy = text, "", "readability"
			a.Title = firstNonEmpty(a.Title, title)
			a.Author = firstNonEmpty(a.Author, byline)
			a.Metadata.SiteName = firstNonEmpty(a.Metadata.SiteName, site)
		}
	}

	if a.Content == "" {
		if blocked, kind := DetectBlock(page); blocked {
			return nil, eris.Errorf("scrape: blocked (%s)", kind)
		}
		return nil, ErrEmptyExtraction
	}

	a.Content = normalize.Clamp(a.Content, MaxContentRunes)
	if html != "" {
		a.Markdown = normalize.Markdown(html)
	} else {
		a.Markdown = a.Content
	}
	if a.Title == "" {
		a.Title = untitled
	}
	return a, nil
}

func selectorContent(doc *goquery.Document) (text, html, strategy string) {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		clean := sel.Clone()
		clean.Find(noiseSelector).Remove()
		text = normalize.Text(clean.Text())
		html, _ = goquery.OuterHtml(clean)
		strategy = "selector:" + selector
		if utf8.RuneCountInString(text) > MinContentRunes {
			return text, html, strategy
		}
	}
	return text, html, strategy
}

func bodyContent(doc *goquery.Document) (text, html, strategy string) {
	body := doc.Find("body").First().Clone()
	body.Find(noiseSelector + ", header").Remove()
	html, _ = body.Html()
	return normalize.Text(body.Text()), html, "body"
}

func readabilityContent(page *fetcher.Page) (text, title, byline, site string, ok bool) {
	u, err := url.Parse(page.URL)
	if err != nil {
		return "", "", "", "", false
	}
	art, err := readability.FromReader(bytes.NewReader(page.Body), u)
	if err != nil {
		return "", "", "", "", false
	}
	return normalize.Text(art.TextContent), art.Title, art.Byline, art.SiteName, true
}

func metaContent(doc *goquery.Document, selector string) string {
	return attr(doc, selector, "content")
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = normalize.Text(v); v != "" {
			return v
		}
	}
	return ""
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006年1月2日",
}

func parsePublished(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
