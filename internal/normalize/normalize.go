// Package normalize converts fetcher output into the canonical RawSource shape.
// Every function here is pure and performs no I/O.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/sells-group/shoe-curation/internal/model"
)

// MaxExcerptRunes bounds excerpts taken from provider payloads.
const MaxExcerptRunes = 500

// MaxTitleRunes bounds titles; the admin form allows 200.
const MaxTitleRunes = 200

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize trims and folds every text field, resolves relative URLs, fills
// the platform from the URL host when missing, clamps the excerpt and stamps
// kind when the fetcher left the type empty.
func Normalize(raw model.RawSource, kind model.SourceType) model.RawSource {
	out := model.RawSource{
		SourceType: raw.SourceType,
		Platform:   Text(raw.Platform),
		Title:      Clamp(Text(raw.Title), MaxTitleRunes),
		Excerpt:    Clamp(Text(Plain(raw.Excerpt)), MaxExcerptRunes),
		Author:     Text(raw.Author),
	}
	if out.SourceType == "" {
		out.SourceType = kind
	}

	out.URL = CanonicalURL(Resolve("", raw.URL, raw.Platform))
	out.ThumbnailURL = Resolve(out.URL, raw.ThumbnailURL, "")

	if out.Platform == "" {
		out.Platform = Host(out.URL)
	}
	if raw.PublishedAt != nil && !raw.PublishedAt.IsZero() {
		t := raw.PublishedAt.UTC()
		out.PublishedAt = &t
	}
	return out
}

// Text trims, folds full-width ASCII and half-width katakana, and collapses
// whitespace runs to a single space.
func Text(s string) string {
	s = width.Fold.String(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Clamp cuts s to at most n runes, ending in an ellipsis when cut.
func Clamp(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// Resolve returns ref as an absolute http(s) URL. Relative refs resolve
// against base; protocol-relative refs get https; a bare path with no base
// resolves against the platform host when one is given. Anything that cannot
// be made absolute returns "".
func Resolve(base, ref, platformHost string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		ref = "https:" + ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return ""
		}
		return u.String()
	}

	if base == "" && platformHost != "" && strings.Contains(platformHost, ".") && !strings.Contains(platformHost, " ") {
		base = "https://" + strings.TrimSuffix(platformHost, "/") + "/"
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ""
	}
	return b.ResolveReference(u).String()
}

// CanonicalURL lowercases scheme and host, drops the fragment, tracking
// parameters and a trailing slash so equivalent links dedupe.
func CanonicalURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}

// Host returns the URL host without a leading "www.".
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
