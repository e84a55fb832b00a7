package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludePatterns skip links that never hold review text.
var defaultExcludePatterns = []string{
	"*.pdf",
	"*.jpg",
	"*.jpeg",
	"*.png",
	"*.gif",
	"*.webp",
	"*.zip",
	"/cart/*",
	"/login/*",
	"/search/*",
}

// PathMatcher filters URLs based on glob-style path patterns. A pattern
// starting with "*." matches a file extension at any depth, and a pattern
// ending in "/*" matches every path below its directory.
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher from glob patterns (e.g. "/amp/*", "*.pdf").
// Falls back to default patterns if none are provided.
func NewPathMatcher(patterns []string) *PathMatcher {
	if len(patterns) == 0 {
		patterns = defaultExcludePatterns
	}
	return &PathMatcher{patterns: patterns}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded checks whether a URL matches any exclude pattern. Unparseable
// and non-http URLs are always excluded.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return true
	}
	return m.isPathExcluded(u.Path)
}

func (m *PathMatcher) isPathExcluded(urlPath string) bool {
	urlPath = strings.ToLower(urlPath)
	for _, pattern := range m.patterns {
		if matchSegmented(strings.ToLower(pattern), urlPath) {
			return true
		}
	}
	return false
}

func matchSegmented(pattern, urlPath string) bool {
	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		return strings.HasSuffix(urlPath, ext)
	}

	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}

	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	return false
}
