package normalize

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var (
	htmlTagRe   = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
	mdImageRe   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkRe    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEmphRe    = regexp.MustCompile(`(\*\*|__|\*|_|~~|` + "`" + `)`)
	mdHeadingRe = regexp.MustCompile(`(?m)^\s{0,3}(#{1,6}|>|[-*+]|\d+\.)\s+`)
)

// Markdown converts an HTML fragment to markdown. Input without tags is
// returned trimmed.
func Markdown(html string) string {
	if !htmlTagRe.MatchString(html) {
		return strings.TrimSpace(html)
	}
	conv := md.NewConverter("", true, nil)
	out, err := conv.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(htmlTagRe.ReplaceAllString(html, " "))
	}
	return strings.TrimSpace(out)
}

// Plain converts an HTML or markdown fragment to plain text for excerpts.
func Plain(s string) string {
	s = Markdown(s)
	s = mdImageRe.ReplaceAllString(s, "")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = mdHeadingRe.ReplaceAllString(s, "")
	s = mdEmphRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
