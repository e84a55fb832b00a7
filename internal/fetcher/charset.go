package fetcher

import (
	"bytes"
	"io"
	"mime"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?\s*([a-zA-Z0-9_\-]+)`)

// charsetLabel finds the declared charset in the Content-Type header or,
// failing that, in a <meta> tag within the first 2KB of the body.
func charsetLabel(contentType string, body []byte) string {
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			if cs := params["charset"]; cs != "" {
				return strings.ToLower(cs)
			}
		}
	}
	head := body
	if len(head) > 2048 {
		head = head[:2048]
	}
	if m := metaCharsetRe.FindSubmatch(head); len(m) > 1 {
		return strings.ToLower(string(m[1]))
	}
	return ""
}

// decodeBody converts body to UTF-8. Unknown labels are an error so the caller
// does not store mojibake; a missing label is treated as UTF-8.
func decodeBody(contentType string, body []byte) ([]byte, error) {
	label := charsetLabel(contentType, body)
	if label == "" || label == "utf-8" || label == "utf8" {
		return body, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: unsupported charset %q", label)
	}
	out, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: decode %s", label)
	}
	return out, nil
}
