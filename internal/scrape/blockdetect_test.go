package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/shoe-curation/internal/fetcher"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name string
		body string
		want BlockType
	}{
		{"clean", `<html><body><p>普通の記事</p></body></html>`, BlockNone},
		{"cloudflare", `<html><body>Checking your browser before accessing</body></html>`, BlockCloudflare},
		{"cloudflare challenge", `<html>cloudflare challenge platform</html>`, BlockCloudflare},
		{"captcha", `<html><body>Please complete the hCaptcha</body></html>`, BlockCaptcha},
		{"js shell", `<html><noscript>Enable JavaScript to continue</noscript></html>`, BlockJSShell},
		{"meta refresh", `<html><head><meta http-equiv="refresh" content="0;url=/x"></head></html>`, BlockJSShell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, kind := DetectBlock(&fetcher.Page{Body: []byte(tt.body)})
			assert.Equal(t, tt.want != BlockNone, blocked)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestDetectBlock_NilPage(t *testing.T) {
	blocked, kind := DetectBlock(nil)
	assert.False(t, blocked)
	assert.Equal(t, BlockNone, kind)
}
