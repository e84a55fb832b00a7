package source

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/shoe-curation/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		host, title string
		want        model.SourceType
	}{
		{"x.com", "Pegasus 41 first run", model.SourceSNS},
		{"www.instagram.com", "", model.SourceSNS},
		{"m.facebook.com", "", model.SourceSNS},
		{"item.rakuten.co.jp", "ペガサス41 送料無料", model.SourceMarketplace},
		{"www.nike.com", "Nike Pegasus 41", model.SourceMarketplace},
		{"youtu.be", "review", model.SourceVideo},
		{"prtimes.jp", "ASICS プレスリリース 新作発表", model.SourceOfficial},
		{"news.example", "Official launch of Novablast 5", model.SourceOfficial},
		{"runblog.jp", "ペガサス41 レビュー", model.SourceArticle},
		{"notx.com", "review", model.SourceArticle},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.host, tt.title), tt.host)
	}
}

func TestOfficialDomain(t *testing.T) {
	assert.Equal(t, "asics.com", OfficialDomain(" ASICS "))
	assert.Equal(t, "newbalance.jp", OfficialDomain("New Balance"))
	assert.Equal(t, "nike.com", OfficialDomain("ナイキ"))
	assert.Empty(t, OfficialDomain("Unknown Brand"))
}

func TestQuery_LocaleParts(t *testing.T) {
	q := Query{Brand: " Nike", ModelName: "Pegasus 41 ", Locale: "en-us"}
	assert.Equal(t, "Nike Pegasus 41", q.Terms())
	assert.Equal(t, "en", q.Language())
	assert.Equal(t, "US", q.Region())

	assert.Equal(t, "ja", Query{}.Language())
	assert.Empty(t, Query{Locale: "ja"}.Region())
}
