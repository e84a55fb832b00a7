package source

import (
	"strings"

	"github.com/sells-group/shoe-curation/internal/model"
)

var snsDomains = []string{"x.com", "twitter.com", "instagram.com", "threads.net", "facebook.com", "tiktok.com"}

var marketplaceDomains = []string{
	"nike.com",
	"adidas.jp",
	"adidas.com",
	"asics.com",
	"mizunoshop.net",
	"newbalance.jp",
	"puma.com",
	"rakuten.co.jp",
	"yahoo.co.jp",
	"amazon.co.jp",
}

var videoDomains = []string{"youtube.com", "youtu.be"}

var officialTitleWords = []string{"official", "ブランド", "キャンペーン", "プレスリリース", "公式"}

// Classify guesses the source type of a web search hit from its host and
// title. Hosts match on the domain or any subdomain of it.
func Classify(host, title string) model.SourceType {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	switch {
	case matchDomain(host, snsDomains):
		return model.SourceSNS
	case matchDomain(host, videoDomains):
		return model.SourceVideo
	case matchDomain(host, marketplaceDomains):
		return model.SourceMarketplace
	}
	lower := strings.ToLower(title)
	for _, w := range officialTitleWords {
		if strings.Contains(lower, w) {
			return model.SourceOfficial
		}
	}
	return model.SourceArticle
}

func matchDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// officialDomains maps lower-cased brand names to their Japanese storefront
// or brand site.
var officialDomains = map[string]string{
	"nike":        "nike.com",
	"ナイキ":         "nike.com",
	"adidas":      "adidas.jp",
	"アディダス":       "adidas.jp",
	"asics":       "asics.com",
	"アシックス":       "asics.com",
	"mizuno":      "mizunoshop.net",
	"ミズノ":         "mizunoshop.net",
	"new balance": "newbalance.jp",
	"ニューバランス":     "newbalance.jp",
	"puma":        "puma.com",
	"hoka":        "hoka.com",
	"on":          "on.com",
	"saucony":     "saucony.com",
	"brooks":      "brooksrunning.com",
}

// OfficialDomain returns the brand's own site, or "" for unknown brands.
func OfficialDomain(brand string) string {
	return officialDomains[strings.ToLower(strings.TrimSpace(brand))]
}
