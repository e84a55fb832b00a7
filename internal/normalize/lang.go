package normalize

import "unicode"

// DetectLanguage returns "ja" when s contains kana or CJK ideographs and
// "en" otherwise.
func DetectLanguage(s string) string {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return "ja"
		}
	}
	return "en"
}
