package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/rotisserie/eris"
)

// Tagger pulls candidate tag nouns out of Japanese and mixed-script titles.
type Tagger struct {
	t *tokenizer.Tokenizer
}

// NewTagger loads the IPA dictionary. It is slow enough that callers should
// build one Tagger per process.
func NewTagger() (*Tagger, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, eris.Wrap(err, "normalize: load tokenizer")
	}
	return &Tagger{t: t}, nil
}

var nounStopwords = map[string]bool{
	"レビュー": true, "こと": true, "もの": true, "よう": true, "ため": true,
	"これ": true, "それ": true, "さん": true, "比較": true, "おすすめ": true,
}

// Nouns returns up to limit distinct nouns of two or more runes in order of
// appearance, skipping numbers, pronouns, suffixes and stopwords.
func (tg *Tagger) Nouns(text string, limit int) []string {
	if tg == nil || limit <= 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tg.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		f := tok.Features()
		if len(f) < 2 || f[0] != "名詞" {
			continue
		}
		switch f[1] {
		case "数", "代名詞", "接尾", "非自立":
			continue
		}
		surface := strings.TrimSpace(tok.Surface)
		if utf8.RuneCountInString(surface) < 2 || nounStopwords[surface] || seen[strings.ToLower(surface)] {
			continue
		}
		seen[strings.ToLower(surface)] = true
		out = append(out, surface)
		if len(out) == limit {
			break
		}
	}
	return out
}

// MergeTags appends candidates to base, skipping blanks and case-insensitive
// duplicates, until limit tags are collected.
func MergeTags(limit int, base []string, candidates ...[]string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	add := func(tags []string) {
		for _, tag := range tags {
			tag = Text(tag)
			key := strings.ToLower(tag)
			if tag == "" || seen[key] || len(out) >= limit {
				continue
			}
			seen[key] = true
			out = append(out, tag)
		}
	}
	add(base)
	for _, c := range candidates {
		add(c)
	}
	return out
}
