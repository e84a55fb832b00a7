package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
)

// KindStat is the count and share of one source kind.
type KindStat struct {
	Kind  model.SourceType `json:"kind"`
	Count int              `json:"count"`
	Share float64          `json:"share"`
}

// Stats summarizes an aggregated candidate list.
type Stats struct {
	Total          int            `json:"total"`
	ByKind         []KindStat     `json:"byKind"`
	Languages      map[string]int `json:"languages"`
	RecommendedFor []string       `json:"recommendedFor"`
}

// runnerKeywords maps a runner profile to the words that suggest it.
var runnerKeywords = []struct {
	profile  string
	keywords []string
}{
	{"初心者", []string{"beginner", "first", "初心者", "入門", "easy"}},
	{"中級者", []string{"intermediate", "versatile", "中級", "all-around"}},
	{"上級者", []string{"advanced", "elite", "race", "上級", "プロ"}},
	{"デイリートレーナー", []string{"daily", "everyday", "training", "トレーニング", "練習用"}},
	{"レース用", []string{"race", "racing", "fast", "speed", "スピード", "テンポ", "tempo", "レース", "大会"}},
	{"ロング走", []string{"long run", "marathon", "distance", "ロング", "マラソン", "長距離"}},
	{"リカバリー", []string{"recovery", "easy", "comfortable", "リカバリー", "回復", "クッション", "cushion"}},
	{"トレイル", []string{"trail", "off-road", "トレイル", "山"}},
}

// maxRecommended is how many runner profiles Summarize returns.
const maxRecommended = 3

// Summarize computes per-kind shares, the language mix and up to three
// runner profiles the sources point at.
func Summarize(sources []model.RawSource) Stats {
	st := Stats{Total: len(sources), ByKind: []KindStat{}, Languages: map[string]int{}, RecommendedFor: []string{}}
	if len(sources) == 0 {
		return st
	}

	counts := make(map[model.SourceType]int)
	scores := make(map[string]int)
	for _, s := range sources {
		counts[s.SourceType]++
		text := s.Title + " " + s.Excerpt
		st.Languages[normalize.DetectLanguage(text)]++

		lower := strings.ToLower(normalize.Text(text))
		for _, rk := range runnerKeywords {
			for _, kw := range rk.keywords {
				if strings.Contains(lower, kw) {
					scores[rk.profile]++
				}
			}
		}
	}

	for _, k := range model.AllSourceTypes() {
		if c := counts[k]; c > 0 {
			share := math.Round(float64(c)/float64(len(sources))*1000) / 1000
			st.ByKind = append(st.ByKind, KindStat{Kind: k, Count: c, Share: share})
		}
	}

	profiles := make([]string, 0, len(scores))
	for _, rk := range runnerKeywords {
		if scores[rk.profile] > 0 {
			profiles = append(profiles, rk.profile)
		}
	}
	sort.SliceStable(profiles, func(i, j int) bool { return scores[profiles[i]] > scores[profiles[j]] })
	if len(profiles) > maxRecommended {
		profiles = profiles[:maxRecommended]
	}
	st.RecommendedFor = profiles
	return st
}
