// Package summarize merges a shoe's review sources into one structured
// AI summary with the Anthropic Messages API.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
	"github.com/sells-group/shoe-curation/pkg/anthropic"
)

// Generation defaults.
const (
	DefaultModel       = "claude-haiku-4-5-20251001"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.3
	// MaxSourceRunes bounds each source's content in the prompt.
	MaxSourceRunes = 2000
	// MaxRating is the top of the overall rating scale.
	MaxRating = 10.0
)

const systemPrompt = "あなたはランニングシューズのレビューを統合する編集者です。指定されたJSONオブジェクトだけを出力してください。"

// SummarizationError reports a summary that could not be produced. The
// target review is never modified when one is returned. Precondition is
// true when the request itself was unsummarizable (wrong review kind, no
// sources) rather than generation failing.
type SummarizationError struct {
	Reason       string
	Precondition bool
	Err          error
}

func (e *SummarizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("summarize: %s: %v", e.Reason, e.Err)
	}
	return "summarize: " + e.Reason
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// Config tunes generation. Zero values take the defaults.
type Config struct {
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// Summarizer produces a Summary from review sources. It does no persistence.
type Summarizer struct {
	client anthropic.Client
	cfg    Config
}

// New creates a Summarizer.
func New(client anthropic.Client, cfg Config) *Summarizer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &Summarizer{client: client, cfg: cfg}
}

// Generate asks the model for a structured summary of sources. Any failure,
// including an empty source list or an unusable reply, is a
// *SummarizationError.
func (s *Summarizer) Generate(ctx context.Context, sources []model.ReviewSource, brand, modelName string) (*model.Summary, error) {
	if len(sources) == 0 {
		return nil, &SummarizationError{Reason: "no sources to summarize", Precondition: true}
	}

	temp := s.cfg.Temperature
	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: &temp,
		System:      []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: BuildPrompt(sources, brand, modelName)},
		},
	})
	if err != nil {
		return nil, &SummarizationError{Reason: "generation failed", Err: err}
	}
	resp.Usage.LogCost(s.cfg.Model, "summarize")

	sum, err := ParseSummary(resp.Text())
	if err != nil {
		zap.L().Warn("summarize: unusable model reply",
			zap.String("shoe", strings.TrimSpace(brand+" "+modelName)),
			zap.String("stop_reason", resp.StopReason),
			zap.Error(err),
		)
		return nil, err
	}
	return sum, nil
}

// kindLabel names a source kind in the prompt.
func kindLabel(t model.SourceType) string {
	switch t {
	case model.SourceVideo:
		return "YouTube動画"
	case model.SourceOfficial:
		return "公式情報"
	case model.SourceMarketplace:
		return "販売サイトのレビュー"
	case model.SourceSNS:
		return "SNS投稿"
	case model.SourceCommunity:
		return "コミュニティの投稿"
	}
	return "Web記事"
}

// BuildPrompt renders the user prompt for sources.
func BuildPrompt(sources []model.ReviewSource, brand, modelName string) string {
	shoe := strings.TrimSpace(brand + " " + modelName)

	var b strings.Builder
	fmt.Fprintf(&b, "以下の情報源をもとに「%s」のレビューを1つに統合してください。\n", shoe)
	b.WriteString("特定の情報源をそのまま引用せず、複数の情報源に共通する評価を中心にまとめてください。\n\n")

	for i, src := range sources {
		title := strings.TrimSpace(src.Title)
		if title == "" {
			title = "タイトル不明"
		}
		content := strings.TrimSpace(src.Content)
		if content == "" {
			content = strings.TrimSpace(src.Summary)
		}
		fmt.Fprintf(&b, "[%d] %s\nタイトル: %s\n", i+1, kindLabel(src.Type), title)
		if src.Author != "" {
			fmt.Fprintf(&b, "著者: %s\n", src.Author)
		}
		if src.Summary != "" && src.Summary != content {
			fmt.Fprintf(&b, "要約: %s\n", normalize.Clamp(src.Summary, MaxSourceRunes))
		}
		fmt.Fprintf(&b, "内容: %s\n\n", normalize.Clamp(content, MaxSourceRunes))
	}

	fmt.Fprintf(&b, `次の形式のJSONオブジェクトで出力してください。
{
  "title": "40-60文字のタイトル。「%s」を必ず含める",
  "overall_rating": 0.0から10.0の総合評価（小数第1位まで）,
  "pros": ["良い点", "..."],
  "cons": ["気になる点", "..."],
  "recommended_for": "おすすめのランナー像（例: 初心者、マラソンランナー、スピード練習向け）",
  "summary": "200-300文字の総評"
}`, shoe)
	return b.String()
}

type summaryJSON struct {
	Title          string   `json:"title"`
	OverallRating  *float64 `json:"overall_rating"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
	RecommendedFor string   `json:"recommended_for"`
	Summary        string   `json:"summary"`
}

// ParseSummary decodes a model reply, tolerating code fences and text
// around the JSON object. Empty title or summary, or no pros and no cons,
// is malformed.
func ParseSummary(text string) (*model.Summary, error) {
	var raw summaryJSON
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, &SummarizationError{Reason: "reply is not valid JSON", Err: err}
	}

	sum := &model.Summary{
		Title:          normalize.Text(raw.Title),
		Pros:           cleanList(raw.Pros),
		Cons:           cleanList(raw.Cons),
		RecommendedFor: normalize.Text(raw.RecommendedFor),
		Summary:        strings.TrimSpace(raw.Summary),
	}
	if raw.OverallRating != nil {
		r := min(max(*raw.OverallRating, 0), MaxRating)
		sum.OverallRating = math.Round(r*10) / 10
	}

	switch {
	case sum.Title == "":
		return nil, &SummarizationError{Reason: "reply has no title"}
	case sum.Summary == "":
		return nil, &SummarizationError{Reason: "reply has no summary"}
	case len(sum.Pros) == 0 && len(sum.Cons) == 0:
		return nil, &SummarizationError{Reason: "reply has neither pros nor cons"}
	}
	return sum, nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = normalize.Text(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// cleanJSON strips markdown code fences and anything outside the outermost
// JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(text, "```json"); ok {
		text = rest
	} else if rest, ok := strings.CutPrefix(text, "```"); ok {
		text = rest
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
