package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/pkg/anthropic"
)

const goodReply = "```json\n" + `{
  "title": "Nike Pegasus 41を300km走って分かったこと",
  "overall_rating": 8.46,
  "pros": ["クッションが柔らかい", " 耐久性が高い "],
  "cons": ["やや重い"],
  "recommended_for": "初心者からサブ4ランナー",
  "summary": "日々のジョグからロング走までこなせる万能モデル。"
}` + "\n```"

func testSources() []model.ReviewSource {
	return []model.ReviewSource{
		{Type: model.SourceArticle, Title: "Pegasus 41 レビュー", Content: "クッションが柔らかく…", Author: "山田", URL: "https://a.example/1"},
		{Type: model.SourceVideo, Title: "", Summary: "耐久性のテスト", URL: "https://www.youtube.com/watch?v=x"},
	}
}

func TestGenerate_Success(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == DefaultModel && req.MaxTokens == DefaultMaxTokens &&
			req.Temperature != nil && *req.Temperature == DefaultTemperature &&
			len(req.System) == 1 && len(req.Messages) == 1 &&
			strings.Contains(req.Messages[0].Content, "Nike Pegasus 41")
	})).Return(textResponse(goodReply), nil)

	s := New(client, Config{})
	sum, err := s.Generate(context.Background(), testSources(), "Nike", "Pegasus 41")
	require.NoError(t, err)
	assert.Equal(t, "Nike Pegasus 41を300km走って分かったこと", sum.Title)
	assert.Equal(t, 8.5, sum.OverallRating)
	assert.Equal(t, []string{"クッションが柔らかい", "耐久性が高い"}, sum.Pros)
	assert.Equal(t, []string{"やや重い"}, sum.Cons)
	assert.Equal(t, "初心者からサブ4ランナー", sum.RecommendedFor)
	client.AssertExpectations(t)
}

func TestGenerate_NoSources(t *testing.T) {
	client := &mockAnthropicClient{}
	s := New(client, Config{})

	_, err := s.Generate(context.Background(), nil, "Nike", "Pegasus 41")
	var se *SummarizationError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Precondition)
	client.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestGenerate_ClientError(t *testing.T) {
	client := &mockAnthropicClient{}
	apiErr := errors.New("overloaded")
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, apiErr)

	_, err := New(client, Config{}).Generate(context.Background(), testSources(), "Nike", "Pegasus 41")
	var se *SummarizationError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Precondition)
	assert.ErrorIs(t, err, apiErr)
}

func TestGenerate_MalformedReply(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("申し訳ありませんが、要約できません。"), nil)

	_, err := New(client, Config{}).Generate(context.Background(), testSources(), "Nike", "Pegasus 41")
	var se *SummarizationError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "not valid JSON")
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"bare object", `{"title":"t","pros":["a"],"cons":[],"summary":"s"}`, ""},
		{"surrounding text", `はい。{"title":"t","pros":[],"cons":["b"],"summary":"s"} 以上です。`, ""},
		{"no title", `{"title":" ","pros":["a"],"summary":"s"}`, "no title"},
		{"no summary", `{"title":"t","pros":["a"],"summary":""}`, "no summary"},
		{"no pros or cons", `{"title":"t","pros":[""],"cons":[],"summary":"s"}`, "neither pros nor cons"},
		{"not json", `title: t`, "not valid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := ParseSummary(tt.text)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "t", sum.Title)
				return
			}
			var se *SummarizationError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Reason, tt.wantErr)
		})
	}
}

func TestParseSummary_ClampsRating(t *testing.T) {
	sum, err := ParseSummary(`{"title":"t","overall_rating":14,"pros":["a"],"summary":"s"}`)
	require.NoError(t, err)
	assert.Equal(t, MaxRating, sum.OverallRating)

	sum, err = ParseSummary(`{"title":"t","pros":["a"],"summary":"s"}`)
	require.NoError(t, err)
	assert.Zero(t, sum.OverallRating)
}

func TestBuildPrompt(t *testing.T) {
	long := strings.Repeat("あ", MaxSourceRunes+50)
	sources := append(testSources(), model.ReviewSource{Type: model.SourceCommunity, Title: "掲示板", Content: long})

	p := BuildPrompt(sources, "Nike", "Pegasus 41")
	assert.Contains(t, p, "「Nike Pegasus 41」")
	assert.Contains(t, p, "[1] Web記事\nタイトル: Pegasus 41 レビュー\n著者: 山田\n")
	assert.Contains(t, p, "[2] YouTube動画\nタイトル: タイトル不明\n内容: 耐久性のテスト")
	assert.NotContains(t, p, "要約: 耐久性のテスト")
	assert.Contains(t, p, "[3] コミュニティの投稿")
	assert.NotContains(t, p, long)
	assert.Contains(t, p, `"overall_rating"`)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`  {"a":1}  `))
	assert.Equal(t, "none", cleanJSON("none"))
}
