package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "{\"title\":"},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: "\"x\"}"},
	}}
	assert.Equal(t, `{"title":"x"}`, resp.Text())

	var nilResp *MessageResponse
	assert.Empty(t, nilResp.Text())
}

func TestToSDKMessages_Roles(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
		{Role: "system", Content: "c"},
	})
	assert.Len(t, out, 3)
	assert.Equal(t, "user", string(out[0].Role))
	assert.Equal(t, "assistant", string(out[1].Role))
	assert.Equal(t, "user", string(out[2].Role))
}

func TestToSDKSystemBlocks(t *testing.T) {
	out := toSDKSystemBlocks([]SystemBlock{{Text: "one"}, {Text: "two"}})
	assert.Len(t, out, 2)
	assert.Equal(t, "two", out[1].Text)
}

func TestEstimateCost_Haiku(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, u.EstimateCost("claude-haiku-4-5-20251001"), 0.0001)
}

func TestEstimateCost_WithCache(t *testing.T) {
	u := TokenUsage{CacheCreationInputTokens: 1_000_000, CacheReadInputTokens: 1_000_000}
	// 3.00*1.25 + 3.00*0.1
	assert.InDelta(t, 4.05, u.EstimateCost("claude-sonnet-4-5-20250929"), 0.0001)
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	assert.Zero(t, TokenUsage{InputTokens: 500}.EstimateCost("gpt-4"))
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		TokenUsage{InputTokens: 10, OutputTokens: 5}.LogCost("claude-haiku-4-5-20251001", "summarize")
	})
}
