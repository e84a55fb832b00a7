package summarize

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/pkg/anthropic"
)

type mockAnthropicClient struct{ mock.Mock }

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*anthropic.MessageResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, sources []model.ReviewSource, brand, modelName string) (*model.Summary, error) {
	args := m.Called(ctx, sources, brand, modelName)
	if v := args.Get(0); v != nil {
		return v.(*model.Summary), args.Error(1)
	}
	return nil, args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 1200, OutputTokens: 300},
	}
}
