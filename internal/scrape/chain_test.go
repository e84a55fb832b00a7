package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Scrape(ctx context.Context, url string) (*Article, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Article), args.Error(1)
}

func TestScrapeAll_SkipsFailures(t *testing.T) {
	s := new(mockScraper)
	s.On("Scrape", mock.Anything, "https://a.example/1").Return(&Article{URL: "https://a.example/1", Title: "one"}, nil)
	s.On("Scrape", mock.Anything, "https://a.example/2").Return(nil, &ScrapeError{URL: "https://a.example/2", StatusCode: 404, Err: errors.New("not found")})
	s.On("Scrape", mock.Anything, "https://a.example/3").Return(&Article{URL: "https://a.example/3", Title: "three"}, nil)

	got := ScrapeAll(context.Background(), s, []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}, 2)

	assert.Len(t, got, 2)
	assert.Equal(t, "one", got["https://a.example/1"].Title)
	assert.Equal(t, "three", got["https://a.example/3"].Title)
	assert.NotContains(t, got, "https://a.example/2")
	s.AssertExpectations(t)
}

func TestScrapeAll_Empty(t *testing.T) {
	assert.Empty(t, ScrapeAll(context.Background(), new(mockScraper), nil, 0))
}
