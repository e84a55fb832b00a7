package scrape

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/pkg/jina"
)

type stubReader struct {
	pages []*jina.Page
	errs  []error
	calls int
}

func (s *stubReader) Read(_ context.Context, _ string) (*jina.Page, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.pages) {
		return s.pages[i], nil
	}
	return s.pages[len(s.pages)-1], nil
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestReaderScraper_Success(t *testing.T) {
	reader := &stubReader{pages: []*jina.Page{{
		Title:         " ペガサス41 レビュー ",
		URL:           "https://runblog.example/p41?amp=1",
		Description:   "毎日のジョグに",
		Content:       "# 走り心地\n\n**柔らかい**クッションで[ジョグ](https://x.example)向き。",
		PublishedTime: "2025-02-01T09:00:00+09:00",
	}}}
	s := NewReaderScraper(reader, fastRetry(), nil)

	a, err := s.Scrape(context.Background(), "https://runblog.example/p41")
	require.NoError(t, err)

	assert.Equal(t, "https://runblog.example/p41", a.URL)
	assert.Equal(t, "https://runblog.example/p41?amp=1", a.FinalURL)
	assert.Equal(t, "ペガサス41 レビュー", a.Title)
	assert.Equal(t, "走り心地\n\n柔らかいクッションでジョグ向き。", a.Content)
	assert.Contains(t, a.Markdown, "**柔らかい**")
	assert.Equal(t, "毎日のジョグに", a.Metadata.Description)
	assert.Equal(t, "reader", a.Strategy)
	require.NotNil(t, a.PublishedAt)
	assert.Equal(t, 2025, a.PublishedAt.Year())
}

func TestReaderScraper_RetriesTransient(t *testing.T) {
	reader := &stubReader{
		errs:  []error{&jina.APIError{StatusCode: http.StatusServiceUnavailable}},
		pages: []*jina.Page{nil, {Title: "T", Content: "本文"}},
	}
	s := NewReaderScraper(reader, fastRetry(), nil)

	a, err := s.Scrape(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "本文", a.Content)
	assert.Equal(t, 2, reader.calls)
}

func TestReaderScraper_PermanentErrorIsScrapeError(t *testing.T) {
	reader := &stubReader{errs: []error{&jina.APIError{StatusCode: http.StatusForbidden}}}
	s := NewReaderScraper(reader, fastRetry(), nil)

	_, err := s.Scrape(context.Background(), "https://example.com/a")
	var se *ScrapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, 1, reader.calls)
}

func TestReaderScraper_EmptyContent(t *testing.T) {
	reader := &stubReader{pages: []*jina.Page{{Title: "T", Content: "  "}}}
	s := NewReaderScraper(reader, fastRetry(), nil)

	_, err := s.Scrape(context.Background(), "https://example.com/a")
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestReaderScraper_BreakerOpens(t *testing.T) {
	reader := &stubReader{errs: []error{
		&jina.APIError{StatusCode: http.StatusBadRequest},
		&jina.APIError{StatusCode: http.StatusBadRequest},
	}}
	breaker := resilience.NewCircuitBreaker("jina", resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	s := NewReaderScraper(reader, resilience.RetryConfig{MaxAttempts: 1}, breaker)

	for range 2 {
		_, err := s.Scrape(context.Background(), "https://example.com/a")
		require.Error(t, err)
	}
	_, err := s.Scrape(context.Background(), "https://example.com/a")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, reader.calls)
}

func TestChain_FallsBack(t *testing.T) {
	primary := new(mockScraper)
	fallback := new(mockScraper)
	primaryErr := &ScrapeError{URL: "u", StatusCode: http.StatusForbidden, Err: errors.New("forbidden")}
	primary.On("Scrape", mock.Anything, "u").Return(nil, primaryErr)
	fallback.On("Scrape", mock.Anything, "u").Return(&Article{URL: "u", Strategy: "reader"}, nil)

	a, err := NewChain(primary, nil, fallback).Scrape(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "reader", a.Strategy)
	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}

func TestChain_ReturnsFirstError(t *testing.T) {
	primary := new(mockScraper)
	fallback := new(mockScraper)
	primaryErr := &ScrapeError{URL: "u", StatusCode: http.StatusForbidden, Err: errors.New("forbidden")}
	primary.On("Scrape", mock.Anything, "u").Return(nil, primaryErr)
	fallback.On("Scrape", mock.Anything, "u").Return(nil, &ScrapeError{URL: "u", Err: ErrEmptyExtraction})

	_, err := NewChain(primary, fallback).Scrape(context.Background(), "u")
	var se *ScrapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestChain_StopsOnExcluded(t *testing.T) {
	primary := new(mockScraper)
	fallback := new(mockScraper)
	primary.On("Scrape", mock.Anything, "u").Return(nil, &ScrapeError{URL: "u", Err: ErrExcluded})

	_, err := NewChain(primary, fallback).Scrape(context.Background(), "u")
	assert.ErrorIs(t, err, ErrExcluded)
	fallback.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain().Scrape(context.Background(), "u")
	var se *ScrapeError
	assert.True(t, errors.As(err, &se))
}
