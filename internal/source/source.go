// Package source holds the per-kind fetchers that discover candidate review
// sources for a shoe. Every fetcher is independent: it returns an empty
// slice when the provider has nothing and a *ProviderError when the
// provider itself fails.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sells-group/shoe-curation/internal/fetcher"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/pkg/google"
	"github.com/sells-group/shoe-curation/pkg/rakuten"
	"github.com/sells-group/shoe-curation/pkg/serper"
	"github.com/sells-group/shoe-curation/pkg/youtube"
)

// Query is what every fetcher searches for.
type Query struct {
	Brand     string
	ModelName string
	// Locale is a BCP 47 tag such as "ja-JP".
	Locale        string
	MaxResults    int
	IncludeImages bool
}

// Terms returns "brand model".
func (q Query) Terms() string {
	return strings.TrimSpace(q.Brand + " " + q.ModelName)
}

// Language returns the primary language subtag, defaulting to "ja".
func (q Query) Language() string {
	lang, _, _ := strings.Cut(q.Locale, "-")
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "ja"
	}
	return lang
}

// Region returns the region subtag upper-cased, or "" when absent.
func (q Query) Region() string {
	_, region, ok := strings.Cut(q.Locale, "-")
	if !ok {
		return ""
	}
	return strings.ToUpper(region)
}

// Fetcher discovers candidates of a single source kind.
type Fetcher interface {
	Kind() model.SourceType
	Search(ctx context.Context, q Query) ([]model.RawSource, error)
}

// ProviderError reports that an external provider rejected or failed a
// request. StatusCode is 0 for network and configuration failures.
type ProviderError struct {
	Kind       model.SourceType
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider %s: status %d: %v", e.Kind, e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider %s: %v", e.Kind, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func newProviderError(kind model.SourceType, provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Kind: kind, Provider: provider, StatusCode: statusOf(err), Err: err}
}

// statusOf digs the HTTP status out of any client error type.
func statusOf(err error) int {
	var (
		yt *youtube.APIError
		sp *serper.APIError
		gg *google.APIError
		rk *rakuten.APIError
		st *fetcher.StatusError
		tr *resilience.TransientError
		pe *ProviderError
	)
	switch {
	case errors.As(err, &yt):
		return yt.StatusCode
	case errors.As(err, &sp):
		return sp.StatusCode
	case errors.As(err, &gg):
		return gg.StatusCode
	case errors.As(err, &rk):
		return rk.StatusCode
	case errors.As(err, &st):
		return st.StatusCode
	case errors.As(err, &tr):
		return tr.StatusCode
	case errors.As(err, &pe):
		return pe.StatusCode
	}
	return 0
}

// classify marks retryable provider failures as transient for resilience.Do.
func classify(err error) error {
	if err == nil {
		return nil
	}
	return resilience.ClassifyStatus(err, statusOf(err))
}

// call runs fn with retries, tagging the final failure as a ProviderError.
func call[T any](ctx context.Context, retry resilience.RetryConfig, kind model.SourceType, provider string, fn func(ctx context.Context) (T, error)) (T, error) {
	retry.OnRetry = resilience.RetryLogger(provider, string(kind))
	v, err := resilience.Do(ctx, retry, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		return v, classify(err)
	})
	if err != nil {
		var zero T
		return zero, newProviderError(kind, provider, err)
	}
	return v, nil
}
