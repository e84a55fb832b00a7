// Package aggregate fans one shoe query out to every requested source kind
// and merges the surviving results into a single ranked candidate list.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
	"github.com/sells-group/shoe-curation/internal/resilience"
	"github.com/sells-group/shoe-curation/internal/scorer"
	"github.com/sells-group/shoe-curation/internal/source"
)

// Request defaults.
const (
	DefaultMaxResults = 30
	MaxMaxResults     = 50
	DefaultLocale     = "ja"
	DefaultTimeout    = 20 * time.Second
)

// ErrNoFetcher is the failure recorded for a requested kind with no
// registered fetcher.
var ErrNoFetcher = eris.New("aggregate: no fetcher configured for source kind")

// Params is one aggregation request.
type Params struct {
	Brand      string             `json:"brand"`
	ModelName  string             `json:"modelName"`
	MaxResults int                `json:"maxResults,omitempty"`
	Sources    []model.SourceType `json:"sources,omitempty"`
	Locale     string             `json:"locale,omitempty"`
	// IncludeImages keeps thumbnails. HTTP and CLI callers default it to true.
	IncludeImages bool `json:"includeImages"`
}

// Validate checks the request and fills defaults.
func (p *Params) Validate() error {
	var v model.ValidationError
	p.Brand = normalize.Text(p.Brand)
	p.ModelName = normalize.Text(p.ModelName)
	if p.Brand == "" {
		v.Add("brand", "is required")
	}
	if p.ModelName == "" {
		v.Add("modelName", "is required")
	}
	switch {
	case p.MaxResults < 0:
		v.Add("maxResults", "must be positive")
	case p.MaxResults == 0:
		p.MaxResults = DefaultMaxResults
	case p.MaxResults > MaxMaxResults:
		p.MaxResults = MaxMaxResults
	}
	for _, k := range p.Sources {
		if !k.Valid() {
			v.Add("sources", "unknown source kind %q", k)
		}
	}
	if strings.TrimSpace(p.Locale) == "" {
		p.Locale = DefaultLocale
	}
	return v.Err()
}

// Result is the outcome of one source kind. Exactly one of Sources and Err
// is meaningful.
type Result struct {
	Kind     model.SourceType
	Sources  []model.RawSource
	Err      error
	Duration time.Duration
}

// OK reports whether the kind succeeded.
func (r Result) OK() bool { return r.Err == nil }

// KindError is a failure reported for one source kind.
type KindError struct {
	Kind    model.SourceType `json:"kind"`
	Message string           `json:"message"`
}

// Outcome is the merged aggregation response.
type Outcome struct {
	Success  bool              `json:"success"`
	Data     []model.RawSource `json:"data"`
	Warnings []string          `json:"warnings"`
	Errors   []KindError       `json:"errors,omitempty"`
	Stats    *Stats            `json:"stats,omitempty"`
	Results  []Result          `json:"-"`
}

// Err returns an *AggregationFailure when every attempted kind failed.
func (o *Outcome) Err() error {
	if o.Success {
		return nil
	}
	f := &AggregationFailure{Errors: o.Errors}
	for _, r := range o.Results {
		if r.Err != nil {
			f.causes = append(f.causes, r.Err)
		}
	}
	return f
}

// AggregationFailure reports that no source kind produced results.
type AggregationFailure struct {
	Errors []KindError
	causes []error
}

func (e *AggregationFailure) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ke := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %s", ke.Kind, ke.Message)
	}
	return fmt.Sprintf("aggregate: all %d source kinds failed: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *AggregationFailure) Unwrap() []error { return e.causes }

// Options tunes an Aggregator. Zero values take defaults.
type Options struct {
	// Timeout bounds each fetcher call.
	Timeout       time.Duration
	MaxConcurrent int
	// RatePerSec paces fetcher starts across one run; 0 disables pacing.
	RatePerSec float64
	Breakers   *resilience.Breakers
	Policy     scorer.Policy
}

// Aggregator owns the fetcher registry.
type Aggregator struct {
	fetchers map[model.SourceType]source.Fetcher
	opts     Options
	limiter  *rate.Limiter
}

// New registers fetchers by their Kind. A later fetcher for the same kind
// replaces an earlier one; nil fetchers are skipped.
func New(opts Options, fetchers ...source.Fetcher) *Aggregator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = len(model.AllSourceTypes())
	}
	if opts.Breakers == nil {
		opts.Breakers = resilience.NewBreakers(resilience.DefaultCircuitBreakerConfig())
	}
	if opts.Policy == nil {
		opts.Policy = scorer.DefaultPolicy
	}
	a := &Aggregator{fetchers: make(map[model.SourceType]source.Fetcher), opts: opts}
	if opts.RatePerSec > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	for _, f := range fetchers {
		if f != nil {
			a.fetchers[f.Kind()] = f
		}
	}
	return a
}

// Kinds returns the registered kinds in display order.
func (a *Aggregator) Kinds() []model.SourceType {
	var out []model.SourceType
	for _, k := range model.AllSourceTypes() {
		if _, ok := a.fetchers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// BreakerStates reports each kind's circuit state.
func (a *Aggregator) BreakerStates() map[string]string {
	return a.opts.Breakers.States()
}

// Aggregate runs every requested kind concurrently. Only invalid params
// return an error; provider failures are reported in the Outcome, and
// Outcome.Success is false only when every attempted kind failed.
func (a *Aggregator) Aggregate(ctx context.Context, p Params) (*Outcome, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	kinds := a.requestedKinds(p.Sources)
	if len(kinds) == 0 {
		return nil, &model.ValidationError{Fields: []model.FieldError{{Field: "sources", Message: "no source kinds are configured"}}}
	}

	q := source.Query{
		Brand:         p.Brand,
		ModelName:     p.ModelName,
		Locale:        p.Locale,
		MaxResults:    PerKindCap(p.MaxResults, len(kinds)),
		IncludeImages: p.IncludeImages,
	}

	results := a.fanOut(ctx, kinds, q)
	return a.merge(p, kinds, results), nil
}

func (a *Aggregator) requestedKinds(requested []model.SourceType) []model.SourceType {
	if len(requested) == 0 {
		return a.Kinds()
	}
	seen := make(map[model.SourceType]bool, len(requested))
	var out []model.SourceType
	for _, k := range requested {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// PerKindCap splits maxResults across kinds with a little headroom for
// duplicates: ceil(max/kinds)+2, never above max.
func PerKindCap(maxResults, kinds int) int {
	if kinds <= 0 {
		return maxResults
	}
	c := (maxResults+kinds-1)/kinds + 2
	return min(c, maxResults)
}

func (a *Aggregator) fanOut(ctx context.Context, kinds []model.SourceType, q source.Query) []Result {
	results := make([]Result, len(kinds))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.MaxConcurrent)
	for i, kind := range kinds {
		g.Go(func() error {
			results[i] = a.runKind(gCtx, kind, q)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *Aggregator) runKind(ctx context.Context, kind model.SourceType, q source.Query) Result {
	start := time.Now()
	res := Result{Kind: kind}

	f, ok := a.fetchers[kind]
	if !ok {
		res.Err = ErrNoFetcher
		return res
	}
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			res.Err = eris.Wrap(err, "aggregate: rate limiter wait")
			return res
		}
	}

	sources, err := resilience.Call(ctx, a.opts.Breakers.Get(string(kind)), func(ctx context.Context) ([]model.RawSource, error) {
		callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
		out, err := f.Search(callCtx, q)
		if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = eris.Wrapf(err, "aggregate: %s timed out after %s", kind, a.opts.Timeout)
		}
		return out, err
	})
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		zap.L().Warn("aggregate: source kind failed",
			zap.String("source_kind", string(kind)),
			zap.Duration("duration", res.Duration),
			zap.Error(err),
		)
		return res
	}
	res.Sources = sources
	zap.L().Debug("aggregate: source kind done",
		zap.String("source_kind", string(kind)),
		zap.Int("count", len(sources)),
		zap.Duration("duration", res.Duration),
	)
	return res
}

func (a *Aggregator) merge(p Params, kinds []model.SourceType, results []Result) *Outcome {
	allowed := make(map[model.SourceType]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	out := &Outcome{Data: []model.RawSource{}, Warnings: []string{}, Results: results}
	seen := make(map[string]bool)
	succeeded := 0
	for _, r := range results {
		if r.Err != nil {
			msg := r.Err.Error()
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", r.Kind, msg))
			out.Errors = append(out.Errors, KindError{Kind: r.Kind, Message: msg})
			continue
		}
		succeeded++
		for _, raw := range r.Sources {
			n := normalize.Normalize(raw, r.Kind)
			if n.URL == "" || n.Title == "" || !allowed[n.SourceType] || seen[n.URL] {
				continue
			}
			seen[n.URL] = true
			if !p.IncludeImages {
				n.ThumbnailURL = ""
			}
			out.Data = append(out.Data, n)
		}
	}

	out.Success = succeeded > 0
	if !out.Success {
		out.Data = []model.RawSource{}
		return out
	}
	out.Errors = nil

	scorer.RankRaw(out.Data, a.opts.Policy)
	if len(out.Data) > p.MaxResults {
		out.Data = out.Data[:p.MaxResults]
	}
	st := Summarize(out.Data)
	out.Stats = &st
	return out
}
