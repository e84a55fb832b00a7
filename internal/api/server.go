// Package api serves the curation and summary operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/curation"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/store"
	"github.com/sells-group/shoe-curation/internal/summarize"
)

// Body limits.
const (
	maxJSONBody     = 1 << 20
	maxWorkbookBody = 10 << 20
)

// Aggregator runs ad-hoc aggregation requests.
type Aggregator interface {
	Aggregate(ctx context.Context, p aggregate.Params) (*aggregate.Outcome, error)
	BreakerStates() map[string]string
}

// Curator manages curated sources and review collection.
type Curator interface {
	Refresh(ctx context.Context, shoeID string, opts curation.RefreshOptions) (*curation.RefreshResult, error)
	CreateManual(ctx context.Context, shoeID string, in curation.ManualInput) (*model.CuratedSource, error)
	List(ctx context.Context, shoeID string, typ model.SourceType, limit int) ([]model.CuratedSource, error)
	SetStatus(ctx context.Context, sourceID string, status model.SourceStatus) (*model.CuratedSource, error)
	Rescore(ctx context.Context, shoeID string) (*curation.RescoreResult, error)
	Collect(ctx context.Context, in curation.CollectInput) (*curation.CollectResult, error)
	AttachCurated(ctx context.Context, reviewID string, opts curation.AttachOptions) (*curation.AttachResult, error)
}

// Summarizer regenerates an AI summary review.
type Summarizer interface {
	Summarize(ctx context.Context, reviewID string) (*model.Review, error)
}

// Catalog is the read side of the store the handlers use directly.
type Catalog interface {
	GetShoe(ctx context.Context, id string) (*model.Shoe, error)
	GetReview(ctx context.Context, id string) (*model.Review, error)
	ListAttachedSources(ctx context.Context, reviewID string) ([]model.AttachedSource, error)
	ListSources(ctx context.Context, filter store.SourceFilter) ([]model.CuratedSource, error)
}

var (
	_ Aggregator = (*aggregate.Aggregator)(nil)
	_ Curator    = (*curation.Service)(nil)
	_ Summarizer = (*summarize.ReviewService)(nil)
	_ Catalog    = (store.Store)(nil)
)

// Server holds the handler dependencies.
type Server struct {
	agg         Aggregator
	curator     Curator
	summarizer  Summarizer
	catalog     Catalog
	corsOrigins []string
}

// New creates a Server. summarizer may be nil when no model key is
// configured; summarize requests then fail with 503.
func New(agg Aggregator, curator Curator, summarizer Summarizer, catalog Catalog, corsOrigins []string) *Server {
	return &Server{
		agg:         agg,
		curator:     curator,
		summarizer:  summarizer,
		catalog:     catalog,
		corsOrigins: corsOrigins,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Content-Disposition"},
		MaxAge:         int((5 * time.Minute).Seconds()),
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/curation/aggregate", s.handleAggregateQuery)
		r.Post("/curation/aggregate", s.handleAggregate)

		r.Route("/shoes/{shoeID}/curated-sources", func(r chi.Router) {
			r.Get("/", s.handleListSources)
			r.Post("/", s.handleCreateSource)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/rescore", s.handleRescore)
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
		})
		r.Patch("/curated-sources/{sourceID}", s.handleSetStatus)

		r.Post("/reviews/collect", s.handleCollect)
		r.Get("/reviews/{reviewID}", s.handleGetReview)
		r.Post("/reviews/{reviewID}/attach-curated", s.handleAttach)
		r.Post("/reviews/{reviewID}/summarize", s.handleSummarize)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"breakers": s.agg.BreakerStates(),
	})
}
