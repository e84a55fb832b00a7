package summarize

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/model"
)

// ReviewStore is the part of store.Store the review service uses.
type ReviewStore interface {
	GetShoe(ctx context.Context, id string) (*model.Shoe, error)
	GetReview(ctx context.Context, id string) (*model.Review, error)
	ListAttachedSources(ctx context.Context, reviewID string) ([]model.AttachedSource, error)
	UpdateReviewSummary(ctx context.Context, reviewID string, s model.Summary, sourceCount int) (*model.Review, error)
}

// Generator produces a summary from sources.
type Generator interface {
	Generate(ctx context.Context, sources []model.ReviewSource, brand, modelName string) (*model.Summary, error)
}

var _ Generator = (*Summarizer)(nil)

// ReviewService writes generated summaries onto AI summary reviews.
type ReviewService struct {
	store ReviewStore
	gen   Generator
}

// NewReviewService creates a ReviewService.
func NewReviewService(st ReviewStore, gen Generator) *ReviewService {
	return &ReviewService{store: st, gen: gen}
}

// Summarize regenerates the summary of an AI_SUMMARY review from its
// attached sources and stores it together with the source count. The review
// is left untouched on any error.
func (r *ReviewService) Summarize(ctx context.Context, reviewID string) (*model.Review, error) {
	review, err := r.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, eris.Wrap(err, "summarize: load review")
	}
	if review.Type != model.ReviewAISummary {
		return nil, &SummarizationError{Reason: "only AI_SUMMARY reviews can be summarized", Precondition: true}
	}

	attached, err := r.store.ListAttachedSources(ctx, review.ID)
	if err != nil {
		return nil, eris.Wrap(err, "summarize: load sources")
	}
	if len(attached) == 0 {
		return nil, &SummarizationError{Reason: "review has no sources", Precondition: true}
	}

	shoe, err := r.store.GetShoe(ctx, review.ShoeID)
	if err != nil {
		return nil, eris.Wrap(err, "summarize: load shoe")
	}

	sources := make([]model.ReviewSource, len(attached))
	for i, a := range attached {
		sources[i] = a.ReviewSource
	}

	sum, err := r.gen.Generate(ctx, sources, shoe.Brand, shoe.ModelName)
	if err != nil {
		return nil, err
	}

	updated, err := r.store.UpdateReviewSummary(ctx, review.ID, *sum, len(sources))
	if err != nil {
		return nil, eris.Wrap(err, "summarize: save review")
	}
	zap.L().Info("summarize: review updated",
		zap.String("review_id", review.ID),
		zap.String("shoe", shoe.DisplayName()),
		zap.Int("source_count", len(sources)),
		zap.Float64("overall_rating", sum.OverallRating),
	)
	return updated, nil
}
