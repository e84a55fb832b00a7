// Package store persists shoes, curated sources and AI summary reviews.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/shoe-curation/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = eris.New("store: not found")
	// ErrDuplicateSource is returned when a URL is already stored for the
	// same shoe or review.
	ErrDuplicateSource = eris.New("store: source url already exists")
)

// List limits for curated sources.
const (
	DefaultListLimit = 12
	MaxListLimit     = 30
)

// SourceFilter selects curated sources. Empty fields do not filter.
type SourceFilter struct {
	ShoeID string             `json:"shoe_id,omitempty"`
	Type   model.SourceType   `json:"type,omitempty"`
	Status model.SourceStatus `json:"status,omitempty"`
	Limit  int                `json:"limit,omitempty"`
}

// EffectiveLimit applies the default and the cap.
func (f SourceFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for the curation pipeline.
type Store interface {
	// Shoes
	GetShoe(ctx context.Context, id string) (*model.Shoe, error)
	SaveShoe(ctx context.Context, shoe *model.Shoe) error

	// Curated sources
	ListSourceURLs(ctx context.Context, shoeID string) (map[string]bool, error)
	// InsertSources skips rows whose (shoe_id, url) already exists and
	// returns how many rows were actually inserted.
	InsertSources(ctx context.Context, sources []model.CuratedSource) (int, error)
	CreateSource(ctx context.Context, src *model.CuratedSource) error
	GetSource(ctx context.Context, id string) (*model.CuratedSource, error)
	ListSources(ctx context.Context, filter SourceFilter) ([]model.CuratedSource, error)
	UpdateSourceStatus(ctx context.Context, id string, status model.SourceStatus) (*model.CuratedSource, error)
	// UpdateReliability sets reliability for every source of type t (of one
	// shoe, or all shoes when shoeID is empty) that differs from score.
	UpdateReliability(ctx context.Context, shoeID string, t model.SourceType, score float64) (int, error)

	// Reviews
	GetReview(ctx context.Context, id string) (*model.Review, error)
	CreateReview(ctx context.Context, review *model.Review) error
	FindAISummaryReview(ctx context.Context, shoeID string) (*model.Review, error)
	ListAttachedSources(ctx context.Context, reviewID string) ([]model.AttachedSource, error)
	// AttachSource stores src and recounts the review's source_count.
	AttachSource(ctx context.Context, src *model.AttachedSource) error
	// UpdateReviewSummary writes every summary field and source_count in
	// one statement.
	UpdateReviewSummary(ctx context.Context, reviewID string, s model.Summary, sourceCount int) (*model.Review, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var sourceColumns = []string{
	"id", "shoe_id", "type", "platform", "title", "excerpt", "url", "author",
	"thumbnail_url", "tags", "reliability", "status", "language", "country",
	"published_at", "scraped_at", "created_at", "updated_at",
}

const (
	reviewColumns   = "id, shoe_id, type, title, content, pros, cons, recommended_for, source_count, is_published, is_draft, created_at, updated_at"
	attachedColumns = "id, review_id, type, title, content, author, url, summary, video_id, scraped_at"
	shoeColumns     = "id, brand, model_name, category, keywords, locale, region"
)

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*model.CuratedSource, error) {
	var (
		src  model.CuratedSource
		tags []byte
	)
	err := row.Scan(
		&src.ID, &src.ShoeID, &src.Type, &src.Platform, &src.Title, &src.Excerpt, &src.URL, &src.Author,
		&src.ThumbnailURL, &tags, &src.Reliability, &src.Status, &src.Language, &src.Country,
		&src.PublishedAt, &src.ScrapedAt, &src.CreatedAt, &src.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalList(tags, &src.Tags); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal tags")
	}
	return &src, nil
}

func scanReview(row rowScanner) (*model.Review, error) {
	var (
		r          model.Review
		pros, cons []byte
	)
	err := row.Scan(
		&r.ID, &r.ShoeID, &r.Type, &r.Title, &r.Content, &pros, &cons, &r.RecommendedFor,
		&r.SourceCount, &r.IsPublished, &r.IsDraft, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalList(pros, &r.Pros); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal pros")
	}
	if err := unmarshalList(cons, &r.Cons); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal cons")
	}
	return &r, nil
}

func scanAttached(row rowScanner) (*model.AttachedSource, error) {
	var a model.AttachedSource
	err := row.Scan(&a.ID, &a.ReviewID, &a.Type, &a.Title, &a.Content, &a.Author, &a.URL, &a.Summary, &a.VideoID, &a.ScrapedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanShoe(row rowScanner) (*model.Shoe, error) {
	var (
		s        model.Shoe
		keywords []byte
	)
	if err := row.Scan(&s.ID, &s.Brand, &s.ModelName, &s.Category, &keywords, &s.Locale, &s.Region); err != nil {
		return nil, err
	}
	if err := unmarshalList(keywords, &s.Keywords); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal keywords")
	}
	return &s, nil
}

// marshalList encodes a string list as JSON text for JSONB and TEXT columns.
func marshalList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func unmarshalList(data []byte, dst *[]string) error {
	*dst = []string{}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// listSourcesQuery builds the curated source listing with squirrel so the
// optional filters compose for both placeholder styles.
func listSourcesQuery(f SourceFilter, ph sq.PlaceholderFormat) (string, []any, error) {
	q := sq.Select(sourceColumns...).From("curated_sources").PlaceholderFormat(ph)
	if f.ShoeID != "" {
		q = q.Where(sq.Eq{"shoe_id": f.ShoeID})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Type != "" {
		q = q.Where(sq.Eq{"type": string(f.Type)})
	}
	q = q.OrderBy("reliability DESC", "published_at DESC NULLS LAST", "created_at DESC").
		Limit(uint64(f.EffectiveLimit()))
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build list query")
	}
	return sqlStr, args, nil
}

func updateReliabilityQuery(shoeID string, t model.SourceType, score float64, now any, ph sq.PlaceholderFormat) (string, []any, error) {
	q := sq.Update("curated_sources").PlaceholderFormat(ph).
		Set("reliability", score).
		Set("updated_at", now).
		Where(sq.Eq{"type": string(t)}).
		Where(sq.NotEq{"reliability": score})
	if shoeID != "" {
		q = q.Where(sq.Eq{"shoe_id": shoeID})
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build rescore query")
	}
	return sqlStr, args, nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// prepareSource assigns an id and timestamps to a row about to be inserted.
func prepareSource(src *model.CuratedSource) {
	now := time.Now().UTC()
	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	if src.ScrapedAt.IsZero() {
		src.ScrapedAt = now
	}
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	src.UpdatedAt = now
	if src.Tags == nil {
		src.Tags = []string{}
	}
}

func sourceValues(src *model.CuratedSource) []any {
	var published any
	if src.PublishedAt != nil {
		published = src.PublishedAt.UTC()
	}
	return []any{
		src.ID, src.ShoeID, string(src.Type), src.Platform, src.Title, src.Excerpt, src.URL, src.Author,
		src.ThumbnailURL, marshalList(src.Tags), src.Reliability, string(src.Status), src.Language, src.Country,
		published, src.ScrapedAt, src.CreatedAt, src.UpdatedAt,
	}
}

func prepareReview(r *model.Review) {
	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if r.Pros == nil {
		r.Pros = []string{}
	}
	if r.Cons == nil {
		r.Cons = []string{}
	}
}

func reviewValues(r *model.Review) []any {
	return []any{
		r.ID, r.ShoeID, string(r.Type), r.Title, r.Content, marshalList(r.Pros), marshalList(r.Cons),
		r.RecommendedFor, r.SourceCount, r.IsPublished, r.IsDraft, r.CreatedAt, r.UpdatedAt,
	}
}

func prepareAttached(a *model.AttachedSource) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.ScrapedAt.IsZero() {
		a.ScrapedAt = time.Now().UTC()
	}
}

func attachedValues(a *model.AttachedSource) []any {
	return []any{a.ID, a.ReviewID, string(a.Type), a.Title, a.Content, a.Author, a.URL, a.Summary, a.VideoID, a.ScrapedAt}
}
