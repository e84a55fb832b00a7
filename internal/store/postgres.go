package store

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/shoe-curation/internal/db"
	"github.com/sells-group/shoe-curation/internal/model"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

var _ Store = (*PostgresStore)(nil)

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return eris.Wrap(err, "postgres: migrations dir")
	}
	return db.Migrate(ctx, s.pool, sub)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Shoes ---

func (s *PostgresStore) GetShoe(ctx context.Context, id string) (*model.Shoe, error) {
	shoe, err := scanShoe(s.pool.QueryRow(ctx, `SELECT `+shoeColumns+` FROM shoes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get shoe %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get shoe %s", id)
	}
	return shoe, nil
}

func (s *PostgresStore) SaveShoe(ctx context.Context, shoe *model.Shoe) error {
	if shoe.ID == "" {
		shoe.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shoes (id, brand, model_name, category, keywords, locale, region, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO UPDATE SET brand = EXCLUDED.brand, model_name = EXCLUDED.model_name,
			category = EXCLUDED.category, keywords = EXCLUDED.keywords, locale = EXCLUDED.locale,
			region = EXCLUDED.region, updated_at = EXCLUDED.updated_at`,
		shoe.ID, shoe.Brand, shoe.ModelName, shoe.Category, marshalList(shoe.Keywords), shoe.Locale, shoe.Region, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: save shoe")
}

// --- Curated sources ---

func (s *PostgresStore) ListSourceURLs(ctx context.Context, shoeID string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT url FROM curated_sources WHERE shoe_id = $1`, shoeID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list source urls")
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source url")
		}
		urls[u] = true
	}
	return urls, eris.Wrap(rows.Err(), "postgres: iterate source urls")
}

func (s *PostgresStore) InsertSources(ctx context.Context, sources []model.CuratedSource) (int, error) {
	rows := make([][]any, len(sources))
	for i := range sources {
		prepareSource(&sources[i])
		rows[i] = sourceValues(&sources[i])
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:           "curated_sources",
		Columns:         sourceColumns,
		ConflictKeys:    []string{"shoe_id", "url"},
		IgnoreConflicts: true,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert sources")
	}
	return int(n), nil
}

func (s *PostgresStore) CreateSource(ctx context.Context, src *model.CuratedSource) error {
	prepareSource(src)
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO curated_sources (`+joinColumns(sourceColumns)+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (shoe_id, url) DO NOTHING`,
		sourceValues(src)...,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: create source")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrDuplicateSource, "postgres: create source %s", src.URL)
	}
	return nil
}

func (s *PostgresStore) GetSource(ctx context.Context, id string) (*model.CuratedSource, error) {
	src, err := scanSource(s.pool.QueryRow(ctx, `SELECT `+joinColumns(sourceColumns)+` FROM curated_sources WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get source %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get source %s", id)
	}
	return src, nil
}

func (s *PostgresStore) ListSources(ctx context.Context, filter SourceFilter) ([]model.CuratedSource, error) {
	query, args, err := listSourcesQuery(filter, sq.Dollar)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sources")
	}
	defer rows.Close()

	out := []model.CuratedSource{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan source")
		}
		out = append(out, *src)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate sources")
}

func (s *PostgresStore) UpdateSourceStatus(ctx context.Context, id string, status model.SourceStatus) (*model.CuratedSource, error) {
	src, err := scanSource(s.pool.QueryRow(ctx,
		`UPDATE curated_sources SET status = $1, updated_at = $2 WHERE id = $3 RETURNING `+joinColumns(sourceColumns),
		string(status), time.Now().UTC(), id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: update source status %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update source status %s", id)
	}
	return src, nil
}

func (s *PostgresStore) UpdateReliability(ctx context.Context, shoeID string, t model.SourceType, score float64) (int, error) {
	query, args, err := updateReliabilityQuery(shoeID, t, score, time.Now().UTC(), sq.Dollar)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: rescore %s", t)
	}
	return int(tag.RowsAffected()), nil
}

// --- Reviews ---

func (s *PostgresStore) GetReview(ctx context.Context, id string) (*model.Review, error) {
	r, err := scanReview(s.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get review %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get review %s", id)
	}
	return r, nil
}

func (s *PostgresStore) CreateReview(ctx context.Context, r *model.Review) error {
	prepareReview(r)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		reviewValues(r)...,
	)
	return eris.Wrap(err, "postgres: create review")
}

func (s *PostgresStore) FindAISummaryReview(ctx context.Context, shoeID string) (*model.Review, error) {
	r, err := scanReview(s.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE shoe_id = $1 AND type = $2 ORDER BY created_at DESC LIMIT 1`,
		shoeID, string(model.ReviewAISummary),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: find ai summary review for shoe %s", shoeID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find ai summary review for shoe %s", shoeID)
	}
	return r, nil
}

func (s *PostgresStore) ListAttachedSources(ctx context.Context, reviewID string) ([]model.AttachedSource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+attachedColumns+` FROM review_sources WHERE review_id = $1 ORDER BY scraped_at, id`, reviewID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list attached sources")
	}
	defer rows.Close()

	out := []model.AttachedSource{}
	for rows.Next() {
		a, err := scanAttached(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan attached source")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate attached sources")
}

func (s *PostgresStore) AttachSource(ctx context.Context, a *model.AttachedSource) error {
	prepareAttached(a)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: attach source: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`INSERT INTO review_sources (`+attachedColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (review_id, url) DO NOTHING`,
		attachedValues(a)...,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: attach source")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrDuplicateSource, "postgres: attach source %s", a.URL)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE reviews SET source_count = (SELECT count(*) FROM review_sources WHERE review_id = $1), updated_at = $2 WHERE id = $1`,
		a.ReviewID, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: attach source: recount")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: attach source: review %s", a.ReviewID)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: attach source: commit")
}

func (s *PostgresStore) UpdateReviewSummary(ctx context.Context, reviewID string, sum model.Summary, sourceCount int) (*model.Review, error) {
	r, err := scanReview(s.pool.QueryRow(ctx,
		`UPDATE reviews SET title = $1, content = $2, pros = $3, cons = $4, recommended_for = $5,
			source_count = $6, updated_at = $7
		WHERE id = $8 RETURNING `+reviewColumns,
		sum.Title, sum.Summary, marshalList(sum.Pros), marshalList(sum.Cons), sum.RecommendedFor,
		sourceCount, time.Now().UTC(), reviewID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: update review summary %s", reviewID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update review summary %s", reviewID)
	}
	return r, nil
}
