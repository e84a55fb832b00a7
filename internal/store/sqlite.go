package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/shoe-curation/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS shoes (
	id         TEXT PRIMARY KEY,
	brand      TEXT NOT NULL,
	model_name TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	keywords   TEXT NOT NULL DEFAULT '[]',
	locale     TEXT NOT NULL DEFAULT 'ja-JP',
	region     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS curated_sources (
	id            TEXT PRIMARY KEY,
	shoe_id       TEXT NOT NULL REFERENCES shoes(id) ON DELETE CASCADE,
	type          TEXT NOT NULL,
	platform      TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL,
	excerpt       TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL,
	author        TEXT NOT NULL DEFAULT '',
	thumbnail_url TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '[]',
	reliability   REAL NOT NULL,
	status        TEXT NOT NULL DEFAULT 'PUBLISHED',
	language      TEXT NOT NULL DEFAULT 'ja',
	country       TEXT NOT NULL DEFAULT '',
	published_at  DATETIME,
	scraped_at    DATETIME NOT NULL,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	UNIQUE (shoe_id, url)
);

CREATE INDEX IF NOT EXISTS idx_curated_sources_listing ON curated_sources(shoe_id, status, reliability DESC);
CREATE INDEX IF NOT EXISTS idx_curated_sources_type ON curated_sources(type);

CREATE TABLE IF NOT EXISTS reviews (
	id              TEXT PRIMARY KEY,
	shoe_id         TEXT NOT NULL REFERENCES shoes(id) ON DELETE CASCADE,
	type            TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	content         TEXT NOT NULL DEFAULT '',
	pros            TEXT NOT NULL DEFAULT '[]',
	cons            TEXT NOT NULL DEFAULT '[]',
	recommended_for TEXT NOT NULL DEFAULT '',
	source_count    INTEGER NOT NULL DEFAULT 0,
	is_published    BOOLEAN NOT NULL DEFAULT 0,
	is_draft        BOOLEAN NOT NULL DEFAULT 1,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_shoe_type ON reviews(shoe_id, type);

CREATE TABLE IF NOT EXISTS review_sources (
	id         TEXT PRIMARY KEY,
	review_id  TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	author     TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	video_id   TEXT NOT NULL DEFAULT '',
	scraped_at DATETIME NOT NULL,
	UNIQUE (review_id, url)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Shoes ---

func (s *SQLiteStore) GetShoe(ctx context.Context, id string) (*model.Shoe, error) {
	shoe, err := scanShoe(s.db.QueryRowContext(ctx, `SELECT `+shoeColumns+` FROM shoes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get shoe %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get shoe %s", id)
	}
	return shoe, nil
}

func (s *SQLiteStore) SaveShoe(ctx context.Context, shoe *model.Shoe) error {
	if shoe.ID == "" {
		shoe.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shoes (id, brand, model_name, category, keywords, locale, region, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET brand = excluded.brand, model_name = excluded.model_name,
			category = excluded.category, keywords = excluded.keywords, locale = excluded.locale,
			region = excluded.region, updated_at = excluded.updated_at`,
		shoe.ID, shoe.Brand, shoe.ModelName, shoe.Category, marshalList(shoe.Keywords), shoe.Locale, shoe.Region, now, now,
	)
	return eris.Wrap(err, "sqlite: save shoe")
}

// --- Curated sources ---

func (s *SQLiteStore) ListSourceURLs(ctx context.Context, shoeID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM curated_sources WHERE shoe_id = ?`, shoeID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list source urls")
	}
	defer rows.Close() //nolint:errcheck

	urls := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source url")
		}
		urls[u] = true
	}
	return urls, eris.Wrap(rows.Err(), "sqlite: iterate source urls")
}

const sqliteInsertSource = `INSERT INTO curated_sources (id, shoe_id, type, platform, title, excerpt, url, author,
	thumbnail_url, tags, reliability, status, language, country, published_at, scraped_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (shoe_id, url) DO NOTHING`

func (s *SQLiteStore) InsertSources(ctx context.Context, sources []model.CuratedSource) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert sources: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteInsertSource)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert sources: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	inserted := 0
	for i := range sources {
		prepareSource(&sources[i])
		res, err := stmt.ExecContext(ctx, sourceValues(&sources[i])...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert source %s", sources[i].URL)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: insert sources: commit")
	}
	return inserted, nil
}

func (s *SQLiteStore) CreateSource(ctx context.Context, src *model.CuratedSource) error {
	prepareSource(src)
	res, err := s.db.ExecContext(ctx, sqliteInsertSource, sourceValues(src)...)
	if err != nil {
		return eris.Wrap(err, "sqlite: create source")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrDuplicateSource, "sqlite: create source %s", src.URL)
	}
	return nil
}

func (s *SQLiteStore) GetSource(ctx context.Context, id string) (*model.CuratedSource, error) {
	src, err := scanSource(s.db.QueryRowContext(ctx, `SELECT `+joinColumns(sourceColumns)+` FROM curated_sources WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get source %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get source %s", id)
	}
	return src, nil
}

func (s *SQLiteStore) ListSources(ctx context.Context, filter SourceFilter) ([]model.CuratedSource, error) {
	query, args, err := listSourcesQuery(filter, sq.Question)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sources")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.CuratedSource{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source")
		}
		out = append(out, *src)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate sources")
}

func (s *SQLiteStore) UpdateSourceStatus(ctx context.Context, id string, status model.SourceStatus) (*model.CuratedSource, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE curated_sources SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update source status %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: update source status %s", id)
	}
	return s.GetSource(ctx, id)
}

func (s *SQLiteStore) UpdateReliability(ctx context.Context, shoeID string, t model.SourceType, score float64) (int, error) {
	query, args, err := updateReliabilityQuery(shoeID, t, score, time.Now().UTC(), sq.Question)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: rescore %s", t)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// --- Reviews ---

func (s *SQLiteStore) GetReview(ctx context.Context, id string) (*model.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get review %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get review %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) CreateReview(ctx context.Context, r *model.Review) error {
	prepareReview(r)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reviewValues(r)...,
	)
	return eris.Wrap(err, "sqlite: create review")
}

func (s *SQLiteStore) FindAISummaryReview(ctx context.Context, shoeID string) (*model.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE shoe_id = ? AND type = ? ORDER BY created_at DESC LIMIT 1`,
		shoeID, string(model.ReviewAISummary),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: find ai summary review for shoe %s", shoeID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find ai summary review for shoe %s", shoeID)
	}
	return r, nil
}

func (s *SQLiteStore) ListAttachedSources(ctx context.Context, reviewID string) ([]model.AttachedSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attachedColumns+` FROM review_sources WHERE review_id = ? ORDER BY scraped_at, id`, reviewID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list attached sources")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.AttachedSource{}
	for rows.Next() {
		a, err := scanAttached(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attached source")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate attached sources")
}

func (s *SQLiteStore) AttachSource(ctx context.Context, a *model.AttachedSource) error {
	prepareAttached(a)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: attach source: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO review_sources (`+attachedColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (review_id, url) DO NOTHING`,
		attachedValues(a)...,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: attach source")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrDuplicateSource, "sqlite: attach source %s", a.URL)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE reviews SET source_count = (SELECT count(*) FROM review_sources WHERE review_id = ?), updated_at = ? WHERE id = ?`,
		a.ReviewID, time.Now().UTC(), a.ReviewID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: attach source: recount")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: attach source: review %s", a.ReviewID)
	}
	return eris.Wrap(tx.Commit(), "sqlite: attach source: commit")
}

func (s *SQLiteStore) UpdateReviewSummary(ctx context.Context, reviewID string, sum model.Summary, sourceCount int) (*model.Review, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET title = ?, content = ?, pros = ?, cons = ?, recommended_for = ?,
			source_count = ?, updated_at = ?
		WHERE id = ?`,
		sum.Title, sum.Summary, marshalList(sum.Pros), marshalList(sum.Cons), sum.RecommendedFor,
		sourceCount, time.Now().UTC(), reviewID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update review summary %s", reviewID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: update review summary %s", reviewID)
	}
	return s.GetReview(ctx, reviewID)
}
