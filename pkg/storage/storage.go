// Package storage is the sqlite persistence layer: a cache of fetched product
// records, the current per-seed competitor scores, and an append-only history
// of competitor metric snapshots.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kareemelharony/samatcher/internal/utils"
	"github.com/kareemelharony/samatcher/pkg/catalog"
)

// TimeLayout is how timestamps are persisted: ISO-8601, UTC, no offset.
const TimeLayout = "2006-01-02T15:04:05"

type DB struct {
	sql *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Cross-process coordination is left to sqlite's own locking.
func Open(path string) (*DB, error) {
	if err := utils.EnsureDir(path); err != nil {
		return nil, err
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS products (
  asin               TEXT PRIMARY KEY,
  title              TEXT,
  description        TEXT,
  bullet_points      TEXT,
  best_seller_rank   INTEGER,
  category           TEXT,
  subcategory        TEXT,
  review_count       INTEGER,
  review_rating      REAL,
  latest_review_text TEXT,
  price              REAL,
  currency           TEXT,
  raw_json           TEXT,
  fetched_at         TEXT
);
CREATE TABLE IF NOT EXISTS competitor_scores (
  seed_asin        TEXT NOT NULL,
  competitor_asin  TEXT NOT NULL,
  similarity_score REAL NOT NULL,
  price            REAL,
  review_rating    REAL,
  review_count     INTEGER,
  best_seller_rank INTEGER,
  captured_at      TEXT NOT NULL,
  PRIMARY KEY (seed_asin, competitor_asin)
);
CREATE TABLE IF NOT EXISTS competitor_snapshots (
  seed_asin        TEXT NOT NULL,
  competitor_asin  TEXT NOT NULL,
  price            REAL,
  review_rating    REAL,
  review_count     INTEGER,
  best_seller_rank INTEGER,
  captured_at      TEXT NOT NULL,
  PRIMARY KEY (seed_asin, competitor_asin, captured_at)
);
CREATE INDEX IF NOT EXISTS idx_scores_seed ON competitor_scores(seed_asin, similarity_score);
CREATE INDEX IF NOT EXISTS idx_snapshots_seed ON competitor_snapshots(seed_asin, captured_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// CacheProduct inserts or fully replaces the product record keyed by ASIN.
func (d *DB) CacheProduct(ctx context.Context, p catalog.ProductDetails) error {
	bullets, err := json.Marshal(p.BulletPoints)
	if err != nil {
		return err
	}
	fetchedAt := p.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	_, err = d.sql.ExecContext(ctx, `
INSERT INTO products (
  asin, title, description, bullet_points, best_seller_rank,
  category, subcategory, review_count, review_rating,
  latest_review_text, price, currency, raw_json, fetched_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(asin) DO UPDATE SET
  title = excluded.title,
  description = excluded.description,
  bullet_points = excluded.bullet_points,
  best_seller_rank = excluded.best_seller_rank,
  category = excluded.category,
  subcategory = excluded.subcategory,
  review_count = excluded.review_count,
  review_rating = excluded.review_rating,
  latest_review_text = excluded.latest_review_text,
  price = excluded.price,
  currency = excluded.currency,
  raw_json = excluded.raw_json,
  fetched_at = excluded.fetched_at`,
		p.ASIN, p.Title, p.Description, string(bullets), intValue(p.BestSellerRank),
		nullIfEmpty(p.Category), nullIfEmpty(p.Subcategory), intValue(p.ReviewCount),
		floatValue(p.ReviewRating), nullIfEmpty(p.LatestReviewText), floatValue(p.Price),
		nullIfEmpty(p.Currency), p.Raw, fetchedAt.UTC().Format(TimeLayout))
	return err
}

// GetProduct returns the cached record for asin, or nil when unknown.
func (d *DB) GetProduct(ctx context.Context, asin string) (*catalog.ProductDetails, error) {
	row := d.sql.QueryRowContext(ctx, `
SELECT asin, title, description, bullet_points, best_seller_rank, category,
       subcategory, review_count, review_rating, latest_review_text, price,
       currency, raw_json, fetched_at
FROM products WHERE asin = ?`, asin)

	var (
		p                      catalog.ProductDetails
		bullets                sql.NullString
		rank, reviews          sql.NullInt64
		rating, price          sql.NullFloat64
		category, subcategory  sql.NullString
		latestReview, currency sql.NullString
		rawJSON, fetchedAt     sql.NullString
		title, description     sql.NullString
	)
	err := row.Scan(&p.ASIN, &title, &description, &bullets, &rank, &category,
		&subcategory, &reviews, &rating, &latestReview, &price, &currency,
		&rawJSON, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Title = title.String
	p.Description = description.String
	if bullets.Valid && bullets.String != "" {
		if err := json.Unmarshal([]byte(bullets.String), &p.BulletPoints); err != nil {
			return nil, err
		}
	}
	p.BestSellerRank = intPtr(rank)
	p.Category = category.String
	p.Subcategory = subcategory.String
	p.ReviewCount = intPtr(reviews)
	p.ReviewRating = floatPtr(rating)
	p.LatestReviewText = latestReview.String
	p.Price = floatPtr(price)
	p.Currency = currency.String
	p.Raw = rawJSON.String
	if fetchedAt.Valid {
		if t, perr := time.Parse(TimeLayout, fetchedAt.String); perr == nil {
			p.FetchedAt = t
		}
	}
	return &p, nil
}

// ListSeedASINs returns every cached product ASIN, lexicographically sorted.
func (d *DB) ListSeedASINs(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT asin FROM products ORDER BY asin")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var asins []string
	for rows.Next() {
		var asin string
		if err := rows.Scan(&asin); err != nil {
			return nil, err
		}
		asins = append(asins, asin)
	}
	return asins, rows.Err()
}

// StoreCompetitorScores bulk-upserts into the current-scores table; last
// write wins per (seed, competitor) pair.
func (d *DB) StoreCompetitorScores(ctx context.Context, records []catalog.CompetitorRecord) error {
	return d.bulkInsert(ctx, `
INSERT INTO competitor_scores (
  seed_asin, competitor_asin, similarity_score, price,
  review_rating, review_count, best_seller_rank, captured_at
) VALUES (?,?,?,?,?,?,?,?)
ON CONFLICT(seed_asin, competitor_asin) DO UPDATE SET
  similarity_score = excluded.similarity_score,
  price = excluded.price,
  review_rating = excluded.review_rating,
  review_count = excluded.review_count,
  best_seller_rank = excluded.best_seller_rank,
  captured_at = excluded.captured_at`, records, true)
}

// AppendSnapshot bulk-inserts into the history table. Rows duplicating an
// existing (seed, competitor, captured_at) key are silently skipped, so
// re-runs at an identical timestamp do not grow the table.
func (d *DB) AppendSnapshot(ctx context.Context, records []catalog.CompetitorRecord) error {
	return d.bulkInsert(ctx, `
INSERT OR IGNORE INTO competitor_snapshots (
  seed_asin, competitor_asin, price, review_rating,
  review_count, best_seller_rank, captured_at
) VALUES (?,?,?,?,?,?,?)`, records, false)
}

func (d *DB) bulkInsert(ctx context.Context, query string, records []catalog.CompetitorRecord, withScore bool) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		args := []interface{}{r.SeedASIN, r.CompetitorASIN}
		if withScore {
			args = append(args, r.SimilarityScore)
		}
		args = append(args, floatValue(r.Price), floatValue(r.ReviewRating),
			intValue(r.ReviewCount), intValue(r.BestSellerRank),
			r.CapturedAt.UTC().Format(TimeLayout))
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// CompetitorsForSeed returns the current score rows for a seed, descending by
// similarity. A positive limit caps the result.
func (d *DB) CompetitorsForSeed(ctx context.Context, seedASIN string, limit int) ([]catalog.CompetitorRecord, error) {
	query := `
SELECT seed_asin, competitor_asin, similarity_score, price, review_rating,
       review_count, best_seller_rank, captured_at
FROM competitor_scores WHERE seed_asin = ?
ORDER BY similarity_score DESC`
	args := []interface{}{seedASIN}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []catalog.CompetitorRecord
	for rows.Next() {
		var (
			r             catalog.CompetitorRecord
			price, rating sql.NullFloat64
			reviews, rank sql.NullInt64
			capturedAt    string
		)
		if err := rows.Scan(&r.SeedASIN, &r.CompetitorASIN, &r.SimilarityScore,
			&price, &rating, &reviews, &rank, &capturedAt); err != nil {
			return nil, err
		}
		r.Price = floatPtr(price)
		r.ReviewRating = floatPtr(rating)
		r.ReviewCount = intPtr(reviews)
		r.BestSellerRank = intPtr(rank)
		if t, perr := time.Parse(TimeLayout, capturedAt); perr == nil {
			r.CapturedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func intValue(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func floatValue(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
