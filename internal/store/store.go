// Package store is the sole owner of persisted state (spec §4.6): residential
// complexes, rental/sales snapshots, blacklists, favorites, opportunity runs,
// and pipeline-run history. It wraps modernc.org/sqlite directly through
// database/sql — no ORM — matching the teacher's internal/db package.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/model"
)

// Store wraps a SQLite database connection. Writes are serialized by mu;
// reads use the same pooled *sql.DB, which SQLite's own WAL-mode locking
// makes safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	logger.Success("store", fmt.Sprintf("opened %s", path))
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

const dateLayout = "2006-01-02"

// StorageError wraps a fatal write-path failure (spec §7's StorageError),
// distinguishing it from transient/retryable conditions.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// UpsertRental inserts or updates one rental snapshot for (flat_id,
// query_date), per spec §4.6.
func (s *Store) UpsertRental(ctx context.Context, l model.Listing, queryDate string) error {
	return s.upsertListing(ctx, "rental_flats", l, queryDate)
}

// UpsertSales inserts or updates one sales snapshot for (flat_id, query_date).
func (s *Store) UpsertSales(ctx context.Context, l model.Listing, queryDate string) error {
	return s.upsertListing(ctx, "sales_flats", l, queryDate)
}

func (s *Store) upsertListing(ctx context.Context, table string, l model.Listing, queryDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	query := fmt.Sprintf(`
		INSERT INTO %s (flat_id, price, area, flat_type, residential_complex, floor,
			total_floors, construction_year, parking, description, url, city,
			query_date, archived, published_at, scraped_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
		ON CONFLICT(flat_id, query_date) DO UPDATE SET
			price = excluded.price,
			area = excluded.area,
			flat_type = excluded.flat_type,
			residential_complex = excluded.residential_complex,
			floor = excluded.floor,
			total_floors = excluded.total_floors,
			construction_year = excluded.construction_year,
			parking = excluded.parking,
			description = excluded.description,
			url = excluded.url,
			city = excluded.city,
			archived = 0,
			updated_at = excluded.updated_at
	`, table)

	_, err := s.db.ExecContext(ctx, query,
		l.FlatID, l.Price, l.Area, string(l.FlatType), nullableString(l.ResidentialComplex),
		nullableInt(l.Floor), nullableInt(l.TotalFloors), nullableInt(l.ConstructionYear),
		nullableString(l.Parking), l.Description, l.URL, nullableString(l.City),
		queryDate, l.PublishedAt, now, now,
	)
	return storageErr("upsert "+table, err)
}

// MarkArchived sets archived=true for flatID in the rental or sales table.
func (s *Store) MarkArchived(ctx context.Context, flatID string, isRental bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := "sales_flats"
	if isRental {
		table = "rental_flats"
	}
	query := fmt.Sprintf(`UPDATE %s SET archived = 1, updated_at = ? WHERE flat_id = ?`, table)
	_, err := s.db.ExecContext(ctx, query, time.Now().UTC(), flatID)
	return storageErr("mark archived", err)
}

// LatestRentalsForComplex returns, per flat_id, the non-archived rental row
// with the maximum query_date for the given complex name.
func (s *Store) LatestRentalsForComplex(ctx context.Context, complexName string) ([]model.Listing, error) {
	return s.latestForComplex(ctx, "rental_flats", complexName, "")
}

// LatestSalesForComplex returns, per flat_id, the non-archived sales row with
// the maximum query_date for the given complex name and (optional) city.
func (s *Store) LatestSalesForComplex(ctx context.Context, complexName, city string) ([]model.Listing, error) {
	return s.latestForComplex(ctx, "sales_flats", complexName, city)
}

func (s *Store) latestForComplex(ctx context.Context, table, complexName, city string) ([]model.Listing, error) {
	query := fmt.Sprintf(`
		SELECT t.flat_id, t.price, t.area, t.flat_type, t.residential_complex, t.floor,
			t.total_floors, t.construction_year, t.parking, t.description, t.url, t.city,
			t.query_date, t.published_at, t.scraped_at
		FROM %s t
		INNER JOIN (
			SELECT flat_id, MAX(query_date) AS max_date
			FROM %s
			WHERE residential_complex = ? AND archived = 0
			GROUP BY flat_id
		) latest ON latest.flat_id = t.flat_id AND latest.max_date = t.query_date
		WHERE t.residential_complex = ? AND t.archived = 0
	`, table, table)
	args := []interface{}{complexName, complexName}
	if city != "" {
		query += " AND t.city = ?"
		args = append(args, city)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("latest for complex", err)
	}
	defer rows.Close()
	return scanListings(rows, table == "rental_flats")
}

// SimilarSales returns the latest non-archived sales whose area falls in
// [areaMin, areaMax] inclusive, optionally filtered by complex (substring)
// and city.
func (s *Store) SimilarSales(ctx context.Context, complexSubstring, city string, areaMin, areaMax float64) ([]model.Listing, error) {
	query := `
		SELECT t.flat_id, t.price, t.area, t.flat_type, t.residential_complex, t.floor,
			t.total_floors, t.construction_year, t.parking, t.description, t.url, t.city,
			t.query_date, t.published_at, t.scraped_at
		FROM sales_flats t
		INNER JOIN (
			SELECT flat_id, MAX(query_date) AS max_date
			FROM sales_flats
			WHERE archived = 0
			GROUP BY flat_id
		) latest ON latest.flat_id = t.flat_id AND latest.max_date = t.query_date
		WHERE t.archived = 0 AND t.area BETWEEN ? AND ?
	`
	args := []interface{}{areaMin, areaMax}
	if complexSubstring != "" {
		query += " AND t.residential_complex LIKE ?"
		args = append(args, "%"+complexSubstring+"%")
	}
	if city != "" {
		query += " AND t.city = ?"
		args = append(args, city)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("similar sales", err)
	}
	defer rows.Close()
	return scanListings(rows, false)
}

func scanListings(rows *sql.Rows, isRental bool) ([]model.Listing, error) {
	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		var flatType, complex, parking, city sql.NullString
		var floor, totalFloors, constructionYear sql.NullInt64
		var queryDate string
		var publishedAt, scrapedAt sql.NullTime

		if err := rows.Scan(&l.FlatID, &l.Price, &l.Area, &flatType, &complex, &floor,
			&totalFloors, &constructionYear, &parking, &l.Description, &l.URL, &city,
			&queryDate, &publishedAt, &scrapedAt); err != nil {
			return nil, storageErr("scan listing", err)
		}

		l.IsRental = isRental
		l.FlatType = model.FlatType(flatType.String)
		l.ResidentialComplex = complex.String
		l.Parking = parking.String
		l.City = city.String
		l.QueryDate = queryDate
		if floor.Valid {
			v := int(floor.Int64)
			l.Floor = &v
		}
		if totalFloors.Valid {
			v := int(totalFloors.Int64)
			l.TotalFloors = &v
		}
		if constructionYear.Valid {
			v := int(constructionYear.Int64)
			l.ConstructionYear = &v
		}
		if publishedAt.Valid {
			l.PublishedAt = publishedAt.Time
		}
		if scrapedAt.Valid {
			l.ScrapedAt = scrapedAt.Time
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
