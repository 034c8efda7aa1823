package store

import (
	"context"
	"database/sql"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

// UpsertComplex inserts a complex on first sighting, or refreshes city and
// district when a more authoritative value is supplied (non-empty wins).
func (s *Store) UpsertComplex(ctx context.Context, c model.Complex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO residential_complexes (complex_id, name, city, district, developer)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(complex_id) DO UPDATE SET
			name = excluded.name,
			city = CASE WHEN excluded.city <> '' THEN excluded.city ELSE residential_complexes.city END,
			district = CASE WHEN excluded.district <> '' THEN excluded.district ELSE residential_complexes.district END,
			developer = CASE WHEN excluded.developer <> '' THEN excluded.developer ELSE residential_complexes.developer END
	`, c.ComplexID, c.Name, c.City, c.District, c.DeveloperName)
	return storageErr("upsert complex", err)
}

// ListComplexesForCity returns every known complex in city, satisfying
// directory.Store.
func (s *Store) ListComplexesForCity(ctx context.Context, city string) ([]model.Complex, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT complex_id, name, city, district, COALESCE(developer, '')
		FROM residential_complexes WHERE city = ?
	`, city)
	if err != nil {
		return nil, storageErr("list complexes for city", err)
	}
	defer rows.Close()

	var out []model.Complex
	for rows.Next() {
		var c model.Complex
		if err := rows.Scan(&c.ComplexID, &c.Name, &c.City, &c.District, &c.DeveloperName); err != nil {
			return nil, storageErr("scan complex", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListBlacklistedComplexNames returns the lowercased names of every
// individually blacklisted complex, satisfying directory.Store.
func (s *Store) ListBlacklistedComplexNames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT LOWER(name) FROM blacklisted_jks`)
	if err != nil {
		return nil, storageErr("list blacklisted complex names", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("scan blacklisted complex name", err)
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

// ListBlacklistedDistricts returns "city|district" keys (lowercased) for
// every blacklisted (city, district) pair, satisfying directory.Store.
func (s *Store) ListBlacklistedDistricts(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT LOWER(city), LOWER(district) FROM blacklisted_districts`)
	if err != nil {
		return nil, storageErr("list blacklisted districts", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var city, district string
		if err := rows.Scan(&city, &district); err != nil {
			return nil, storageErr("scan blacklisted district", err)
		}
		out[city+"|"+district] = struct{}{}
	}
	return out, rows.Err()
}

// AddBlacklistedComplex blacklists a complex by ID, per the CLI's
// `blacklist add --complex-id`.
func (s *Store) AddBlacklistedComplex(ctx context.Context, complexID, name, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklisted_jks (complex_id, name, notes) VALUES (?, ?, ?)
		ON CONFLICT(complex_id) DO UPDATE SET name = excluded.name, notes = excluded.notes
	`, complexID, name, notes)
	return storageErr("add blacklisted complex", err)
}

// RemoveBlacklistedComplex un-blacklists a complex by ID.
func (s *Store) RemoveBlacklistedComplex(ctx context.Context, complexID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM blacklisted_jks WHERE complex_id = ?`, complexID)
	return storageErr("remove blacklisted complex", err)
}

// ListBlacklistedComplexes lists every blacklisted complex row, for `blacklist list`.
func (s *Store) ListBlacklistedComplexes(ctx context.Context) ([]model.BlacklistedComplex, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT complex_id, name, COALESCE(notes, ''), blacklisted_at FROM blacklisted_jks
	`)
	if err != nil {
		return nil, storageErr("list blacklisted complexes", err)
	}
	defer rows.Close()

	var out []model.BlacklistedComplex
	for rows.Next() {
		var b model.BlacklistedComplex
		var blacklistedAt sql.NullTime
		if err := rows.Scan(&b.ComplexID, &b.Name, &b.Notes, &blacklistedAt); err != nil {
			return nil, storageErr("scan blacklisted complex", err)
		}
		b.BlacklistedAt = blacklistedAt.Time
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddBlacklistedDistrict blacklists every complex in (city, district).
func (s *Store) AddBlacklistedDistrict(ctx context.Context, city, district string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklisted_districts (city, district) VALUES (?, ?)
		ON CONFLICT(city, district) DO NOTHING
	`, city, district)
	return storageErr("add blacklisted district", err)
}

// RemoveBlacklistedDistrict un-blacklists (city, district).
func (s *Store) RemoveBlacklistedDistrict(ctx context.Context, city, district string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM blacklisted_districts WHERE city = ? AND district = ?`, city, district)
	return storageErr("remove blacklisted district", err)
}
