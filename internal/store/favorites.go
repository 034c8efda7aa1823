package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

// AddFavorite pins (flatID, kind); favorites join back to the latest
// snapshot at read time rather than duplicating listing data.
func (s *Store) AddFavorite(ctx context.Context, flatID string, kind model.AdvertisementKind, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (flat_id, flat_type, notes) VALUES (?, ?, ?)
		ON CONFLICT(flat_id, flat_type) DO UPDATE SET notes = excluded.notes
	`, flatID, string(kind), notes)
	return storageErr("add favorite", err)
}

// RemoveFavorite un-pins (flatID, kind).
func (s *Store) RemoveFavorite(ctx context.Context, flatID string, kind model.AdvertisementKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE flat_id = ? AND flat_type = ?`, flatID, string(kind))
	return storageErr("remove favorite", err)
}

// ListFavorites returns every pinned favorite.
func (s *Store) ListFavorites(ctx context.Context) ([]model.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT flat_id, flat_type, COALESCE(notes, ''), added_at FROM favorites`)
	if err != nil {
		return nil, storageErr("list favorites", err)
	}
	defer rows.Close()

	var out []model.Favorite
	for rows.Next() {
		var f model.Favorite
		var kind string
		if err := rows.Scan(&f.FlatID, &kind, &f.Notes, &f.AddedAt); err != nil {
			return nil, storageErr("scan favorite", err)
		}
		f.Kind = model.AdvertisementKind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}

// AddIgnoredOpportunity excludes flatID from future opportunity rankings.
func (s *Store) AddIgnoredOpportunity(ctx context.Context, flatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ignored_opportunities (flat_id) VALUES (?) ON CONFLICT(flat_id) DO NOTHING
	`, flatID)
	return storageErr("add ignored opportunity", err)
}

// ListIgnoredOpportunities returns the set of excluded flat IDs.
func (s *Store) ListIgnoredOpportunities(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT flat_id FROM ignored_opportunities`)
	if err != nil {
		return nil, storageErr("list ignored opportunities", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan ignored opportunity", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// LatestFXRate returns the most recently fetched rate for currency.
func (s *Store) LatestFXRate(ctx context.Context, currency string) (model.FXRate, bool, error) {
	var r model.FXRate
	r.Currency = currency
	err := s.db.QueryRowContext(ctx, `
		SELECT rate, fetched_at FROM mid_prices WHERE currency = ? ORDER BY fetched_at DESC LIMIT 1
	`, currency).Scan(&r.Rate, &r.FetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FXRate{}, false, nil
		}
		return model.FXRate{}, false, storageErr("latest fx rate", err)
	}
	return r, true, nil
}

// RecordFXRate appends one observed FX reading.
func (s *Store) RecordFXRate(ctx context.Context, currency string, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO mid_prices (currency, rate) VALUES (?, ?)`, currency, rate)
	return storageErr("record fx rate", err)
}
