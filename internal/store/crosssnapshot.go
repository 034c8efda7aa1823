package store

import "context"

// ComplexDateRow is one (flat_id, price, area) reading used by the
// cross-snapshot movers/turnover computations (spec §4.11).
type ComplexDateRow struct {
	FlatID string
	Price  int64
	Area   float64
}

// DistinctSalesQueryDates returns every distinct query_date with at least
// one non-archived sales row in city, most recent first.
func (s *Store) DistinctSalesQueryDates(ctx context.Context, city string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT query_date FROM sales_flats
		WHERE city = ? AND archived = 0
		ORDER BY query_date DESC
	`, city)
	if err != nil {
		return nil, storageErr("distinct sales query dates", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, storageErr("scan query date", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SalesByComplexOnDate returns, per complex, the (flat_id, price, area) rows
// for every non-archived sale in city on queryDate.
func (s *Store) SalesByComplexOnDate(ctx context.Context, city, queryDate string) (map[string][]ComplexDateRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT residential_complex, flat_id, price, area FROM sales_flats
		WHERE city = ? AND query_date = ? AND archived = 0 AND residential_complex IS NOT NULL AND residential_complex <> ''
	`, city, queryDate)
	if err != nil {
		return nil, storageErr("sales by complex on date", err)
	}
	defer rows.Close()

	out := make(map[string][]ComplexDateRow)
	for rows.Next() {
		var complex string
		var r ComplexDateRow
		if err := rows.Scan(&complex, &r.FlatID, &r.Price, &r.Area); err != nil {
			return nil, storageErr("scan sales by complex on date", err)
		}
		out[complex] = append(out[complex], r)
	}
	return out, rows.Err()
}

// RentalsByComplexOnDate returns, per complex, the (flat_id, price, area)
// rows for every non-archived rental in city on queryDate.
func (s *Store) RentalsByComplexOnDate(ctx context.Context, city, queryDate string) (map[string][]ComplexDateRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT residential_complex, flat_id, price, area FROM rental_flats
		WHERE city = ? AND query_date = ? AND archived = 0 AND residential_complex IS NOT NULL AND residential_complex <> ''
	`, city, queryDate)
	if err != nil {
		return nil, storageErr("rentals by complex on date", err)
	}
	defer rows.Close()

	out := make(map[string][]ComplexDateRow)
	for rows.Next() {
		var complex string
		var r ComplexDateRow
		if err := rows.Scan(&complex, &r.FlatID, &r.Price, &r.Area); err != nil {
			return nil, storageErr("scan rentals by complex on date", err)
		}
		out[complex] = append(out[complex], r)
	}
	return out, rows.Err()
}

// NearestSalesQueryDate returns the query_date in city closest to target
// (on an equal gap the more recent date wins, since dates are scanned most
// recent first).
func (s *Store) NearestSalesQueryDate(ctx context.Context, city, target string) (string, bool, error) {
	dates, err := s.DistinctSalesQueryDates(ctx, city)
	if err != nil {
		return "", false, err
	}
	if len(dates) == 0 {
		return "", false, nil
	}

	best := dates[0]
	bestGap := dayGap(best, target)
	for _, d := range dates[1:] {
		gap := dayGap(d, target)
		if gap < bestGap {
			best, bestGap = d, gap
		}
	}
	return best, true, nil
}

func dayGap(a, b string) int {
	ta, erra := parseDate(a)
	tb, errb := parseDate(b)
	if erra != nil || errb != nil {
		return 1 << 30
	}
	d := int(ta.Sub(tb).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}
