package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

// InsertOpportunityBatch persists rows as one immutable batch sharing
// runTimestamp (spec §4.6). All rows must be inserted or none are.
func (s *Store) InsertOpportunityBatch(ctx context.Context, rows []model.OpportunityRow, runTimestamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin opportunity batch", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunity_analysis (
			run_timestamp, rank, flat_id, residential_complex, price, area, flat_type,
			floor, total_floors, construction_year, parking, discount_percentage_vs_median,
			median_price, mean_price, min_price, max_price, sample_size, query_date, url, description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return storageErr("prepare opportunity batch", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, runTimestamp, r.Rank, r.FlatID, nullableString(r.ResidentialComplex),
			r.Price, r.Area, string(r.FlatType), nullableInt(r.Floor), nullableInt(r.TotalFloors),
			nullableInt(r.ConstructionYear), nullableString(r.Parking), r.DiscountPercentageVsMedian,
			r.Bucket.Median, r.Bucket.Mean, r.Bucket.Min, r.Bucket.Max, r.Bucket.Count,
			r.QueryDate, r.URL, r.Description,
		); err != nil {
			return storageErr("insert opportunity row", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit opportunity batch", err)
	}
	return nil
}

// InsertPipelineRun persists one ingestion run's aggregate counters and
// error-kind histogram.
func (s *Store) InsertPipelineRun(ctx context.Context, run model.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	histogramJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return storageErr("marshal error histogram", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (
			city, started_at, finished_at, complexes_total, complexes_success,
			complexes_failed, listings_scraped, errors_json,
			total_http_errors, total_request_errors, total_rate_limited
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.City, run.StartedAt, run.FinishedAt, run.ComplexesTotal, run.ComplexesSuccess,
		run.ComplexesFailed, run.ListingsScraped, string(histogramJSON),
		run.TotalHTTPErrors, run.TotalRequestErrors, run.TotalRateLimited)
	return storageErr("insert pipeline run", err)
}

// LatestPipelineRun returns the most recent run for city, if any.
func (s *Store) LatestPipelineRun(ctx context.Context, city string) (model.PipelineRun, bool, error) {
	var run model.PipelineRun
	var histogramJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, city, started_at, finished_at, complexes_total, complexes_success,
			complexes_failed, listings_scraped, errors_json,
			total_http_errors, total_request_errors, total_rate_limited
		FROM pipeline_runs WHERE city = ? ORDER BY finished_at DESC LIMIT 1
	`, city).Scan(&run.ID, &run.City, &run.StartedAt, &run.FinishedAt, &run.ComplexesTotal,
		&run.ComplexesSuccess, &run.ComplexesFailed, &run.ListingsScraped, &histogramJSON,
		&run.TotalHTTPErrors, &run.TotalRequestErrors, &run.TotalRateLimited)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PipelineRun{}, false, nil
		}
		return model.PipelineRun{}, false, storageErr("latest pipeline run", err)
	}
	_ = json.Unmarshal([]byte(histogramJSON), &run.Errors)
	return run, true, nil
}
