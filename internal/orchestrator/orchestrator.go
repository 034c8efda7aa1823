// Package orchestrator drives one ingestion run for a city: it walks every
// non-blacklisted complex's rental and sale search pages, fetches each
// listing through a bounded worker pool, persists snapshots, archives
// listings that dropped out of this run, and records a PipelineRun (spec
// §4.5). The bounded fan-out (buffered semaphore channel + per-job
// goroutine, no errgroup) follows the teacher's engine/scanner.go history
// fetch idiom.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/krisha-intel/krisha-intel/internal/directory"
	"github.com/krisha-intel/krisha-intel/internal/fetcher"
	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/walker"
)

// DefaultGraceDeadline bounds how long archival reconciliation runs after a
// cancelled context, so a ctrl-C during fetch still leaves the store
// consistent with what was actually collected (spec §4.5).
const DefaultGraceDeadline = 10 * time.Second

// Store is the subset of the persistence layer the orchestrator depends on.
type Store interface {
	UpsertRental(ctx context.Context, l model.Listing, queryDate string) error
	UpsertSales(ctx context.Context, l model.Listing, queryDate string) error
	MarkArchived(ctx context.Context, flatID string, isRental bool) error
	LatestRentalsForComplex(ctx context.Context, complexName string) ([]model.Listing, error)
	LatestSalesForComplex(ctx context.Context, complexName, city string) ([]model.Listing, error)
	InsertPipelineRun(ctx context.Context, run model.PipelineRun) error
}

// Fetcher is the subset of *fetcher.Fetcher the orchestrator depends on.
type Fetcher interface {
	Fetch(ctx context.Context, flatID string, kind model.AdvertisementKind) (model.Listing, error)
}

// walkerFactory builds the page walker for one (complex, kind) pass; a
// package-level field on Orchestrator so tests can substitute a walker
// pointed at a local server.
type walkerFactory func(city, complexID string, kind model.AdvertisementKind, maxPages int) walkerIface

type walkerIface interface {
	Next(ctx context.Context) (string, bool, error)
}

// Params configures one Run.
type Params struct {
	City          string
	MaxPages      int
	Concurrency   int
	GraceDeadline time.Duration
}

// Orchestrator wires the directory, walker, fetcher, and store together to
// run ingestion passes.
type Orchestrator struct {
	dir     *directory.Directory
	fetch   Fetcher
	store   Store
	newWalk walkerFactory
}

// New builds an Orchestrator. httpClient is shared across every Walker a
// run creates.
func New(dir *directory.Directory, fetch Fetcher, store Store, httpClient *http.Client) *Orchestrator {
	return &Orchestrator{
		dir:   dir,
		fetch: fetch,
		store: store,
		newWalk: func(city, complexID string, kind model.AdvertisementKind, maxPages int) walkerIface {
			return walker.New(httpClient, city, complexID, kind, maxPages)
		},
	}
}

// Run walks every non-blacklisted complex in params.City for both rentals
// and sales, fetches each listing through a bounded worker pool, upserts
// snapshots, archives listings absent from this complex+kind pass, and
// persists a PipelineRun recording the outcome. Run returns an error when
// the directory lookup fails, and context.Canceled when ctx was cancelled
// before every complex was started; a cancelled run still persists and
// returns a PipelineRun reflecting whatever was collected before
// cancellation.
func (o *Orchestrator) Run(ctx context.Context, params Params) (model.PipelineRun, error) {
	if params.Concurrency < 1 {
		params.Concurrency = 1
	}
	if params.GraceDeadline <= 0 {
		params.GraceDeadline = DefaultGraceDeadline
	}

	run := model.PipelineRun{
		City:      params.City,
		StartedAt: time.Now().UTC(),
		Errors:    make(model.ErrorHistogram),
	}

	complexes, err := o.dir.ListExcludingBlacklists(ctx, params.City)
	if err != nil {
		return model.PipelineRun{}, fmt.Errorf("orchestrator: list complexes: %w", err)
	}
	run.ComplexesTotal = len(complexes)

	logger.Section(fmt.Sprintf("Ingesting %s (%d complexes)", params.City, len(complexes)))

	cancelled := false
	for _, c := range complexes {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		if err := o.runComplex(ctx, c, params, &run); err != nil {
			logger.Error("orchestrator", fmt.Sprintf("complex %s: %v", c.Name, err))
			continue
		}
		run.ComplexesSuccess++
	}
	run.ComplexesFailed = run.ComplexesTotal - run.ComplexesSuccess

	run.FinishedAt = time.Now().UTC()
	insertCtx, cancel := context.WithTimeout(context.Background(), params.GraceDeadline)
	defer cancel()
	if err := o.store.InsertPipelineRun(insertCtx, run); err != nil {
		logger.Error("orchestrator", fmt.Sprintf("failed to persist pipeline run: %v", err))
	}
	logger.Success("orchestrator", fmt.Sprintf("%s: %d listings, %d/%d complexes, %v",
		params.City, run.ListingsScraped, run.ComplexesSuccess, run.ComplexesTotal, run.Duration()))

	if cancelled {
		return run, context.Canceled
	}
	return run, nil
}

// runComplex walks and fetches one complex's rental pass and sale pass in
// turn, archiving each pass's dropouts before moving to the next — the
// per-(complex, kind) barrier before MarkArchived that spec §4.5 requires.
func (o *Orchestrator) runComplex(ctx context.Context, c model.Complex, params Params, run *model.PipelineRun) error {
	for _, kind := range []model.AdvertisementKind{model.Rental, model.Sale} {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := o.runPass(ctx, c, kind, params, run); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runPass(ctx context.Context, c model.Complex, kind model.AdvertisementKind, params Params, run *model.PipelineRun) error {
	flatIDs, err := o.enumerate(ctx, c, kind, params.MaxPages)
	if err != nil {
		return err
	}

	prior, err := o.priorFlatIDs(ctx, c, kind)
	if err != nil {
		return err
	}

	// seen is every id the walk yielded, so a listing whose fetch failed is
	// not archived as if it had been delisted.
	seen := make(map[string]struct{}, len(flatIDs))
	for _, flatID := range flatIDs {
		seen[flatID] = struct{}{}
	}
	sem := make(chan struct{}, params.Concurrency)
	results := make(chan fetchOutcome, len(flatIDs))

	for _, flatID := range flatIDs {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		go func(flatID string) {
			defer func() { <-sem }()
			listing, err := o.fetch.Fetch(ctx, flatID, kind)
			results <- fetchOutcome{flatID: flatID, listing: listing, err: err}
		}(flatID)
	}
	for i := 0; i < params.Concurrency; i++ {
		sem <- struct{}{} // wait for every in-flight goroutine to finish
	}

	close(results)
	queryDate := time.Now().UTC().Format("2006-01-02")
	for outcome := range results {
		if outcome.err != nil {
			tallyError(run, outcome.err)
			continue
		}
		if outcome.listing.ResidentialComplex == "" {
			outcome.listing.ResidentialComplex = c.Name
		}
		if outcome.listing.City == "" {
			outcome.listing.City = c.City
		}
		var storeErr error
		if kind == model.Rental {
			storeErr = o.store.UpsertRental(ctx, outcome.listing, queryDate)
		} else {
			storeErr = o.store.UpsertSales(ctx, outcome.listing, queryDate)
		}
		if storeErr != nil {
			run.Errors["storage_error"]++
			logger.Error("orchestrator", fmt.Sprintf("flat %s: %v", outcome.flatID, storeErr))
			continue
		}
		run.ListingsScraped++
	}

	archiveCtx, cancel := context.WithTimeout(context.Background(), params.GraceDeadline)
	defer cancel()
	for flatID := range prior {
		if _, ok := seen[flatID]; ok {
			continue
		}
		if err := o.store.MarkArchived(archiveCtx, flatID, kind == model.Rental); err != nil {
			logger.Error("orchestrator", fmt.Sprintf("archive flat %s: %v", flatID, err))
		}
	}
	return nil
}

type fetchOutcome struct {
	flatID  string
	listing model.Listing
	err     error
}

func (o *Orchestrator) enumerate(ctx context.Context, c model.Complex, kind model.AdvertisementKind, maxPages int) ([]string, error) {
	w := o.newWalk(c.City, c.ComplexID, kind, maxPages)
	var ids []string
	for {
		id, ok, err := w.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (o *Orchestrator) priorFlatIDs(ctx context.Context, c model.Complex, kind model.AdvertisementKind) (map[string]struct{}, error) {
	var listings []model.Listing
	var err error
	if kind == model.Rental {
		listings, err = o.store.LatestRentalsForComplex(ctx, c.Name)
	} else {
		listings, err = o.store.LatestSalesForComplex(ctx, c.Name, c.City)
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(listings))
	for _, l := range listings {
		out[l.FlatID] = struct{}{}
	}
	return out, nil
}

func tallyError(run *model.PipelineRun, err error) {
	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		if fe.Kind == fetcher.KindHTTP {
			run.Errors[fmt.Sprintf("http_%d", fe.StatusCode)]++
			run.TotalHTTPErrors++
			if fe.StatusCode == http.StatusTooManyRequests {
				run.TotalRateLimited++
			}
		} else {
			run.Errors[string(fe.Kind)]++
			if fe.Kind == fetcher.KindTimeout || fe.Kind == fetcher.KindConnectionError {
				run.TotalRequestErrors++
			}
		}
		return
	}
	run.Errors["other"]++
}
