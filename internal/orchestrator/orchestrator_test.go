package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/krisha-intel/krisha-intel/internal/directory"
	"github.com/krisha-intel/krisha-intel/internal/fetcher"
	"github.com/krisha-intel/krisha-intel/internal/model"
)

type fakeDirStore struct {
	complexes []model.Complex
}

func (f *fakeDirStore) ListComplexesForCity(ctx context.Context, city string) ([]model.Complex, error) {
	return f.complexes, nil
}
func (f *fakeDirStore) ListBlacklistedComplexNames(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}
func (f *fakeDirStore) ListBlacklistedDistricts(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

type fakeWalker struct {
	ids []string
	i   int
}

func (w *fakeWalker) Next(ctx context.Context) (string, bool, error) {
	if w.i >= len(w.ids) {
		return "", false, nil
	}
	id := w.ids[w.i]
	w.i++
	return id, true, nil
}

type fakeFetcher struct {
	mu         sync.Mutex
	calls      int
	failIDs    map[string]bool
	failErrors map[string]*fetcher.FetchError // overrides failIDs's default KindTimeout error
}

func (f *fakeFetcher) Fetch(ctx context.Context, flatID string, kind model.AdvertisementKind) (model.Listing, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if fe, ok := f.failErrors[flatID]; ok {
		return model.Listing{}, fe
	}
	if f.failIDs[flatID] {
		return model.Listing{}, &fetcher.FetchError{Kind: fetcher.KindTimeout, FlatID: flatID}
	}
	return model.Listing{FlatID: flatID, Price: 1000000, Area: 40, FlatType: model.Studio, IsRental: kind == model.Rental}, nil
}

type fakeOrchStore struct {
	mu             sync.Mutex
	upsertedRental []string
	upsertedSales  []string
	archived       []string
	priorRentals   map[string][]model.Listing
	priorSales     map[string][]model.Listing
	runs           []model.PipelineRun
}

func (s *fakeOrchStore) UpsertRental(ctx context.Context, l model.Listing, queryDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertedRental = append(s.upsertedRental, l.FlatID)
	return nil
}
func (s *fakeOrchStore) UpsertSales(ctx context.Context, l model.Listing, queryDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertedSales = append(s.upsertedSales, l.FlatID)
	return nil
}
func (s *fakeOrchStore) MarkArchived(ctx context.Context, flatID string, isRental bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archived = append(s.archived, flatID)
	return nil
}
func (s *fakeOrchStore) LatestRentalsForComplex(ctx context.Context, complexName string) ([]model.Listing, error) {
	return s.priorRentals[complexName], nil
}
func (s *fakeOrchStore) LatestSalesForComplex(ctx context.Context, complexName, city string) ([]model.Listing, error) {
	return s.priorSales[complexName], nil
}
func (s *fakeOrchStore) InsertPipelineRun(ctx context.Context, run model.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func newTestOrchestrator(t *testing.T, complexes []model.Complex, walks map[string][]string, fetch *fakeFetcher, store *fakeOrchStore) *Orchestrator {
	t.Helper()
	dir := directory.New(&fakeDirStore{complexes: complexes})
	o := New(dir, fetch, store, nil)
	o.newWalk = func(city, complexID string, kind model.AdvertisementKind, maxPages int) walkerIface {
		key := complexID + "|" + string(kind)
		return &fakeWalker{ids: walks[key]}
	}
	return o
}

func TestRunUpsertsEveryDiscoveredListing(t *testing.T) {
	complexes := []model.Complex{{ComplexID: "1", Name: "Samal Towers", City: "almaty"}}
	walks := map[string][]string{
		"1|rental": {"101", "102"},
		"1|sale":   {"201"},
	}
	fetch := &fakeFetcher{}
	store := &fakeOrchStore{priorRentals: map[string][]model.Listing{}, priorSales: map[string][]model.Listing{}}
	o := newTestOrchestrator(t, complexes, walks, fetch, store)

	run, err := o.Run(context.Background(), Params{City: "almaty", MaxPages: 5, Concurrency: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.ListingsScraped != 3 {
		t.Errorf("ListingsScraped = %d, want 3", run.ListingsScraped)
	}
	if len(store.upsertedRental) != 2 || len(store.upsertedSales) != 1 {
		t.Errorf("upserted rental=%v sale=%v, want 2/1", store.upsertedRental, store.upsertedSales)
	}
	if run.ComplexesSuccess != 1 {
		t.Errorf("ComplexesSuccess = %d, want 1", run.ComplexesSuccess)
	}
	if len(store.runs) != 1 {
		t.Fatalf("expected one persisted PipelineRun, got %d", len(store.runs))
	}
}

func TestRunArchivesListingsAbsentFromThisPass(t *testing.T) {
	complexes := []model.Complex{{ComplexID: "1", Name: "Samal Towers", City: "almaty"}}
	walks := map[string][]string{
		"1|rental": {"101"}, // "999" from a prior run is no longer listed
		"1|sale":   {},
	}
	fetch := &fakeFetcher{}
	store := &fakeOrchStore{
		priorRentals: map[string][]model.Listing{"Samal Towers": {{FlatID: "101"}, {FlatID: "999"}}},
		priorSales:   map[string][]model.Listing{},
	}
	o := newTestOrchestrator(t, complexes, walks, fetch, store)

	if _, err := o.Run(context.Background(), Params{City: "almaty", MaxPages: 5, Concurrency: 2}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.archived) != 1 || store.archived[0] != "999" {
		t.Errorf("archived = %v, want [999]", store.archived)
	}
}

func TestRunTalliesFetchErrorsIntoHistogram(t *testing.T) {
	complexes := []model.Complex{{ComplexID: "1", Name: "X", City: "almaty"}}
	walks := map[string][]string{
		"1|rental": {"101", "102"},
		"1|sale":   {},
	}
	fetch := &fakeFetcher{failIDs: map[string]bool{"102": true}}
	store := &fakeOrchStore{priorRentals: map[string][]model.Listing{}, priorSales: map[string][]model.Listing{}}
	o := newTestOrchestrator(t, complexes, walks, fetch, store)

	run, err := o.Run(context.Background(), Params{City: "almaty", MaxPages: 5, Concurrency: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.ListingsScraped != 1 {
		t.Errorf("ListingsScraped = %d, want 1", run.ListingsScraped)
	}
	if run.Errors["timeout"] != 1 {
		t.Errorf("Errors[timeout] = %d, want 1", run.Errors["timeout"])
	}
	if run.TotalRequestErrors != 1 {
		t.Errorf("TotalRequestErrors = %d, want 1", run.TotalRequestErrors)
	}
}

func TestRunKeysHTTPErrorsByStatusAndCountsRateLimited(t *testing.T) {
	complexes := []model.Complex{{ComplexID: "1", Name: "X", City: "almaty"}}
	walks := map[string][]string{
		"1|rental": {"101", "102", "103"},
		"1|sale":   {},
	}
	fetch := &fakeFetcher{failErrors: map[string]*fetcher.FetchError{
		"101": {Kind: fetcher.KindHTTP, FlatID: "101", StatusCode: 429},
		"102": {Kind: fetcher.KindHTTP, FlatID: "102", StatusCode: 429},
		"103": {Kind: fetcher.KindHTTP, FlatID: "103", StatusCode: 503},
	}}
	store := &fakeOrchStore{priorRentals: map[string][]model.Listing{}, priorSales: map[string][]model.Listing{}}
	o := newTestOrchestrator(t, complexes, walks, fetch, store)

	run, err := o.Run(context.Background(), Params{City: "almaty", MaxPages: 5, Concurrency: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Errors["http_429"] != 2 {
		t.Errorf("Errors[http_429] = %d, want 2", run.Errors["http_429"])
	}
	if run.Errors["http_503"] != 1 {
		t.Errorf("Errors[http_503] = %d, want 1", run.Errors["http_503"])
	}
	if run.Errors["http"] != 0 {
		t.Errorf("Errors[http] = %d, want 0 (bare kind must not be used)", run.Errors["http"])
	}
	if run.TotalHTTPErrors != 3 {
		t.Errorf("TotalHTTPErrors = %d, want 3", run.TotalHTTPErrors)
	}
	if run.TotalRateLimited != 2 {
		t.Errorf("TotalRateLimited = %d, want 2", run.TotalRateLimited)
	}
}

func TestRunCollectsEveryResultBeyondConcurrencyCap(t *testing.T) {
	// Exercise a pass with more flat IDs than the concurrency cap to ensure
	// the semaphore drain collects every result rather than dropping any.
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	complexes := []model.Complex{{ComplexID: "1", Name: "X", City: "almaty"}}
	walks := map[string][]string{"1|rental": ids, "1|sale": {}}
	fetch := &fakeFetcher{}
	store := &fakeOrchStore{priorRentals: map[string][]model.Listing{}, priorSales: map[string][]model.Listing{}}
	o := newTestOrchestrator(t, complexes, walks, fetch, store)

	run, err := o.Run(context.Background(), Params{City: "almaty", MaxPages: 5, Concurrency: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.ListingsScraped != 20 {
		t.Errorf("ListingsScraped = %d, want 20", run.ListingsScraped)
	}
}

func TestRunPropagatesComplexListFailure(t *testing.T) {
	dir := directory.New(&failingDirStore{})
	o := New(dir, &fakeFetcher{}, &fakeOrchStore{}, nil)
	if _, err := o.Run(context.Background(), Params{City: "almaty"}); err == nil {
		t.Error("expected an error when directory listing fails")
	}
}

type failingDirStore struct{}

func (failingDirStore) ListComplexesForCity(ctx context.Context, city string) ([]model.Complex, error) {
	return nil, context.DeadlineExceeded
}
func (failingDirStore) ListBlacklistedComplexNames(ctx context.Context) (map[string]struct{}, error) {
	return nil, nil
}
func (failingDirStore) ListBlacklistedDistricts(ctx context.Context) (map[string]struct{}, error) {
	return nil, nil
}
