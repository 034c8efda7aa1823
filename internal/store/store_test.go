package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleListing(flatID string, price int64, area float64) model.Listing {
	return model.Listing{
		FlatID:              flatID,
		Price:               price,
		Area:                area,
		FlatType:            model.TwoBedroom,
		ResidentialComplex:  "Samal Towers",
		Description:         "sample",
		URL:                 "https://krisha.kz/a/show/" + flatID,
		City:                "almaty",
		PublishedAt:         time.Now().UTC(),
	}
}

func TestUpsertSalesThenLatestForComplex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := sampleListing("1", 30000000, 60)
	if err := s.UpsertSales(ctx, l, "2026-07-01"); err != nil {
		t.Fatalf("UpsertSales: %v", err)
	}

	got, err := s.LatestSalesForComplex(ctx, "Samal Towers", "almaty")
	if err != nil {
		t.Fatalf("LatestSalesForComplex: %v", err)
	}
	if len(got) != 1 || got[0].Price != 30000000 {
		t.Fatalf("got %+v", got)
	}
}

func TestUpsertSameDayUpdatesInPlace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertSales(ctx, sampleListing("1", 30000000, 60), "2026-07-01"); err != nil {
		t.Fatalf("UpsertSales: %v", err)
	}
	if err := s.UpsertSales(ctx, sampleListing("1", 31000000, 60), "2026-07-01"); err != nil {
		t.Fatalf("UpsertSales: %v", err)
	}

	got, err := s.LatestSalesForComplex(ctx, "Samal Towers", "almaty")
	if err != nil {
		t.Fatalf("LatestSalesForComplex: %v", err)
	}
	if len(got) != 1 || got[0].Price != 31000000 {
		t.Fatalf("expected single updated row, got %+v", got)
	}
}

func TestMarkArchivedExcludesFromLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertSales(ctx, sampleListing("1", 30000000, 60), "2026-07-01"); err != nil {
		t.Fatalf("UpsertSales: %v", err)
	}
	if err := s.MarkArchived(ctx, "1", false); err != nil {
		t.Fatalf("MarkArchived: %v", err)
	}

	got, err := s.LatestSalesForComplex(ctx, "Samal Towers", "almaty")
	if err != nil {
		t.Fatalf("LatestSalesForComplex: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected archived row excluded, got %+v", got)
	}
}

func TestSimilarSalesFiltersByAreaRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertSales(ctx, sampleListing("1", 30000000, 60), "2026-07-01"); err != nil {
		t.Fatalf("UpsertSales: %v", err)
	}
	if err := s.UpsertSales(ctx, sampleListing("2", 45000000, 120), "2026-07-01"); err != nil {
		t.Fatalf("UpsertSales: %v", err)
	}

	got, err := s.SimilarSales(ctx, "Samal", "almaty", 50, 70)
	if err != nil {
		t.Fatalf("SimilarSales: %v", err)
	}
	if len(got) != 1 || got[0].FlatID != "1" {
		t.Fatalf("got %+v", got)
	}
}

func TestComplexAndBlacklistRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := model.Complex{ComplexID: "c1", Name: "Samal Towers", City: "almaty", District: "Medeu"}
	if err := s.UpsertComplex(ctx, c); err != nil {
		t.Fatalf("UpsertComplex: %v", err)
	}

	list, err := s.ListComplexesForCity(ctx, "almaty")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListComplexesForCity: %+v, err=%v", list, err)
	}

	if err := s.AddBlacklistedComplex(ctx, "c1", "Samal Towers", "test"); err != nil {
		t.Fatalf("AddBlacklistedComplex: %v", err)
	}
	names, err := s.ListBlacklistedComplexNames(ctx)
	if err != nil {
		t.Fatalf("ListBlacklistedComplexNames: %v", err)
	}
	if _, ok := names["samal towers"]; !ok {
		t.Errorf("expected samal towers blacklisted, got %v", names)
	}
}

func TestFavoritesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddFavorite(ctx, "1", model.Sale, "watching"); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	favs, err := s.ListFavorites(ctx)
	if err != nil || len(favs) != 1 {
		t.Fatalf("ListFavorites: %+v, err=%v", favs, err)
	}
	if err := s.RemoveFavorite(ctx, "1", model.Sale); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	favs, err = s.ListFavorites(ctx)
	if err != nil || len(favs) != 0 {
		t.Fatalf("expected no favorites after removal, got %+v", favs)
	}
}

func TestIgnoredOpportunitiesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ignored, err := s.ListIgnoredOpportunities(ctx)
	if err != nil || len(ignored) != 0 {
		t.Fatalf("expected no ignored opportunities initially, got %+v err=%v", ignored, err)
	}

	if err := s.AddIgnoredOpportunity(ctx, "flat-1"); err != nil {
		t.Fatalf("AddIgnoredOpportunity: %v", err)
	}
	// adding the same flat twice must not error (ON CONFLICT DO NOTHING).
	if err := s.AddIgnoredOpportunity(ctx, "flat-1"); err != nil {
		t.Fatalf("AddIgnoredOpportunity (duplicate): %v", err)
	}

	ignored, err = s.ListIgnoredOpportunities(ctx)
	if err != nil {
		t.Fatalf("ListIgnoredOpportunities: %v", err)
	}
	if _, ok := ignored["flat-1"]; !ok || len(ignored) != 1 {
		t.Fatalf("expected {flat-1} ignored, got %+v", ignored)
	}
}

func TestPipelineRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := model.PipelineRun{
		City:             "almaty",
		StartedAt:        time.Now().UTC().Add(-time.Minute),
		FinishedAt:       time.Now().UTC(),
		ComplexesTotal:   5,
		ComplexesSuccess: 4,
		ComplexesFailed:  1,
		ListingsScraped:  120,
		Errors:           model.ErrorHistogram{"timeout": 2},
	}
	if err := s.InsertPipelineRun(ctx, run); err != nil {
		t.Fatalf("InsertPipelineRun: %v", err)
	}

	got, ok, err := s.LatestPipelineRun(ctx, "almaty")
	if err != nil || !ok {
		t.Fatalf("LatestPipelineRun: ok=%v err=%v", ok, err)
	}
	if got.ListingsScraped != 120 || got.Errors["timeout"] != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestOpportunityBatchRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := []model.OpportunityRow{
		{Rank: 1, FlatID: "1", Price: 1000, Area: 50, DiscountPercentageVsMedian: 12.5, Bucket: model.BucketStats{Median: 1100, Count: 10}},
		{Rank: 2, FlatID: "2", Price: 1050, Area: 55, DiscountPercentageVsMedian: 9.0, Bucket: model.BucketStats{Median: 1100, Count: 10}},
	}
	if err := s.InsertOpportunityBatch(ctx, rows, "2026-07-31 10:00:00"); err != nil {
		t.Fatalf("InsertOpportunityBatch: %v", err)
	}
}
