package sales

import (
	"math"
	"testing"

	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/stats"
)

func listing(id string, price int64, ft model.FlatType) model.Listing {
	return model.Listing{FlatID: id, Price: price, FlatType: ft}
}

func TestAnalyzeCurrentMarketBucketsByFlatType(t *testing.T) {
	latest := []model.Listing{
		listing("1", 10000000, model.Studio),
		listing("2", 12000000, model.Studio),
		listing("3", 20000000, model.TwoBedroom),
	}
	market := AnalyzeCurrentMarket("X", latest)
	if market.Buckets[model.Studio].Count != 2 {
		t.Errorf("Studio bucket count = %d, want 2", market.Buckets[model.Studio].Count)
	}
	if market.Buckets[model.TwoBedroom].Count != 1 {
		t.Errorf("TwoBedroom bucket count = %d, want 1", market.Buckets[model.TwoBedroom].Count)
	}
	if _, ok := market.Buckets[model.OneBedroom]; ok {
		t.Error("expected no bucket for flat type with zero listings")
	}
}

func TestIsOpportunityComparesAgainstMean(t *testing.T) {
	bucket := stats.Summary{Mean: 10000000, Count: 5}
	cheap := listing("1", 8000000, model.Studio)  // <= mean*(1-0.15)=8.5M
	pricey := listing("2", 9000000, model.Studio) // > 8.5M
	if !IsOpportunity(cheap, bucket, 0.15) {
		t.Error("expected cheap listing to be an opportunity")
	}
	if IsOpportunity(pricey, bucket, 0.15) {
		t.Error("expected pricey listing not to be an opportunity")
	}
}

func TestIsOpportunityFalseWhenBucketEmpty(t *testing.T) {
	if IsOpportunity(listing("1", 1, model.Studio), stats.Summary{}, 0.5) {
		t.Error("empty bucket must never report an opportunity")
	}
}

func TestDiscountVsMedianFormula(t *testing.T) {
	bucket := stats.Summary{Median: 10000000}
	s := listing("1", 8500000, model.Studio)
	want := (10000000.0 - 8500000.0) / 10000000.0 * 100
	if got := DiscountVsMedian(s, bucket); math.Abs(got-want) > 1e-9 {
		t.Errorf("DiscountVsMedian = %v, want %v", got, want)
	}
}

func TestTopNFiltersFraudThresholdAndRenumbers(t *testing.T) {
	bucket := stats.Summary{Median: 10000000, Mean: 10000000, Count: 10}
	candidates := []CandidateOpportunity{
		{Listing: listing("1", 9000000, model.Studio), Bucket: bucket},  // 10% discount
		{Listing: listing("2", 4000000, model.Studio), Bucket: bucket},  // 60% discount -> fraud, dropped
		{Listing: listing("3", 7000000, model.Studio), Bucket: bucket},  // 30% discount
	}
	rows := TopN(candidates, 10, 50)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (fraud row dropped)", len(rows))
	}
	if rows[0].FlatID != "3" || rows[0].Rank != 1 {
		t.Errorf("rows[0] = %+v, want flat 3 ranked 1 (largest discount first)", rows[0])
	}
	if rows[1].FlatID != "1" || rows[1].Rank != 2 {
		t.Errorf("rows[1] = %+v, want flat 1 ranked 2", rows[1])
	}
}

func TestTopNCapsAtN(t *testing.T) {
	bucket := stats.Summary{Median: 10000000, Mean: 10000000, Count: 10}
	var candidates []CandidateOpportunity
	for i := 0; i < 5; i++ {
		candidates = append(candidates, CandidateOpportunity{
			Listing: listing("x", int64(9000000-i*100000), model.Studio),
			Bucket:  bucket,
		})
	}
	rows := TopN(candidates, 2, 50)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
}
