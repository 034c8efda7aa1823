// Package sales implements the sales-side opportunity analysis over a
// complex's latest sales snapshots, plus the cross-complex Top-N ranking run
// (spec §4.10).
package sales

import (
	"sort"

	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/stats"
)

// CurrentMarket buckets the latest non-archived sales for one complex by
// flat type.
type CurrentMarket struct {
	ComplexName string
	Buckets     map[model.FlatType]stats.Summary
}

// AnalyzeCurrentMarket computes per-flat-type price statistics over latest.
func AnalyzeCurrentMarket(complexName string, latest []model.Listing) CurrentMarket {
	buckets := make(map[model.FlatType]stats.Summary)
	for _, ft := range model.AllFlatTypes {
		var prices []float64
		for _, l := range latest {
			if l.FlatType == ft {
				prices = append(prices, float64(l.Price))
			}
		}
		if len(prices) > 0 {
			buckets[ft] = stats.Of(prices)
		}
	}
	return CurrentMarket{ComplexName: complexName, Buckets: buckets}
}

// IsOpportunity reports whether s qualifies as a discount opportunity
// against its bucket, per spec §4.10: price <= bucket.mean * (1 - discount).
func IsOpportunity(s model.Listing, bucket stats.Summary, discount float64) bool {
	if bucket.Count == 0 {
		return false
	}
	return float64(s.Price) <= bucket.Mean*(1-discount)
}

// DiscountVsMedian is the published discount figure, relative to the
// bucket's median (not its mean): (median - price) / median * 100.
func DiscountVsMedian(s model.Listing, bucket stats.Summary) float64 {
	if bucket.Median == 0 {
		return 0
	}
	return (bucket.Median - float64(s.Price)) / bucket.Median * 100
}

// CandidateOpportunity pairs a listing with the bucket it was evaluated
// against, the input to Top-N ranking.
type CandidateOpportunity struct {
	Listing  model.Listing
	Bucket   stats.Summary
	QueryDate string
}

// TopN ranks candidates across complexes by discount-vs-median descending,
// dropping rows whose discount exceeds maxDiscount (likely-fraud filter,
// default 50), and re-numbers the survivors 1..N (spec §4.10).
func TopN(candidates []CandidateOpportunity, n int, maxDiscount float64) []model.OpportunityRow {
	type scored struct {
		CandidateOpportunity
		discount float64
	}
	var kept []scored
	for _, c := range candidates {
		d := DiscountVsMedian(c.Listing, c.Bucket)
		if d > maxDiscount {
			continue
		}
		kept = append(kept, scored{c, d})
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].discount > kept[j].discount })
	if n > 0 && len(kept) > n {
		kept = kept[:n]
	}

	out := make([]model.OpportunityRow, 0, len(kept))
	for i, c := range kept {
		l := c.Listing
		out = append(out, model.OpportunityRow{
			Rank:                       i + 1,
			FlatID:                     l.FlatID,
			ResidentialComplex:         l.ResidentialComplex,
			Price:                      l.Price,
			Area:                       l.Area,
			FlatType:                   l.FlatType,
			Floor:                      l.Floor,
			TotalFloors:                l.TotalFloors,
			ConstructionYear:           l.ConstructionYear,
			Parking:                    l.Parking,
			DiscountPercentageVsMedian: c.discount,
			Bucket: model.BucketStats{
				Mean: c.Bucket.Mean, Median: c.Bucket.Median,
				Min: c.Bucket.Min, Max: c.Bucket.Max, Count: c.Bucket.Count,
			},
			QueryDate:   c.QueryDate,
			URL:         l.URL,
			Description: l.Description,
		})
	}
	return out
}

// HistoricalPoint is one day's bucket statistics for one flat type.
type HistoricalPoint struct {
	Date     string
	FlatType model.FlatType
	Stats    stats.Summary
}

// HistoricalSeries computes per-(date, flat_type) bucket statistics over a
// 365-day window's worth of daily snapshots supplied by the caller.
func HistoricalSeries(byDate map[string][]model.Listing) []HistoricalPoint {
	var out []HistoricalPoint
	for date, listings := range byDate {
		for _, ft := range model.AllFlatTypes {
			var prices []float64
			for _, l := range listings {
				if l.FlatType == ft {
					prices = append(prices, float64(l.Price))
				}
			}
			if len(prices) == 0 {
				continue
			}
			out = append(out, HistoricalPoint{Date: date, FlatType: ft, Stats: stats.Of(prices)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].FlatType < out[j].FlatType
	})
	return out
}
