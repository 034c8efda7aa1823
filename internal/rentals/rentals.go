// Package rentals implements the rental-yield analysis over a complex's
// latest rental and sales snapshots (spec §4.9). Pure over the Listing
// slices it is handed; callers own the Store reads.
package rentals

import (
	"sort"

	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/similarity"
	"github.com/krisha-intel/krisha-intel/internal/stats"
)

// Yield is one rental's computed yield, or unset (HasYield false) when no
// comparable sale could be found.
type Yield struct {
	Rental   model.Listing
	Value    float64 // annual rent / median comparable sale price, as a fraction
	HasYield bool
}

// Opportunity is a rental whose yield cleared the minimum threshold, carrying
// the bucket stats it was ranked against so the verdict stays reproducible.
type Opportunity struct {
	Rental model.Listing
	Yield  float64
	Bucket stats.Summary
}

// CurrentMarket is the current-state rental market analysis for one complex.
type CurrentMarket struct {
	ComplexName   string
	GlobalStats   stats.Summary
	FlatTypeStats map[model.FlatType]stats.Summary
	Opportunities map[model.FlatType][]Opportunity
}

// Analyze computes the current rental market for complexName, given its
// latest rentals and latest sales (both already filtered to non-archived,
// per spec §4.9). minYield is a fraction (e.g. 0.08 for 8%).
func Analyze(complexName string, latestRentals, latestSales []model.Listing, minYield float64) CurrentMarket {
	yields := computeYields(latestRentals, latestSales)

	var valid []float64
	for _, y := range yields {
		if y.HasYield {
			valid = append(valid, y.Value)
		}
	}

	market := CurrentMarket{
		ComplexName:   complexName,
		GlobalStats:   stats.Of(valid),
		FlatTypeStats: make(map[model.FlatType]stats.Summary),
		Opportunities: make(map[model.FlatType][]Opportunity),
	}
	if len(valid) == 0 {
		return market
	}

	for _, ft := range model.AllFlatTypes {
		var typeYields []float64
		for _, y := range yields {
			if y.HasYield && y.Rental.FlatType == ft {
				typeYields = append(typeYields, y.Value)
			}
		}
		if len(typeYields) > 0 {
			market.FlatTypeStats[ft] = stats.Of(typeYields)
		}
	}

	for _, y := range yields {
		if !y.HasYield || y.Value < minYield {
			continue
		}
		bucket := market.FlatTypeStats[y.Rental.FlatType]
		market.Opportunities[y.Rental.FlatType] = append(market.Opportunities[y.Rental.FlatType], Opportunity{
			Rental: y.Rental,
			Yield:  y.Value,
			Bucket: bucket,
		})
	}
	for ft, opps := range market.Opportunities {
		sort.Slice(opps, func(i, j int) bool { return opps[i].Yield > opps[j].Yield })
		market.Opportunities[ft] = opps
	}

	return market
}

// computeYields pairs every rental with its comparable sales and computes a
// yield where possible.
func computeYields(rentals, sales []model.Listing) []Yield {
	out := make([]Yield, 0, len(rentals))
	for _, r := range rentals {
		comparable := similarity.Comparables(r, sales)
		if len(comparable) == 0 {
			out = append(out, Yield{Rental: r})
			continue
		}
		prices := make([]float64, len(comparable))
		for i, s := range comparable {
			prices[i] = float64(s.Price)
		}
		sort.Float64s(prices)
		medianPrice := stats.Median(prices)
		if medianPrice <= 0 {
			out = append(out, Yield{Rental: r})
			continue
		}
		out = append(out, Yield{
			Rental:   r,
			Value:    (float64(r.Price) * 12) / medianPrice,
			HasYield: true,
		})
	}
	return out
}

// HistoricalPoint is one (date, flat_type) yield-statistics reading.
type HistoricalPoint struct {
	Date     string
	FlatType model.FlatType
	Stats    stats.Summary
}
