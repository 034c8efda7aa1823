package crosssnapshot

import (
	"sort"

	"github.com/krisha-intel/krisha-intel/internal/store"
)

// YieldRanking is one complex's rental-yield figure for the latest date.
type YieldRanking struct {
	Complex    string
	YieldPct   float64
	SalesCount int
	RentalsCount int
}

// minSamplesForYieldRanking and minSamplesForPSMRanking are spec §4.11's
// sample-size floors: a complex only enters a ranking once it has enough
// rows on both sides to not be noise.
const (
	minSamplesForYieldRanking = 3
	minSamplesForPSMRanking   = 5
)

// YieldRankings ranks complexes by gross rental yield descending:
// yield_pct = mean_rent*12 / mean_sale * 100, restricted to complexes with
// >=3 sales AND >=3 rentals on the same date.
func YieldRankings(salesByComplex, rentalsByComplex map[string][]store.ComplexDateRow) []YieldRanking {
	var out []YieldRanking
	for complex, sales := range salesByComplex {
		rentals, ok := rentalsByComplex[complex]
		if !ok || len(sales) < minSamplesForYieldRanking || len(rentals) < minSamplesForYieldRanking {
			continue
		}
		meanSale := meanPrice(sales)
		meanRent := meanPrice(rentals)
		if meanSale == 0 {
			continue
		}
		out = append(out, YieldRanking{
			Complex:      complex,
			YieldPct:     meanRent * 12 / meanSale * 100,
			SalesCount:   len(sales),
			RentalsCount: len(rentals),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].YieldPct > out[j].YieldPct })
	return out
}

func meanPrice(rows []store.ComplexDateRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += float64(r.Price)
	}
	return sum / float64(len(rows))
}

// PSMRanking is one complex's price-per-m² figures, for complexes with
// enough sales volume to be meaningful.
type PSMRanking struct {
	Complex string
	Mean    float64
	Min     float64
	Max     float64
	Count   int
}

// PSMRankings computes mean/min/max(price/area) per complex, restricted to
// complexes with >=5 sales on the date.
func PSMRankings(salesByComplex map[string][]store.ComplexDateRow) []PSMRanking {
	var out []PSMRanking
	for complex, rows := range salesByComplex {
		if len(rows) < minSamplesForPSMRanking {
			continue
		}
		var sum, min, max float64
		n := 0
		for _, r := range rows {
			if r.Area <= 0 {
				continue
			}
			psm := float64(r.Price) / r.Area
			if n == 0 || psm < min {
				min = psm
			}
			if n == 0 || psm > max {
				max = psm
			}
			sum += psm
			n++
		}
		if n == 0 {
			continue
		}
		out = append(out, PSMRanking{Complex: complex, Mean: sum / float64(n), Min: min, Max: max, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}
