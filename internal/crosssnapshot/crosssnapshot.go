// Package crosssnapshot computes comparisons across two dated snapshots of
// the same city's sales/rentals data: price movers, market turnover, and
// cross-complex rankings (spec §4.11). All functions are pure over the rows
// the caller reads from the store.
package crosssnapshot

import (
	"sort"

	"github.com/krisha-intel/krisha-intel/internal/store"
)

// maxPricePerM2 caps price/area outliers out of the movers computation
// (spec §4.11: "capped so that price/area < 5,000,000").
const maxPricePerM2 = 5_000_000.0

// Mover is one complex's average price-per-m² change between two dates.
type Mover struct {
	Complex    string
	OldAvgPSM  float64
	NewAvgPSM  float64
	DeltaPct   float64
}

// Movers computes risers (largest positive Δ%) and fallers (largest negative
// Δ%) across complexes with ≥3 rows on both dates, each capped to length.
func Movers(oldByComplex, newByComplex map[string][]store.ComplexDateRow, length int) (risers, fallers []Mover) {
	var all []Mover
	for complex, oldRows := range oldByComplex {
		newRows, ok := newByComplex[complex]
		if !ok || len(oldRows) < 3 || len(newRows) < 3 {
			continue
		}
		oldAvg := avgCappedPricePerM2(oldRows)
		newAvg := avgCappedPricePerM2(newRows)
		if oldAvg == 0 {
			continue
		}
		delta := (newAvg - oldAvg) / oldAvg * 100
		all = append(all, Mover{Complex: complex, OldAvgPSM: oldAvg, NewAvgPSM: newAvg, DeltaPct: delta})
	}

	risers = append([]Mover(nil), all...)
	sort.Slice(risers, func(i, j int) bool { return risers[i].DeltaPct > risers[j].DeltaPct })
	fallers = append([]Mover(nil), all...)
	sort.Slice(fallers, func(i, j int) bool { return fallers[i].DeltaPct < fallers[j].DeltaPct })

	if length > 0 {
		if len(risers) > length {
			risers = risers[:length]
		}
		if len(fallers) > length {
			fallers = fallers[:length]
		}
	}
	return risers, fallers
}

func avgCappedPricePerM2(rows []store.ComplexDateRow) float64 {
	var sum float64
	var n int
	for _, r := range rows {
		if r.Area <= 0 {
			continue
		}
		psm := float64(r.Price) / r.Area
		if psm >= maxPricePerM2 {
			continue
		}
		sum += psm
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Turnover holds the set-arithmetic comparison between two dates' id sets.
type Turnover struct {
	TotalOld     int
	Removed      int
	New          int
	Stable       int
	TurnoverPct  float64
}

// ComputeTurnover compares oldIDs to newIDs, per spec §4.11.
func ComputeTurnover(oldIDs, newIDs []string) Turnover {
	oldSet := toSet(oldIDs)
	newSet := toSet(newIDs)

	removed := 0
	for id := range oldSet {
		if _, ok := newSet[id]; !ok {
			removed++
		}
	}
	added := 0
	for id := range newSet {
		if _, ok := oldSet[id]; !ok {
			added++
		}
	}

	t := Turnover{
		TotalOld: len(oldSet),
		Removed:  removed,
		New:      added,
		Stable:   len(oldSet) - removed,
	}
	if t.TotalOld > 0 {
		t.TurnoverPct = float64(t.Removed) / float64(t.TotalOld) * 100
	}
	return t
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// RowIDs extracts the flat IDs from a slice of dated rows, for turnover set
// arithmetic.
func RowIDs(rows []store.ComplexDateRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.FlatID
	}
	return ids
}
