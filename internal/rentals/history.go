package rentals

import (
	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/stats"
)

// DatedRentals is one query_date's rental rows for a complex.
type DatedRentals struct {
	Date    string
	Rentals []model.Listing
}

// WindowSales resolves the sales rows to compare against for a rental date,
// typically "every non-archived sale in [date-7d, date+7d]" read from the
// store by the caller.
type WindowSales func(date string) []model.Listing

// HistoricalSeries computes one HistoricalPoint per (date, flat_type) that
// has at least one rental on that date, pairing against the window's sales
// (spec §4.9). A point is still emitted when no yields could be computed;
// its Stats are the all-zero Summary.
func HistoricalSeries(byDate []DatedRentals, window WindowSales) []HistoricalPoint {
	var out []HistoricalPoint
	for _, d := range byDate {
		sales := window(d.Date)
		for _, ft := range model.AllFlatTypes {
			var rentalsOfType []model.Listing
			for _, r := range d.Rentals {
				if r.FlatType == ft {
					rentalsOfType = append(rentalsOfType, r)
				}
			}
			if len(rentalsOfType) == 0 {
				continue
			}
			yields := computeYields(rentalsOfType, sales)
			var valid []float64
			for _, y := range yields {
				if y.HasYield {
					valid = append(valid, y.Value)
				}
			}
			out = append(out, HistoricalPoint{Date: d.Date, FlatType: ft, Stats: stats.Of(valid)})
		}
	}
	return out
}
