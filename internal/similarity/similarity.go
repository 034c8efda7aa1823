// Package similarity implements the comparable-sales matcher (spec §4.7).
// It is pure: no store access, so it stays trivially testable and
// replaceable (e.g. a different flat-type confusability policy) without
// touching the store.
package similarity

import "github.com/krisha-intel/krisha-intel/internal/model"

const areaTolerance = 0.20

// confusablePair holds flat types the matcher treats as interchangeable.
var confusablePair = map[model.FlatType]model.FlatType{
	model.Studio:     model.OneBedroom,
	model.OneBedroom: model.Studio,
}

// Match reports whether sale is a comparable sale for rental, per spec §4.7:
// same flat type (or the Studio/1BR confusable pair), area within ±20%
// inclusive, and both areas strictly positive.
func Match(rental, sale model.Listing) bool {
	if rental.Area <= 0 || sale.Area <= 0 {
		return false
	}
	if !flatTypeMatches(rental.FlatType, sale.FlatType) {
		return false
	}
	return areaWithinTolerance(rental.Area, sale.Area)
}

func flatTypeMatches(a, b model.FlatType) bool {
	if a == b {
		return true
	}
	return confusablePair[a] == b
}

func areaWithinTolerance(a, b float64) bool {
	largest := a
	if b > largest {
		largest = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff/largest <= areaTolerance
}

// Comparables filters sales down to those that match rental, per Match.
func Comparables(rental model.Listing, sales []model.Listing) []model.Listing {
	var out []model.Listing
	for _, s := range sales {
		if Match(rental, s) {
			out = append(out, s)
		}
	}
	return out
}
