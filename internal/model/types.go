// Package model holds the core domain types shared across the ingestion and
// analytics packages: listings, snapshots, residential complexes, and the
// various blacklist/favorite/run rows the store persists.
package model

import "time"

// FlatType is a fixed, finite classification of apartment layouts.
type FlatType string

const (
	Studio      FlatType = "Studio"
	OneBedroom  FlatType = "1BR"
	TwoBedroom  FlatType = "2BR"
	ThreePlusBR FlatType = "3BR+"
)

// Valid reports whether ft is one of the four recognized flat types.
func (ft FlatType) Valid() bool {
	switch ft {
	case Studio, OneBedroom, TwoBedroom, ThreePlusBR:
		return true
	default:
		return false
	}
}

// AllFlatTypes lists the flat types in the canonical bucket order used by
// analytics reports.
var AllFlatTypes = []FlatType{Studio, OneBedroom, TwoBedroom, ThreePlusBR}

// AdvertisementKind selects which upstream table/search surface a listing
// belongs to.
type AdvertisementKind string

const (
	Rental AdvertisementKind = "rental"
	Sale   AdvertisementKind = "sale"
)

func (k AdvertisementKind) Valid() bool {
	return k == Rental || k == Sale
}

// DeveloperCategory rates a developer's track record.
type DeveloperCategory string

const (
	DeveloperGood       DeveloperCategory = "good"
	DeveloperBad        DeveloperCategory = "bad"
	DeveloperIndifferent DeveloperCategory = "indifferent"
)

// Developer is the optional builder behind a residential complex.
type Developer struct {
	Name     string
	Category DeveloperCategory
}

// Listing is the canonical in-memory form of one advertisement, produced by
// the parser and consumed by the store and analytics packages. Callers own
// the value; nothing here holds a reference back to raw scraped bytes.
type Listing struct {
	FlatID              string
	IsRental            bool
	Price               int64
	Area                float64
	FlatType            FlatType
	ResidentialComplex  string // "" when unknown
	Floor               *int
	TotalFloors         *int
	ConstructionYear    *int
	Parking             string // "" when unknown
	Description         string
	Archived            bool
	PublishedAt         time.Time
	CreatedAt           time.Time
	ScrapedAt           time.Time
	City                string // "" when unknown
	URL                 string
	QueryDate           string // YYYY-MM-DD of the most recent snapshot this Listing was read from; "" for a freshly parsed, not-yet-persisted Listing
}

// Snapshot is one (FlatID, QueryDate) row as persisted by the store.
type Snapshot struct {
	Listing
	QueryDate string // YYYY-MM-DD, UTC calendar day
	UpdatedAt time.Time
}

// Complex is a residential complex ("JK") as tracked by the directory.
type Complex struct {
	ComplexID     string
	Name          string
	City          string
	District      string
	DeveloperName string // "" when unknown
}

// BlacklistedComplex excludes a named complex from ingestion/analytics.
type BlacklistedComplex struct {
	ComplexID     string
	Name          string
	Notes         string
	BlacklistedAt time.Time
}

// BlacklistedDistrict excludes every complex in a (city, district) pair.
type BlacklistedDistrict struct {
	City     string
	District string
}

// Favorite pins a listing by (FlatID, FlatType-as-rental-or-sale).
type Favorite struct {
	FlatID  string
	Kind    AdvertisementKind
	Notes   string
	AddedAt time.Time
}

// IgnoredOpportunity excludes a listing from future opportunity rankings.
type IgnoredOpportunity struct {
	FlatID string
}

// BucketStats carries the comparator statistics an Opportunity was ranked
// against, embedded so the verdict is reproducible after the market moves.
type BucketStats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Count  int
}

// OpportunityRow is one row of an opportunity-analysis run batch.
type OpportunityRow struct {
	Rank                      int
	FlatID                    string
	ResidentialComplex        string
	Price                     int64
	Area                      float64
	FlatType                  FlatType
	Floor                     *int
	TotalFloors               *int
	ConstructionYear          *int
	Parking                   string
	DiscountPercentageVsMedian float64
	Bucket                    BucketStats
	QueryDate                 string
	URL                       string
	Description               string
}

// FXRate is one observed (currency, rate) reading.
type FXRate struct {
	Currency  string
	Rate      float64
	FetchedAt time.Time
}

// ErrorHistogram maps an error kind (e.g. "http_429", "timeout") to a count.
type ErrorHistogram map[string]int

// PipelineRun is one row recording one ingestion execution.
type PipelineRun struct {
	ID                int64
	City              string
	StartedAt         time.Time
	FinishedAt        time.Time
	ComplexesTotal    int
	ComplexesSuccess  int
	ComplexesFailed   int
	ListingsScraped   int
	Errors            ErrorHistogram
	TotalHTTPErrors   int
	TotalRequestErrors int
	TotalRateLimited  int
}

// Duration returns how long the run took.
func (p PipelineRun) Duration() time.Duration {
	return p.FinishedAt.Sub(p.StartedAt)
}
