// Package directory resolves residential complex ("JK") names to Complex
// rows (spec §4.4). It is a thin read-mostly cache over the store: most
// ingestion runs re-resolve the same handful of complex names thousands of
// times, so a per-city snapshot is cached and rebuilt lazily, with
// singleflight collapsing concurrent first-load requests for the same city
// (mirroring the teacher's OrderCache idiom).
package directory

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

// Store is the subset of the store the Directory depends on.
type Store interface {
	ListComplexesForCity(ctx context.Context, city string) ([]model.Complex, error)
	ListBlacklistedComplexNames(ctx context.Context) (map[string]struct{}, error)
	ListBlacklistedDistricts(ctx context.Context) (map[string]struct{}, error) // keys are "city|district", lowercased
}

// Directory resolves complex names within one city, caching the store's
// complex list to avoid a query per lookup during a run.
type Directory struct {
	store Store

	mu    sync.RWMutex
	cache map[string][]model.Complex // city -> complexes
	group singleflight.Group
}

// New builds a Directory backed by store.
func New(store Store) *Directory {
	return &Directory{
		store: store,
		cache: make(map[string][]model.Complex),
	}
}

// Invalidate drops the cached complex list for city, forcing the next
// lookup to reload from the store. Call after writes that add complexes.
func (d *Directory) Invalidate(city string) {
	d.mu.Lock()
	delete(d.cache, city)
	d.mu.Unlock()
}

func (d *Directory) complexesForCity(ctx context.Context, city string) ([]model.Complex, error) {
	d.mu.RLock()
	if cs, ok := d.cache[city]; ok {
		d.mu.RUnlock()
		return cs, nil
	}
	d.mu.RUnlock()

	v, err, _ := d.group.Do(city, func() (interface{}, error) {
		cs, err := d.store.ListComplexesForCity(ctx, city)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.cache[city] = cs
		d.mu.Unlock()
		return cs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Complex), nil
}

// FindByName resolves name within city: case-insensitive exact match first,
// then a deduplicated best-representative substring match (spec §4.4.a).
func (d *Directory) FindByName(ctx context.Context, city, name string) (model.Complex, bool, error) {
	complexes, err := d.complexesForCity(ctx, city)
	if err != nil {
		return model.Complex{}, false, err
	}

	lower := strings.ToLower(name)
	for _, c := range complexes {
		if strings.ToLower(c.Name) == lower {
			return c, true, nil
		}
	}

	var substringMatches []model.Complex
	for _, c := range complexes {
		if strings.Contains(strings.ToLower(c.Name), lower) {
			substringMatches = append(substringMatches, c)
		}
	}
	if len(substringMatches) == 0 {
		return model.Complex{}, false, nil
	}

	deduped := dedupe(substringMatches, name)
	best := deduped[0]
	bestScore := score(best, name)
	for _, c := range deduped[1:] {
		if s := score(c, name); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, true, nil
}

// Search returns every deduplicated substring match for name within city.
func (d *Directory) Search(ctx context.Context, city, name string) ([]model.Complex, error) {
	complexes, err := d.complexesForCity(ctx, city)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(name)
	var matches []model.Complex
	for _, c := range complexes {
		if strings.Contains(strings.ToLower(c.Name), lower) {
			matches = append(matches, c)
		}
	}
	return dedupe(matches, name), nil
}

// GetByComplexID returns the complex with the given ID within city, if any.
func (d *Directory) GetByComplexID(ctx context.Context, city, complexID string) (model.Complex, bool, error) {
	complexes, err := d.complexesForCity(ctx, city)
	if err != nil {
		return model.Complex{}, false, err
	}
	for _, c := range complexes {
		if c.ComplexID == complexID {
			return c, true, nil
		}
	}
	return model.Complex{}, false, nil
}

// ListForCity returns every known complex in city, unfiltered.
func (d *Directory) ListForCity(ctx context.Context, city string) ([]model.Complex, error) {
	return d.complexesForCity(ctx, city)
}

// ListExcludingBlacklists returns every complex in city that is neither
// individually blacklisted by name nor in a blacklisted (city, district).
func (d *Directory) ListExcludingBlacklists(ctx context.Context, city string) ([]model.Complex, error) {
	complexes, err := d.complexesForCity(ctx, city)
	if err != nil {
		return nil, err
	}
	blacklistedNames, err := d.store.ListBlacklistedComplexNames(ctx)
	if err != nil {
		return nil, err
	}
	blacklistedDistricts, err := d.store.ListBlacklistedDistricts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.Complex, 0, len(complexes))
	for _, c := range complexes {
		if _, blacklisted := blacklistedNames[strings.ToLower(c.Name)]; blacklisted {
			continue
		}
		key := strings.ToLower(city) + "|" + strings.ToLower(c.District)
		if _, blacklisted := blacklistedDistricts[key]; blacklisted {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
