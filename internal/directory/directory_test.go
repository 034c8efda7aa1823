package directory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

type fakeStore struct {
	complexes        []model.Complex
	blacklistedNames map[string]struct{}
	blacklistedDists map[string]struct{}
	loadCount        int32
	err              error
}

func (f *fakeStore) ListComplexesForCity(ctx context.Context, city string) ([]model.Complex, error) {
	atomic.AddInt32(&f.loadCount, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.complexes, nil
}

func (f *fakeStore) ListBlacklistedComplexNames(ctx context.Context) (map[string]struct{}, error) {
	return f.blacklistedNames, nil
}

func (f *fakeStore) ListBlacklistedDistricts(ctx context.Context) (map[string]struct{}, error) {
	return f.blacklistedDists, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		complexes: []model.Complex{
			{ComplexID: "1", Name: "Samal Towers", City: "almaty", District: "Medeu"},
			{ComplexID: "2", Name: "samal towers apartments", City: "almaty", District: "Medeu"},
			{ComplexID: "3", Name: "Esentai Park", City: "almaty", District: "Bostandyk"},
		},
		blacklistedNames: map[string]struct{}{},
		blacklistedDists: map[string]struct{}{},
	}
}

func TestFindByNameExactMatchCaseInsensitive(t *testing.T) {
	fs := newFakeStore()
	d := New(fs)
	c, ok, err := d.FindByName(context.Background(), "almaty", "esentai park")
	if err != nil || !ok {
		t.Fatalf("FindByName: ok=%v err=%v", ok, err)
	}
	if c.ComplexID != "3" {
		t.Errorf("ComplexID = %s, want 3", c.ComplexID)
	}
}

func TestFindByNameSubstringDedupesAndPicksRepresentative(t *testing.T) {
	fs := newFakeStore()
	d := New(fs)
	c, ok, err := d.FindByName(context.Background(), "almaty", "samal")
	if err != nil || !ok {
		t.Fatalf("FindByName: ok=%v err=%v", ok, err)
	}
	if c.ComplexID != "1" && c.ComplexID != "2" {
		t.Fatalf("unexpected representative %+v", c)
	}
}

func TestFindByNameNoMatch(t *testing.T) {
	fs := newFakeStore()
	d := New(fs)
	_, ok, err := d.FindByName(context.Background(), "almaty", "nonexistent")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if ok {
		t.Error("expected no match")
	}
}

func TestListExcludingBlacklistsFiltersByName(t *testing.T) {
	fs := newFakeStore()
	fs.blacklistedNames["esentai park"] = struct{}{}
	d := New(fs)

	out, err := d.ListExcludingBlacklists(context.Background(), "almaty")
	if err != nil {
		t.Fatalf("ListExcludingBlacklists: %v", err)
	}
	for _, c := range out {
		if c.ComplexID == "3" {
			t.Error("blacklisted complex Esentai Park must be excluded")
		}
	}
}

func TestListExcludingBlacklistsFiltersByDistrict(t *testing.T) {
	fs := newFakeStore()
	fs.blacklistedDists["almaty|medeu"] = struct{}{}
	d := New(fs)

	out, err := d.ListExcludingBlacklists(context.Background(), "almaty")
	if err != nil {
		t.Fatalf("ListExcludingBlacklists: %v", err)
	}
	for _, c := range out {
		if c.District == "Medeu" {
			t.Errorf("blacklisted district Medeu must be excluded, got %+v", c)
		}
	}
	if len(out) != 1 {
		t.Errorf("len(out) = %d, want 1 (only Esentai Park remains)", len(out))
	}
}

func TestCacheAvoidsRepeatedStoreLoads(t *testing.T) {
	fs := newFakeStore()
	d := New(fs)
	for i := 0; i < 5; i++ {
		if _, err := d.ListForCity(context.Background(), "almaty"); err != nil {
			t.Fatalf("ListForCity: %v", err)
		}
	}
	if fs.loadCount != 1 {
		t.Errorf("loadCount = %d, want 1 (cached after first load)", fs.loadCount)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	fs := newFakeStore()
	d := New(fs)
	if _, err := d.ListForCity(context.Background(), "almaty"); err != nil {
		t.Fatalf("ListForCity: %v", err)
	}
	d.Invalidate("almaty")
	if _, err := d.ListForCity(context.Background(), "almaty"); err != nil {
		t.Fatalf("ListForCity: %v", err)
	}
	if fs.loadCount != 2 {
		t.Errorf("loadCount = %d, want 2", fs.loadCount)
	}
}

func TestComplexesForCityPropagatesStoreError(t *testing.T) {
	fs := newFakeStore()
	fs.err = errors.New("db unavailable")
	d := New(fs)
	if _, err := d.ListForCity(context.Background(), "almaty"); err == nil {
		t.Error("expected store error to propagate")
	}
}
