package walker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

const pageTemplate = `<html><body>
<div class="sidebar"><a href="/a/show/999999">ad</a></div>
<div class="list search-list">
%s
</div>
</body></html>`

func anchor(id int) string {
	return fmt.Sprintf(`<a href="/a/show/%d">listing</a>`, id)
}

func TestWalkerEnumeratesAcrossPagesAndDeduplicates(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			fmt.Fprintf(w, pageTemplate, anchor(1)+anchor(2)+anchor(1)) // dup within page
		case "2":
			fmt.Fprintf(w, pageTemplate, anchor(2)+anchor(3)) // dup across pages
		default:
			fmt.Fprint(w, pageTemplate) // empty results -> stop
		}
	}))
	defer srv.Close()

	wk := New(srv.Client(), "almaty", "42", model.Rental, 10)
	wk.searchURLFmt = srv.URL + "/?page=%[3]d&city=%[1]s&complex=%[2]s"

	var got []string
	for {
		id, ok, err := wk.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, id)
	}

	want := []string{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if hits != 3 {
		t.Errorf("hits = %d, want 3 (two result pages + one empty terminator)", hits)
	}
}

func TestWalkerStopsAtMaxPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		fmt.Fprintf(w, pageTemplate, anchor(100+page))
	}))
	defer srv.Close()

	wk := New(srv.Client(), "almaty", "42", model.Rental, 2)
	wk.searchURLFmt = srv.URL + "/?page=%[3]d&city=%[1]s&complex=%[2]s"

	count := 0
	for {
		_, ok, err := wk.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 (one per page, capped at max_pages)", count)
	}
}

func TestWalkerIgnoresSidebarAnchors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, pageTemplate, anchor(5))
	}))
	defer srv.Close()

	wk := New(srv.Client(), "almaty", "42", model.Rental, 1)
	wk.searchURLFmt = srv.URL + "/?page=%[3]d&city=%[1]s&complex=%[2]s"

	id, ok, err := wk.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("Next: id=%q ok=%v err=%v", id, ok, err)
	}
	if id != "5" {
		t.Errorf("id = %q, want 5 (sidebar ad 999999 must be ignored)", id)
	}
}

func TestWalkerStopsOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wk := New(srv.Client(), "almaty", "42", model.Rental, 5)
	wk.searchURLFmt = srv.URL + "/?page=%[3]d&city=%[1]s&complex=%[2]s"

	_, ok, err := wk.Next(context.Background())
	if err != nil {
		t.Fatalf("Next returned error, want nil (HTTP failure ends walk quietly): %v", err)
	}
	if ok {
		t.Error("expected walk to end on HTTP failure")
	}
}
