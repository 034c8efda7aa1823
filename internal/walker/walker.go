// Package walker enumerates listing IDs for one (complex, advertisement
// kind) pair page by page (spec §4.3). A Walker is a lazy, finite,
// non-restartable sequence: call Next until it reports done or an error.
package walker

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/model"
)

const (
	rentalSearchURLFormat = "https://krisha.kz/arenda/kvartiry/%s/?das[map.complex]=%s&page=%d"
	saleSearchURLFormat   = "https://krisha.kz/prodazha/kvartiry/%s/?das[map.complex]=%s&page=%d"

	resultsContainerSelector = ".list.search-list, .list.search-list.favorites-list"
	listingAnchorSelector    = `a[href*="/a/show/"]`
)

var reFlatIDFromHref = regexp.MustCompile(`/a/show/(\d+)`)

// Walker lazily enumerates flat IDs from a search listing for one complex
// and advertisement kind, one page at a time.
type Walker struct {
	http *http.Client

	city        string
	complexID   string
	kind        model.AdvertisementKind
	maxPages    int
	searchURLFmt string

	page    int
	done    bool
	seen    map[string]struct{}
	pending []string
}

// New builds a Walker. city is the search path segment (e.g. "almaty").
func New(httpClient *http.Client, city, complexID string, kind model.AdvertisementKind, maxPages int) *Walker {
	format := rentalSearchURLFormat
	if kind == model.Sale {
		format = saleSearchURLFormat
	}
	return &Walker{
		http:         httpClient,
		city:         city,
		complexID:    complexID,
		kind:         kind,
		maxPages:     maxPages,
		searchURLFmt: format,
		seen:         make(map[string]struct{}),
	}
}

// Next returns the next undiscovered flat ID. ok is false once the walk is
// exhausted (empty page or max_pages reached); callers must stop calling
// Next once ok is false, even if err is nil.
func (w *Walker) Next(ctx context.Context) (string, bool, error) {
	for {
		if len(w.pending) > 0 {
			id := w.pending[0]
			w.pending = w.pending[1:]
			return id, true, nil
		}
		if w.done {
			return "", false, nil
		}
		if err := w.fetchNextPage(ctx); err != nil {
			w.done = true
			logger.Warn("walker", fmt.Sprintf("complex %s page %d: %v (ending walk)", w.complexID, w.page+1, err))
			return "", false, nil
		}
	}
}

func (w *Walker) fetchNextPage(ctx context.Context) error {
	w.page++
	if w.page > w.maxPages {
		w.done = true
		return nil
	}

	url := fmt.Sprintf(w.searchURLFmt, w.city, w.complexID, w.page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("walker: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	ids := extractListingIDs(doc)
	fresh := ids[:0:0]
	for _, id := range ids {
		if _, dup := w.seen[id]; dup {
			continue
		}
		w.seen[id] = struct{}{}
		fresh = append(fresh, id)
	}

	if len(ids) == 0 {
		w.done = true
		return nil
	}
	w.pending = fresh
	return nil
}

// extractListingIDs pulls flat IDs from the main results container only,
// ignoring sidebar/ad anchors elsewhere on the page.
func extractListingIDs(doc *goquery.Document) []string {
	container := doc.Find(resultsContainerSelector).First()
	if container.Length() == 0 {
		return nil
	}

	var ids []string
	container.Find(listingAnchorSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := reFlatIDFromHref.FindStringSubmatch(href)
		if m == nil {
			return
		}
		ids = append(ids, m[1])
	})
	return ids
}
