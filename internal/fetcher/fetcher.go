// Package fetcher retrieves one listing by flat ID (spec §4.2). It tries the
// mobile analytics JSON endpoint first and falls back to the rendered
// desktop page when the endpoint is unavailable or incomplete, logging which
// source served the listing.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/parser"
	"github.com/krisha-intel/krisha-intel/internal/ratelimit"
)

const (
	analyticsURLFormat = "https://m.krisha.kz/analytics/aPriceAnalysis/?id=%s"
	pageURLFormat      = "https://krisha.kz/a/show/%s"

	mobileUserAgent = "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.0.0 Mobile Safari/537.36"
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Fetcher retrieves listings over HTTP, rate-limited and retried per spec §5.
type Fetcher struct {
	http    *http.Client
	limiter *ratelimit.Limiter

	// analyticsURLFmt and pageURLFmt are fmt.Sprintf formats taking the flat
	// ID, overridable in tests to point at a local httptest server instead
	// of the real krisha.kz hosts.
	analyticsURLFmt string
	pageURLFmt      string
}

// New builds a Fetcher with the given per-request delay/burst for the shared
// rate limiter. A single Fetcher is meant to be shared across the worker
// pool that drives one ingestion run.
func New(delay time.Duration, burst int) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Fetcher{
		http:            &http.Client{Timeout: 20 * time.Second, Transport: transport},
		limiter:         ratelimit.New(delay, burst),
		analyticsURLFmt: analyticsURLFormat,
		pageURLFmt:      pageURLFormat,
	}
}

// Fetch retrieves the listing for flatID, trying the analytics JSON endpoint
// first and the rendered page second. Kind selects which upstream surface
// (rental or sale) the flat belongs to, which only affects how the parsed
// Listing is tagged — both sources are scraped identically.
func (f *Fetcher) Fetch(ctx context.Context, flatID string, kind model.AdvertisementKind) (model.Listing, error) {
	listing, err := f.fetchAnalytics(ctx, flatID, kind)
	if err == nil {
		logger.Info("fetcher", fmt.Sprintf("flat %s via analytics endpoint", flatID))
		return listing, nil
	}

	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == KindHTTP && fe.StatusCode == 429 {
		return model.Listing{}, err // rate-limited: caller should back off, not fall back
	}

	logger.Warn("fetcher", fmt.Sprintf("flat %s analytics endpoint failed (%v), falling back to page", flatID, err))
	listing, pageErr := f.fetchPage(ctx, flatID, kind)
	if pageErr == nil {
		logger.Info("fetcher", fmt.Sprintf("flat %s via rendered page (fallback)", flatID))
		return listing, nil
	}
	return model.Listing{}, pageErr
}

func (f *Fetcher) fetchAnalytics(ctx context.Context, flatID string, kind model.AdvertisementKind) (model.Listing, error) {
	var result model.Listing
	err := ratelimit.Do(ctx, func(int) (bool, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return false, err
		}

		reqURL := fmt.Sprintf(f.analyticsURLFmt, flatID)
		body := strings.NewReader("id=" + url.QueryEscape(flatID))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
		if err != nil {
			return false, otherError(flatID, err)
		}
		req.Header.Set("User-Agent", mobileUserAgent)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Origin", "https://m.krisha.kz")
		req.Header.Set("Referer", fmt.Sprintf("https://m.krisha.kz/a/show/%s", flatID))
		req.Header.Set("X-Requested-With", "XMLHttpRequest")

		resp, err := f.http.Do(req)
		if err != nil {
			return classifyTransport(flatID, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			f.limiter.Note429()
			return true, httpError(flatID, resp.StatusCode)
		}
		if ratelimit.RetryableStatus(resp.StatusCode) {
			return true, httpError(flatID, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return false, httpError(flatID, resp.StatusCode)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, connectionError(flatID, err)
		}

		listing, err := parser.ParseAnalyticsPayload(flatID, raw, kind)
		if err != nil {
			return false, parseErrorToFetchError(flatID, err)
		}
		result = listing
		return false, nil
	})
	return result, err
}

func (f *Fetcher) fetchPage(ctx context.Context, flatID string, kind model.AdvertisementKind) (model.Listing, error) {
	var result model.Listing
	err := ratelimit.Do(ctx, func(int) (bool, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return false, err
		}

		reqURL := fmt.Sprintf(f.pageURLFmt, flatID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return false, otherError(flatID, err)
		}
		req.Header.Set("User-Agent", desktopUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := f.http.Do(req)
		if err != nil {
			return classifyTransport(flatID, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			f.limiter.Note429()
			return true, httpError(flatID, resp.StatusCode)
		}
		if ratelimit.RetryableStatus(resp.StatusCode) {
			return true, httpError(flatID, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return false, httpError(flatID, resp.StatusCode)
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return false, otherError(flatID, err)
		}

		listing, err := parser.ParsePage(flatID, doc, kind)
		if err != nil {
			return false, parseErrorToFetchError(flatID, err)
		}
		result = listing
		return false, nil
	})
	return result, err
}

func classifyTransport(flatID string, err error) (retryable bool, fetchErr error) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true, timeoutError(flatID, err)
	}
	return true, connectionError(flatID, err)
}

func parseErrorToFetchError(flatID string, err error) error {
	var mfe *parser.MissingFieldError
	if errors.As(err, &mfe) {
		return &FetchError{Kind: KindParseMissingField, FlatID: flatID, Field: mfe.Field, Err: err}
	}
	return otherError(flatID, err)
}
