package main

import (
	"net"
	"net/http"
	"time"

	"github.com/krisha-intel/krisha-intel/internal/config"
	"github.com/krisha-intel/krisha-intel/internal/directory"
	"github.com/krisha-intel/krisha-intel/internal/fetcher"
	"github.com/krisha-intel/krisha-intel/internal/store"
)

// openStore loads cfg (falling back to defaults), resolves dbPath against
// it, and opens the store, returning both for callers that also need
// scraping tunables.
func openStore(dbPath string) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

// newSearchHTTPClient builds the http.Client shared by every Walker a run
// creates — search pages are comparatively cheap, so one pooled client
// suffices across complexes.
func newSearchHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 20 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func newFetcher(cfg *config.Config) *fetcher.Fetcher {
	delay := time.Duration(cfg.Scraping.DelaySeconds * float64(time.Second))
	burst := cfg.Scraping.Concurrency
	if burst < 1 {
		burst = 1
	}
	return fetcher.New(delay, burst)
}

func newDirectory(st *store.Store) *directory.Directory {
	return directory.New(st)
}
