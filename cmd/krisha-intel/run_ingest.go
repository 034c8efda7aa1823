package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/orchestrator"
)

var (
	ingestCity        string
	ingestMaxPages    int
	ingestConcurrency int
	ingestDB          string
)

var runIngestCmd = &cobra.Command{
	Use:   "run-ingest",
	Short: "Scrape one city's listings and persist snapshots",
	RunE:  runIngest,
}

func init() {
	runIngestCmd.Flags().StringVar(&ingestCity, "city", "", "city search path segment, e.g. almaty (required)")
	runIngestCmd.Flags().IntVar(&ingestMaxPages, "max-pages", 0, "override scraping.max_pages_default from config")
	runIngestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "override scraping.concurrency from config")
	runIngestCmd.Flags().StringVar(&ingestDB, "db", "", "override store.path from config")
	runIngestCmd.MarkFlagRequired("city")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, st, err := openStore(ingestDB)
	if err != nil {
		return err
	}
	defer st.Close()

	maxPages := cfg.Scraping.MaxPagesDefault
	if ingestMaxPages > 0 {
		maxPages = ingestMaxPages
	}
	concurrency := cfg.Scraping.Concurrency
	if ingestConcurrency > 0 {
		concurrency = ingestConcurrency
	}

	dir := newDirectory(st)
	fetch := newFetcher(cfg)
	orch := orchestrator.New(dir, fetch, st, newSearchHTTPClient())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := orch.Run(ctx, orchestrator.Params{
		City:        ingestCity,
		MaxPages:    maxPages,
		Concurrency: concurrency,
	})

	logger.Section("Ingestion summary")
	logger.Stats("City", run.City)
	logger.Stats("Complexes", run.ComplexesSuccess)
	logger.Stats("Failed complexes", run.ComplexesFailed)
	logger.Stats("Listings scraped", run.ListingsScraped)
	logger.Stats("Duration", run.Duration().Round(time.Second))
	if len(run.Errors) > 0 {
		logger.Stats("Errors", run.Errors)
	}

	return err
}
