package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/orchestrator"
	"github.com/krisha-intel/krisha-intel/internal/scheduler"
)

var (
	scheduleCities []string
	scheduleCron   string
	scheduleDB     string
)

var serveScheduleCmd = &cobra.Command{
	Use:   "serve-schedule",
	Short: "Run ingestion for one or more cities on a recurring cron schedule",
	RunE:  serveSchedule,
}

func init() {
	serveScheduleCmd.Flags().StringArrayVar(&scheduleCities, "city", nil, "city to ingest on each tick (repeatable)")
	serveScheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "override schedule.cron from config")
	serveScheduleCmd.Flags().StringVar(&scheduleDB, "db", "", "override store.path from config")
	serveScheduleCmd.MarkFlagRequired("city")
}

func serveSchedule(cmd *cobra.Command, args []string) error {
	cfg, st, err := openStore(scheduleDB)
	if err != nil {
		return err
	}
	defer st.Close()

	cronExpr := cfg.Schedule.Cron
	if scheduleCron != "" {
		cronExpr = scheduleCron
	}
	if cronExpr == "" {
		return fmt.Errorf("serve-schedule: no cron expression set (--cron or schedule.cron in config)")
	}

	dir := newDirectory(st)
	fetch := newFetcher(cfg)
	orch := orchestrator.New(dir, fetch, st, newSearchHTTPClient())

	params := make([]orchestrator.Params, 0, len(scheduleCities))
	for _, city := range scheduleCities {
		params = append(params, orchestrator.Params{
			City:        city,
			MaxPages:    cfg.Scraping.MaxPagesDefault,
			Concurrency: cfg.Scraping.Concurrency,
		})
	}

	sched := scheduler.New(orch, params)
	if err := sched.Start(cronExpr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("serve-schedule", "shutting down, waiting for any in-progress run to finish")
	sched.Stop()
	return nil
}
