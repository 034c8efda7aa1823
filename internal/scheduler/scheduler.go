// Package scheduler drives the orchestrator on a recurring cron schedule,
// for the `serve-schedule` command (spec §6, "ADD" item: a long-running
// daemon mode was not in the distilled pipeline, which assumed an external
// cron invoking the CLI once per run).
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/orchestrator"
)

// Runner is the subset of *orchestrator.Orchestrator the scheduler drives.
type Runner interface {
	Run(ctx context.Context, params orchestrator.Params) (model.PipelineRun, error)
}

// Scheduler wraps a cron.Cron driving one Runner across a fixed set of
// cities; each tick starts every city's run concurrently, with at most one
// run per city at a time (an overlapping run for the same city is skipped,
// logged as a warning, rather than queued).
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	params []orchestrator.Params

	mu      sync.Mutex
	running map[string]bool
}

// New builds a Scheduler that invokes runner once per tick for every entry
// in params, each under its own city key.
func New(runner Runner, params []orchestrator.Params) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		params:  params,
		running: make(map[string]bool),
	}
}

// Start schedules a tick at the given standard 5-field cron expression and
// begins running it in the background. Call Stop to end it.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return fmt.Errorf("scheduler: invalid cron expression %q: %w", spec, err)
	}
	s.cron.Start()
	logger.Info("scheduler", fmt.Sprintf("scheduled %q for %d cit(y/ies)", spec, len(s.params)))
	return nil
}

// Stop waits for any in-progress tick to finish and stops future ticks.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) tick() {
	for _, p := range s.params {
		p := p
		s.mu.Lock()
		if s.running[p.City] {
			s.mu.Unlock()
			logger.Warn("scheduler", fmt.Sprintf("%s: previous run still in progress, skipping this tick", p.City))
			continue
		}
		s.running[p.City] = true
		s.mu.Unlock()

		go func() {
			defer func() {
				s.mu.Lock()
				s.running[p.City] = false
				s.mu.Unlock()
			}()
			ctx := context.Background()
			if _, err := s.runner.Run(ctx, p); err != nil {
				logger.Error("scheduler", fmt.Sprintf("%s: run failed: %v", p.City, err))
			}
		}()
	}
}
