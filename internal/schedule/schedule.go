// Package schedule drives the two scan triggers (SPEC_FULL.md §4.9): a
// daily cron tick over every enabled source, and an on-demand trigger for a
// single source or "all enabled" that a read API handler can call directly.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"eventscout/internal/domain"
	"eventscout/internal/scan"
	"eventscout/pkg/logging"
)

// Runner is the subset of scan.Engine the scheduler needs.
type Runner interface {
	RunSources(ctx context.Context, sources []domain.Source, fromScheduler bool) []*domain.Scan
	RunSource(ctx context.Context, src domain.Source, fromScheduler bool) (*domain.Scan, error)
}

// SourceLister resolves the enabled source set at trigger time, so the
// scheduler always sees sources currently marked enabled.
type SourceLister interface {
	ListEnabledSourcesCtx(ctx context.Context) ([]domain.Source, error)
	GetSourceByIDCtx(ctx context.Context, id int64) (*domain.Source, error)
}

// Scheduler owns the daily cron tick and exposes an on-demand trigger.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	sources SourceLister
	log     *logging.Logger

	mu      sync.Mutex
	running bool
}

// New constructs a Scheduler. dailySchedule is a 24-hour "HH:MM" local time.
func New(dailySchedule string, runner Runner, sources SourceLister, log *logging.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		sources: sources,
		log:     log,
	}

	spec, err := dailyCronSpec(dailySchedule)
	if err != nil {
		return nil, err
	}

	if _, err := s.cron.AddFunc(spec, s.runDailyTick); err != nil {
		return nil, fmt.Errorf("schedule: registering daily tick: %w", err)
	}

	return s, nil
}

// dailyCronSpec converts an "HH:MM" local time into a 5-field cron spec
// that fires once a day at that time.
func dailyCronSpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("schedule: invalid SCAN_SCHEDULE %q, want HH:MM: %w", hhmm, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// Start begins the cron loop in the background. Non-blocking.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
}

// Stop halts the cron loop and waits for any in-progress tick to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

func (s *Scheduler) runDailyTick() {
	ctx := context.Background()
	enabled, err := s.sources.ListEnabledSourcesCtx(ctx)
	if err != nil {
		if s.log != nil {
			s.log.WithComponent("schedule").Error("daily tick: failed to list enabled sources", err)
		}
		return
	}
	if s.log != nil {
		s.log.WithComponent("schedule").Info("daily tick starting", logging.Int("source_count", len(enabled)))
	}
	s.runner.RunSources(ctx, enabled, true)
}

// Trigger is an on-demand scan request. SourceID of 0 means "all enabled".
type Trigger struct {
	SourceID int64
}

// TriggerResult reports what the on-demand request actually did.
type TriggerResult struct {
	Scans      []*domain.Scan
	Suppressed bool // true when the single requested source already had a scan in flight
}

// RunNow executes an on-demand trigger synchronously and returns once every
// requested source's scan has reached a terminal state.
func (s *Scheduler) RunNow(ctx context.Context, t Trigger) (TriggerResult, error) {
	if t.SourceID == 0 {
		enabled, err := s.sources.ListEnabledSourcesCtx(ctx)
		if err != nil {
			return TriggerResult{}, fmt.Errorf("schedule: listing enabled sources: %w", err)
		}
		return TriggerResult{Scans: s.runner.RunSources(ctx, enabled, false)}, nil
	}

	src, err := s.sources.GetSourceByIDCtx(ctx, t.SourceID)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("schedule: loading source %d: %w", t.SourceID, err)
	}
	if src == nil {
		return TriggerResult{}, fmt.Errorf("schedule: unknown source id %d", t.SourceID)
	}

	result, err := s.runner.RunSource(ctx, *src, false)
	if err != nil {
		if errors.Is(err, scan.ErrScanInFlight) {
			return TriggerResult{Suppressed: true}, nil
		}
		return TriggerResult{}, err
	}
	return TriggerResult{Scans: []*domain.Scan{result}}, nil
}
