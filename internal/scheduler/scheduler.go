// Package scheduler runs the recurring synchronizer and reconciliation work
// on cron schedules, keeping per-schedule run statistics for the status API.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/dto"
	"github.com/propstack/propstack_backend/internal/middleware"
	"github.com/propstack/propstack_backend/internal/platform/config"
)

// scheduleStats accumulates observable run history for one schedule.
type scheduleStats struct {
	mu              sync.Mutex
	enabled         bool
	runCount        int64
	lastRunAt       *time.Time
	lastDuration    time.Duration
	totalDuration   time.Duration
	lastError       string
	consecutiveErrs int
}

// namedSchedule is one registered cron entry plus its statistics.
type namedSchedule struct {
	name    string
	spec    string
	entryID cron.EntryID
	stats   *scheduleStats
}

// Scheduler manages cron job scheduling for the ledger platform.
type Scheduler struct {
	cron      *cron.Cron
	cfg       *config.Config
	services  *portssvc.ServiceContainer
	logger    *slog.Logger
	schedules []*namedSchedule

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler and registers every platform schedule.
func NewScheduler(cfg *config.Config, services *portssvc.ServiceContainer, logger *slog.Logger) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
	)

	s := &Scheduler{
		cron:     c,
		cfg:      cfg,
		services: services,
		logger:   logger,
	}
	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler.
func (s *Scheduler) registerJobs() {
	s.register("hourly_recent_sync", s.cfg.ScheduleHourlySync, func(ctx context.Context) error {
		since := time.Now().UTC().Add(-s.cfg.RecentSyncLookbackWindow)
		_, err := s.services.Sync.SyncRecent(ctx, since)
		return err
	})

	s.register("daily_full_sync", s.cfg.ScheduleDailySync, func(ctx context.Context) error {
		_, err := s.services.Sync.SyncAll(ctx)
		return err
	})

	s.register("weekly_consistency_check", s.cfg.ScheduleWeeklyValidation, func(ctx context.Context) error {
		_, err := s.services.Sync.ValidateConsistency(ctx, s.cfg.ConsistencyLookbackDays, 0, true)
		return err
	})

	// The monthly pass widens the consistency window well past the weekly
	// one to catch drift the short lookback misses.
	s.register("monthly_deep_sync", s.cfg.ScheduleMonthlyDeepSync, func(ctx context.Context) error {
		if _, err := s.services.Sync.SyncAll(ctx); err != nil {
			return err
		}
		_, err := s.services.Sync.ValidateConsistency(ctx, 35, 0, true)
		return err
	})

	s.register("sync_failure_reprocess", s.cfg.ScheduleFailureReprocess, func(ctx context.Context) error {
		_, err := s.services.Sync.ReprocessFailures(ctx)
		return err
	})

	s.register("sync_failure_cleanup", s.cfg.ScheduleFailureCleanup, func(ctx context.Context) error {
		_, err := s.services.Sync.CleanupTerminalFailures(ctx, s.cfg.FailureRetentionDuration)
		return err
	})

	s.logger.Info("All cron jobs registered", slog.Int("schedules", len(s.schedules)))
}

// register wires one named job into cron with run statistics tracking.
func (s *Scheduler) register(name, spec string, run func(context.Context) error) {
	stats := &scheduleStats{enabled: true}
	sched := &namedSchedule{name: name, spec: spec, stats: stats}

	entryID, err := s.cron.AddFunc(spec, func() {
		if s.baseCtx == nil {
			return
		}
		stats.mu.Lock()
		enabled := stats.enabled
		stats.mu.Unlock()
		if !enabled {
			return
		}
		logger := s.logger.With(slog.String("schedule", name))
		ctx := middleware.WithLogger(s.baseCtx, logger)

		started := time.Now().UTC()
		err := run(ctx)
		elapsed := time.Since(started)

		stats.mu.Lock()
		stats.runCount++
		stats.lastRunAt = &started
		stats.lastDuration = elapsed
		stats.totalDuration += elapsed
		if err != nil {
			stats.lastError = err.Error()
			stats.consecutiveErrs++
		} else {
			stats.lastError = ""
			stats.consecutiveErrs = 0
		}
		stats.mu.Unlock()

		if err != nil {
			logger.Error("Scheduled run failed",
				slog.String("error", err.Error()),
				slog.Duration("elapsed", elapsed),
			)
			return
		}
		logger.Info("Scheduled run finished", slog.Duration("elapsed", elapsed))
	})
	if err != nil {
		s.logger.Error("Failed to register schedule",
			slog.String("schedule", name),
			slog.String("spec", spec),
			slog.String("error", err.Error()),
		)
		return
	}

	sched.entryID = entryID
	s.schedules = append(s.schedules, sched)
}

// Start begins the cron scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Cron scheduler stopped")
}

// SetEnabled toggles the named schedule. Disabled schedules keep their cron
// entry but skip each firing until re-enabled. Returns false when no schedule
// carries the name.
func (s *Scheduler) SetEnabled(name string, enabled bool) bool {
	for _, sched := range s.schedules {
		if sched.name != name {
			continue
		}
		sched.stats.mu.Lock()
		sched.stats.enabled = enabled
		sched.stats.mu.Unlock()
		s.logger.Info("Schedule toggled", slog.String("schedule", name), slog.Bool("enabled", enabled))
		return true
	}
	return false
}

// Statuses reports every registered schedule with its run statistics.
func (s *Scheduler) Statuses() []dto.ScheduleStatusResponse {
	entries := make(map[cron.EntryID]cron.Entry, len(s.schedules))
	for _, entry := range s.cron.Entries() {
		entries[entry.ID] = entry
	}

	statuses := make([]dto.ScheduleStatusResponse, 0, len(s.schedules))
	for _, sched := range s.schedules {
		sched.stats.mu.Lock()
		status := dto.ScheduleStatusResponse{
			Name:            sched.name,
			Spec:            sched.spec,
			Enabled:         sched.stats.enabled,
			RunCount:        sched.stats.runCount,
			LastRunAt:       sched.stats.lastRunAt,
			LastDurationMs:  sched.stats.lastDuration.Milliseconds(),
			LastError:       sched.stats.lastError,
			ConsecutiveErrs: sched.stats.consecutiveErrs,
		}
		if sched.stats.runCount > 0 {
			status.AvgDurationMs = (sched.stats.totalDuration / time.Duration(sched.stats.runCount)).Milliseconds()
		}
		sched.stats.mu.Unlock()

		if entry, ok := entries[sched.entryID]; ok && !entry.Next.IsZero() {
			next := entry.Next
			status.NextRunAt = &next
		}
		statuses = append(statuses, status)
	}
	return statuses
}
