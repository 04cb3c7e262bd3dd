package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultInterval runs the mirror every five minutes.
const DefaultInterval = "*/5 * * * *"

// Syncer is what the Scheduler triggers.
type Syncer interface {
	Run(ctx context.Context) (*Run, error)
	Status() Status
}

// SchedulerStatus is a snapshot of the scheduler and its syncer.
type SchedulerStatus struct {
	Enabled        bool      `json:"enabled"`
	Interval       string    `json:"interval"`
	Running        bool      `json:"running"`
	NextRun        time.Time `json:"next_run,omitempty"`
	LastSync       time.Time `json:"last_sync"`
	SyncInProgress bool      `json:"sync_in_progress"`
}

// Scheduler runs a Syncer on a standard five-field cron expression.
type Scheduler struct {
	syncer   Syncer
	enabled  bool
	interval string
	logger   *zap.Logger

	mu    sync.Mutex
	cron  *cron.Cron
	entry cron.EntryID
}

// NewScheduler creates a scheduler. An empty interval means DefaultInterval.
// A disabled scheduler still serves SyncNow.
func NewScheduler(syncer Syncer, enabled bool, interval string, logger *zap.Logger) *Scheduler {
	if interval == "" {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		syncer:   syncer,
		enabled:  enabled,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules the periodic sync, replacing any previous schedule.
// Scheduled runs use ctx; it is a no-op when auto-sync is disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("Auto-sync is disabled")
		return nil
	}

	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := cron.New()
	entry, err := c.AddFunc(s.interval, func() { s.runScheduled(ctx) })
	if err != nil {
		return fmt.Errorf("invalid sync interval %q: %w", s.interval, err)
	}
	c.Start()
	s.cron = c
	s.entry = entry

	s.logger.Info("Periodic sync job started", zap.String("interval", s.interval))
	return nil
}

// Stop removes the schedule and waits for a scheduled run in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("Periodic sync job stopped")
}

// SyncNow triggers a run immediately, outside the schedule.
func (s *Scheduler) SyncNow(ctx context.Context) (*Run, error) {
	s.logger.Info("Triggering manual sync")
	run, err := s.syncer.Run(ctx)
	if err != nil {
		s.logger.Error("Manual sync failed", zap.Error(err))
		return run, err
	}
	s.logger.Info("Manual sync completed", zap.String("run_id", run.ID.String()))
	return run, nil
}

// Status reports the schedule and the syncer state.
func (s *Scheduler) Status() SchedulerStatus {
	syncStatus := s.syncer.Status()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := SchedulerStatus{
		Enabled:        s.enabled,
		Interval:       s.interval,
		Running:        s.cron != nil,
		LastSync:       syncStatus.LastSync,
		SyncInProgress: syncStatus.InProgress,
	}
	if s.cron != nil {
		st.NextRun = s.cron.Entry(s.entry).Next
	}
	return st
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	s.logger.Info("Running scheduled sync")
	run, err := s.syncer.Run(ctx)
	if err != nil {
		s.logger.Error("Scheduled sync failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled sync completed",
		zap.String("run_id", run.ID.String()),
		zap.Duration("duration", run.Duration()))
}
