// Package scheduler runs periodic maintenance jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/paysync/internal/application/reconciliation/usecases"
	"github.com/orris-inc/paysync/internal/shared/biztime"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// ResyncJob re-reads subscription state from the gateway.
type ResyncJob interface {
	Execute(ctx context.Context) (*usecases.ResyncSummary, error)
}

// SchedulerManager owns the process scheduler instance.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a SchedulerManager in the business timezone.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterResyncJob runs job every interval. Overlapping runs are
// rescheduled rather than stacked, so a slow gateway never produces two
// concurrent sweeps.
func (m *SchedulerManager) RegisterResyncJob(job ResyncJob, interval time.Duration) error {
	timeout := interval
	if timeout > 30*time.Minute {
		timeout = 30 * time.Minute
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.processResync(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("reconciliation", "resync"),
		gocron.WithName("subscription-resync"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered subscription resync job", "interval", interval)
	return nil
}

func (m *SchedulerManager) processResync(ctx context.Context, job ResyncJob) {
	m.logger.Debugw("subscription resync started")

	startTime := biztime.NowUTC()

	summary, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("subscription resync failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if summary.Updated > 0 || summary.Failed > 0 {
		m.logger.Infow("subscription resync completed",
			"checked", summary.Checked,
			"updated", summary.Updated,
			"failed", summary.Failed,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("subscription resync found no changes",
			"checked", summary.Checked,
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler. Calling Start twice is a no-op.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
