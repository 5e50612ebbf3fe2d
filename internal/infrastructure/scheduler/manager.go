// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"stixgate/internal/shared/biztime"
	"stixgate/internal/shared/logger"
)

// SweepJob is a scheduled sweep over feeds. Execute returns how many feeds
// were polled.
type SweepJob interface {
	Execute(ctx context.Context) (int, error)
}

// CleanupJob is a scheduled maintenance task. Execute returns how many rows
// were removed.
type CleanupJob interface {
	Execute(ctx context.Context) (int64, error)
}

// SchedulerManager manages all scheduled jobs using gocron v2: the due-feed
// sweep, the failed-feed retry sweep, and consumption log retention.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterPollSweep registers the due-feed sweep. Singleton mode keeps a
// slow sweep from overlapping with the next tick; per-feed locks guard the
// rest.
func (m *SchedulerManager) RegisterPollSweep(job SweepJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runSweep(ctx, "poll sweep", job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("feed", "poll"),
		gocron.WithName("feed-poll-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered poll sweep", "interval", interval.String())
	return nil
}

// RegisterRetrySweep registers the failed-feed retry sweep.
func (m *SchedulerManager) RegisterRetrySweep(job SweepJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runSweep(ctx, "retry sweep", job)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("feed", "retry"),
		gocron.WithName("feed-retry-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered retry sweep", "interval", interval.String())
	return nil
}

// RegisterLogRetention registers the daily consumption log cleanup.
func (m *SchedulerManager) RegisterLogRetention(job CleanupJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runCleanup(ctx, "log retention", job)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("feed", "retention"),
		gocron.WithName("consumption-log-retention"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered log retention job", "interval", "24h")
	return nil
}

func (m *SchedulerManager) runSweep(ctx context.Context, name string, job SweepJob) {
	m.logger.Debugw("scheduled sweep started", "job", name)

	startTime := biztime.NowUTC()

	polled, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("scheduled sweep failed",
			"job", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if polled > 0 {
		m.logger.Infow("scheduled sweep finished",
			"job", name,
			"polled", polled,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("scheduled sweep found nothing due",
			"job", name,
			"duration", time.Since(startTime),
		)
	}
}

func (m *SchedulerManager) runCleanup(ctx context.Context, name string, job CleanupJob) {
	startTime := biztime.NowUTC()

	removed, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("scheduled cleanup failed",
			"job", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if removed > 0 {
		m.logger.Infow("scheduled cleanup finished",
			"job", name,
			"removed", removed,
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler and all registered jobs.
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

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
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
