// Package worker provides the long-running poll worker command: scheduled
// due-feed sweeps, failed-feed retries, log retention, and the metrics
// endpoint.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"stixgate/internal/application/feed/services"
	"stixgate/internal/application/feed/usecases"
	"stixgate/internal/infrastructure/scheduler"
	"stixgate/internal/interfaces/cli"
	"stixgate/internal/shared/logger"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "worker",
		Short:        "Run the feed poll worker",
		Long:         `Run the long-lived worker: sweep due feeds on schedule, retry failed feeds, purge old consumption logs, and serve Prometheus metrics.`,
		RunE:         run,
		SilenceUsage: true,
	}
}

func run(cmd *cobra.Command, args []string) error {
	app, err := cli.NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	log := app.Log
	log.Infow("starting feed poll worker",
		"sweep_interval", app.Cfg.Worker.SweepInterval.String(),
		"retry_sweep_interval", app.Cfg.Worker.RetrySweepInterval.String(),
		"concurrency", app.Cfg.Worker.Concurrency)

	batcher := services.NewEventBatcher(app.Cfg.Feed.BatchQuietPeriod, &logObserver{logger: log}, log)
	defer batcher.Stop()

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	pollJob := &pollSweepJob{syncAll: app.SyncAll, batcher: batcher}
	if err := manager.RegisterPollSweep(pollJob, app.Cfg.Worker.SweepInterval); err != nil {
		return fmt.Errorf("failed to register poll sweep: %w", err)
	}

	retryJob := &retrySweepJob{retryFailed: app.RetryFailed, lookback: app.Cfg.Feed.RetryLookback, batcher: batcher}
	if err := manager.RegisterRetrySweep(retryJob, app.Cfg.Worker.RetrySweepInterval); err != nil {
		return fmt.Errorf("failed to register retry sweep: %w", err)
	}

	retentionJob := &logRetentionJob{purgeLogs: app.PurgeLogs, retentionDays: app.Cfg.Feed.LogRetentionDays}
	if err := manager.RegisterLogRetention(retentionJob); err != nil {
		return fmt.Errorf("failed to register log retention: %w", err)
	}

	manager.Start()

	metricsSrv := startMetricsServer(app.Cfg.Worker.MetricsAddr, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig)

	if err := manager.Stop(); err != nil {
		log.Errorw("scheduler shutdown failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("metrics server shutdown failed", "error", err)
	}

	log.Infow("feed poll worker stopped")
	return nil
}

func startMetricsServer(addr string, log logger.Interface) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("metrics server starting", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	return srv
}

// pollSweepJob polls every due feed and folds the outcomes into the event
// batcher.
type pollSweepJob struct {
	syncAll *usecases.SyncAllFeedsUseCase
	batcher *services.EventBatcher
}

func (j *pollSweepJob) Execute(ctx context.Context) (int, error) {
	report, err := j.syncAll.Execute(ctx, true)
	if err != nil {
		return 0, err
	}
	feedResults(j.batcher, report)
	return report.Polled, nil
}

// retrySweepJob re-polls feeds whose latest poll in the lookback window
// failed.
type retrySweepJob struct {
	retryFailed *usecases.RetryFailedFeedsUseCase
	lookback    time.Duration
	batcher     *services.EventBatcher
}

func (j *retrySweepJob) Execute(ctx context.Context) (int, error) {
	report, err := j.retryFailed.Execute(ctx, j.lookback)
	if err != nil {
		return 0, err
	}
	feedResults(j.batcher, report)
	return report.Polled, nil
}

// logRetentionJob purges consumption logs past the retention window.
type logRetentionJob struct {
	purgeLogs     *usecases.PurgeOldLogsUseCase
	retentionDays int
}

func (j *logRetentionJob) Execute(ctx context.Context) (int64, error) {
	return j.purgeLogs.Execute(ctx, j.retentionDays)
}

func feedResults(batcher *services.EventBatcher, report *usecases.SyncReport) {
	for _, result := range report.Results {
		if result.Skipped {
			continue
		}
		batcher.Add(services.FeedEvent{
			FeedID:           result.FeedID,
			FeedName:         result.FeedName,
			Status:           result.Status.String(),
			ObjectsProcessed: result.ObjectsProcessed,
			ObjectsFailed:    result.ObjectsFailed,
		})
	}
}

// logObserver writes flushed batch summaries to the log. A notification
// transport would slot in here.
type logObserver struct {
	logger logger.Interface
}

func (o *logObserver) OnFeedBatch(batch *services.FeedBatch) {
	o.logger.Infow("feed activity summary",
		"feed_id", batch.FeedID,
		"feed_name", batch.FeedName,
		"polls", batch.Polls,
		"objects_processed", batch.ObjectsProcessed,
		"objects_failed", batch.ObjectsFailed,
		"last_status", batch.LastStatus,
		"window", batch.LastEventAt.Sub(batch.FirstEventAt).String())
}
