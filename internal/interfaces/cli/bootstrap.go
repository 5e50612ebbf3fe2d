// Package cli wires shared infrastructure for all commands: configuration,
// logging, database, Redis, repositories, and use cases.
package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	feedUsecases "stixgate/internal/application/feed/usecases"
	sharingUsecases "stixgate/internal/application/sharing/usecases"
	trustUsecases "stixgate/internal/application/trust/usecases"
	"stixgate/internal/domain/feed"
	"stixgate/internal/domain/organization"
	"stixgate/internal/domain/sharing"
	"stixgate/internal/domain/stix"
	"stixgate/internal/domain/trust"
	"stixgate/internal/infrastructure/cache"
	"stixgate/internal/infrastructure/config"
	"stixgate/internal/infrastructure/database"
	"stixgate/internal/infrastructure/ratelimit"
	"stixgate/internal/infrastructure/repository"
	"stixgate/internal/shared/logger"
)

// App carries the wired dependencies of a command invocation.
type App struct {
	Cfg   *config.Config
	Log   logger.Interface
	Redis *redis.Client

	OrgRepo    organization.Repository
	LevelRepo  trust.LevelRepository
	RelRepo    trust.RelationshipRepository
	GroupRepo  trust.GroupRepository
	SourceRepo feed.SourceRepository
	LogRepo    feed.LogRepository
	ObjectRepo stix.Repository

	Resolver *trust.Resolver
	Engine   *sharing.Engine

	PollFeed     *feedUsecases.PollFeedUseCase
	SyncAll      *feedUsecases.SyncAllFeedsUseCase
	RetryFailed  *feedUsecases.RetryFailedFeedsUseCase
	FeedStatus   *feedUsecases.GetFeedStatusUseCase
	PurgeLogs    *feedUsecases.PurgeOldLogsUseCase
	ResolveTrust *trustUsecases.ResolveTrustUseCase
	RenderBundle *sharingUsecases.RenderBundleUseCase
}

// NewApp loads configuration and wires every dependency. Callers own the
// returned App and must Close it.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	app := &App{
		Cfg:   cfg,
		Log:   log,
		Redis: redisClient,
	}
	app.wire()
	return app, nil
}

func (a *App) wire() {
	db := database.Get()

	a.OrgRepo = repository.NewOrganizationRepository(db, a.Log)
	a.LevelRepo = repository.NewTrustLevelRepository(db, a.Log)
	a.RelRepo = repository.NewTrustRelationshipRepository(db, a.Log)
	a.GroupRepo = repository.NewTrustGroupRepository(db, a.Log)
	a.SourceRepo = repository.NewFeedSourceRepository(db, a.Log)
	a.LogRepo = repository.NewFeedConsumptionLogRepository(db, a.Log)
	a.ObjectRepo = repository.NewStixObjectRepository(db, a.Log)

	a.Resolver = trust.NewResolver(a.OrgRepo, a.RelRepo, a.GroupRepo, a.Log)
	a.Engine = sharing.NewEngine(a.Resolver, sharing.NewRegistry(), a.OrgRepo, a.Log)

	pollLock := cache.NewFeedPollLock(a.Redis)
	cursors := cache.NewPollCursorStore(a.Redis)
	limiter := ratelimit.NewRedisRateLimiter(a.Redis)

	a.PollFeed = feedUsecases.NewPollFeedUseCase(
		a.SourceRepo,
		a.LogRepo,
		a.ObjectRepo,
		stix.NewFactory(),
		pollLock,
		cursors,
		limiter,
		a.Cfg.Feed,
		a.Log,
	)
	a.SyncAll = feedUsecases.NewSyncAllFeedsUseCase(a.SourceRepo, a.PollFeed, a.Cfg.Worker.Concurrency, a.Log)
	a.RetryFailed = feedUsecases.NewRetryFailedFeedsUseCase(a.SourceRepo, a.LogRepo, a.PollFeed, a.Log)
	a.FeedStatus = feedUsecases.NewGetFeedStatusUseCase(a.SourceRepo, a.LogRepo, a.Log)
	a.PurgeLogs = feedUsecases.NewPurgeOldLogsUseCase(a.LogRepo, a.Log)
	a.ResolveTrust = trustUsecases.NewResolveTrustUseCase(a.Resolver, a.Log)
	a.RenderBundle = sharingUsecases.NewRenderBundleUseCase(a.ObjectRepo, a.Engine, a.Log)
}

// Close releases database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warnw("failed to close redis client", "error", err)
		}
	}
	if err := database.Close(); err != nil {
		a.Log.Warnw("failed to close database", "error", err)
	}
}
