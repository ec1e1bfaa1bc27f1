package di

import (
	"fmt"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers the background jobs.
// The scheduler is not started here; the caller decides when it runs.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container.QueryCache == nil || container.DraftRepo == nil {
		return nil, fmt.Errorf("services not initialized")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{
		CacheGC:        scheduler.NewCacheGCJob(container.QueryCache, cfg.CacheGCTime, log),
		DraftRetention: scheduler.NewDraftRetentionJob(container.DraftRepo, cfg.DraftRetention, log),
	}

	if err := container.Scheduler.AddJob(cfg.CacheGCSchedule, instances.CacheGC); err != nil {
		return nil, fmt.Errorf("failed to register cache gc job: %w", err)
	}
	if err := container.Scheduler.AddJob(cfg.DraftPruneSchedule, instances.DraftRetention); err != nil {
		return nil, fmt.Errorf("failed to register draft retention job: %w", err)
	}

	return instances, nil
}
