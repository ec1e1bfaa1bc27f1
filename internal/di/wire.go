// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Initialize databases
// 2. Initialize services
// 3. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Debug().Msg("Dependency injection wiring completed successfully")
	return container, jobs, nil
}

// Close stops background work, drops subscriptions and closes the
// database. It is safe to call on a partially wired container.
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	for _, unsubscribe := range c.unsubscribers {
		unsubscribe()
	}
	c.unsubscribers = nil

	if c.DraftsDB != nil {
		if err := c.DraftsDB.Close(); err != nil {
			return fmt.Errorf("failed to close drafts database: %w", err)
		}
		c.DraftsDB = nil
	}
	return nil
}
