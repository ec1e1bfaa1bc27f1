package di

import (
	"context"
	"fmt"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the drafts database, applies its schema and
// checks its integrity
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	draftsDB, err := database.New(database.Config{
		Path:    cfg.DraftsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "drafts",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize drafts database: %w", err)
	}

	if err := draftsDB.Migrate(); err != nil {
		draftsDB.Close()
		return nil, fmt.Errorf("failed to migrate drafts database: %w", err)
	}
	if err := draftsDB.HealthCheck(context.Background()); err != nil {
		draftsDB.Close()
		return nil, fmt.Errorf("drafts database is unhealthy: %w", err)
	}
	container.DraftsDB = draftsDB

	log.Debug().Str("path", draftsDB.Path()).Msg("Drafts database ready")
	return container, nil
}
