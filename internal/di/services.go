package di

import (
	"fmt"

	"github.com/aristath/tradejournal/internal/clients/journalapi"
	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/modules/drafts"
	"github.com/aristath/tradejournal/internal/modules/journals"
	"github.com/aristath/tradejournal/internal/modules/trades"
	"github.com/aristath/tradejournal/internal/querycache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// InitializeServices creates the transport, cache, event bus, repositories
// and services. The container must already hold its databases.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.DraftsDB == nil {
		return fmt.Errorf("drafts database not initialized")
	}

	container.Metrics = prometheus.NewRegistry()
	metrics, err := querycache.NewMetrics(container.Metrics)
	if err != nil {
		return fmt.Errorf("failed to register cache metrics: %w", err)
	}
	container.QueryCache = querycache.New(log, querycache.WithMetrics(metrics))

	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	container.APIClient = journalapi.NewClient(cfg.APIURL, cfg.UploadsURL, cfg.RequestTimeout, log)

	container.DraftRepo = drafts.NewRepository(container.DraftsDB.Conn(), log)
	purger := drafts.NewPurger(container.DraftRepo, log)
	container.unsubscribers = append(container.unsubscribers, purger.Subscribe(container.EventBus))

	container.JournalService = journals.NewService(container.APIClient, container.QueryCache, container.EventManager, log)
	container.TradeService = trades.NewService(container.APIClient, container.QueryCache, container.EventManager, cfg.AttachmentPolicy(), log)
	container.TradeService.SetDraftStore(container.DraftRepo)

	log.Debug().Str("api_url", cfg.APIURL).Msg("Services initialized")
	return nil
}
