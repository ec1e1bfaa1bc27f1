/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all client dependencies.
 * The Container is built once per process by Wire and handed to the CLI.
 */
package di

import (
	"github.com/aristath/tradejournal/internal/clients/journalapi"
	"github.com/aristath/tradejournal/internal/database"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/modules/drafts"
	"github.com/aristath/tradejournal/internal/modules/journals"
	"github.com/aristath/tradejournal/internal/modules/trades"
	"github.com/aristath/tradejournal/internal/querycache"
	"github.com/aristath/tradejournal/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
)

/**
 * Container holds all dependencies for the client.
 *
 * Storage:
 *   - DraftsDB: local SQLite database for un-submitted form sessions
 *
 * Read models and notifications:
 *   - QueryCache: process-wide cache of server read models
 *   - EventBus / EventManager: mutation-settled notifications
 *   - Metrics: prometheus registry holding the cache counters
 */
type Container struct {
	// Storage
	DraftsDB *database.DB

	// Transport
	APIClient *journalapi.Client

	// Read models and notifications
	Metrics      *prometheus.Registry
	QueryCache   *querycache.Cache
	EventBus     *events.Bus
	EventManager *events.Manager

	// Repositories
	DraftRepo *drafts.Repository

	// Services
	JournalService *journals.Service
	TradeService   *trades.Service

	// Background work
	Scheduler *scheduler.Scheduler

	unsubscribers []func()
}

// JobInstances holds references to the registered background jobs
type JobInstances struct {
	CacheGC        *scheduler.CacheGCJob
	DraftRetention *scheduler.DraftRetentionJob
}
