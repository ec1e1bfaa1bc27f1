package drafts

import (
	"github.com/aristath/tradejournal/internal/events"
	"github.com/rs/zerolog"
)

// Purger deletes a session's draft once that session submits successfully
type Purger struct {
	repo *Repository
	log  zerolog.Logger
}

// NewPurger creates a purger over repo
func NewPurger(repo *Repository, log zerolog.Logger) *Purger {
	return &Purger{
		repo: repo,
		log:  log.With().Str("component", "draft_purger").Logger(),
	}
}

// Subscribe registers the purger for trade created/updated events and
// returns a function that removes both subscriptions
func (p *Purger) Subscribe(bus *events.Bus) func() {
	unsubCreated := bus.Subscribe(events.TradeCreated, p.handle)
	unsubUpdated := bus.Subscribe(events.TradeUpdated, p.handle)
	return func() {
		unsubCreated()
		unsubUpdated()
	}
}

func (p *Purger) handle(e events.Event) {
	data, ok := e.Data.(*events.TradeEventData)
	if !ok || data.SessionID == "" {
		return
	}

	n, err := p.repo.DeleteBySession(data.SessionID)
	if err != nil {
		p.log.Error().Err(err).Str("session_id", data.SessionID).Msg("Failed to purge draft")
		return
	}
	if n > 0 {
		p.log.Info().Str("session_id", data.SessionID).Str("trade_id", data.TradeID).Msg("Purged draft of submitted session")
	}
}
