// Package trades implements the trade form session and the cached trade
// read models.
package trades

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/modules/attachments"
	"github.com/aristath/tradejournal/internal/modules/drafts"
	"github.com/aristath/tradejournal/internal/querycache"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DraftStore persists form sessions that failed to submit
type DraftStore interface {
	Save(d *drafts.Draft) error
}

// Service handles trade reads, deletion and form sessions.
//
// Responsibilities:
//   - Serve trade lists, details and journal statistics through the query cache
//   - Open form sessions for new and existing trades, and restore them from drafts
//   - Settle the cache and emit events after every acknowledged mutation
//
// Dependencies:
//   - domain.TradeTransport: the journal API
//   - querycache.Cache: process-wide read model cache
//   - events.Manager: event emission
//   - DraftStore: optional, for SaveDraft
type Service struct {
	transport    domain.TradeTransport
	cache        *querycache.Cache
	eventManager *events.Manager
	policy       attachments.Policy
	drafts       DraftStore
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates a new trade service
func NewService(
	transport domain.TradeTransport,
	cache *querycache.Cache,
	eventManager *events.Manager,
	policy attachments.Policy,
	log zerolog.Logger,
) *Service {
	return &Service{
		transport:    transport,
		cache:        cache,
		eventManager: eventManager,
		policy:       policy,
		now:          time.Now,
		log:          log.With().Str("service", "trades").Logger(),
	}
}

// SetDraftStore enables SaveDraft
func (s *Service) SetDraftStore(store DraftStore) {
	s.drafts = store
}

// List returns a journal's trades, optionally filtered by status
func (s *Service) List(ctx context.Context, journalID string, status domain.TradeStatus) ([]domain.Trade, error) {
	return querycache.Fetch(ctx, s.cache, querycache.TradesList(journalID, status), func(ctx context.Context) ([]domain.Trade, error) {
		return s.transport.ListTrades(ctx, journalID, status)
	})
}

// Get returns one trade; the cache records its journal as owner
func (s *Service) Get(ctx context.Context, tradeID string) (*domain.Trade, error) {
	return querycache.Fetch(ctx, s.cache, querycache.TradeDetail(tradeID), func(ctx context.Context) (*domain.Trade, error) {
		return s.transport.GetTrade(ctx, tradeID)
	})
}

// Stats returns the server-computed statistics of a journal
func (s *Service) Stats(ctx context.Context, journalID string) (*domain.JournalStats, error) {
	return querycache.Fetch(ctx, s.cache, querycache.TradeStats(journalID), func(ctx context.Context) (*domain.JournalStats, error) {
		return s.transport.GetJournalStats(ctx, journalID)
	})
}

// Delete removes a trade and settles the cache. An empty journalID is
// resolved from the cache, or from the server when the trade is unknown
// locally.
func (s *Service) Delete(ctx context.Context, tradeID, journalID string) ([]querycache.Key, error) {
	if journalID == "" {
		if owner, ok := s.cache.Owner(querycache.TradeDetail(tradeID)); ok {
			journalID = owner
		} else {
			trade, err := s.Get(ctx, tradeID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("trade %s does not exist: %w", tradeID, err)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to resolve journal of trade %s: %w", tradeID, err)
			}
			journalID = trade.JournalID
		}
	}

	if err := s.transport.DeleteTrade(ctx, tradeID); err != nil {
		return nil, fmt.Errorf("failed to delete trade %s: %w", tradeID, err)
	}

	keys := s.cache.Settle(querycache.DeleteTrade(tradeID, journalID))
	s.eventManager.EmitTyped("trades", &events.TradeEventData{
		Kind:        events.TradeDeleted,
		TradeID:     tradeID,
		JournalID:   journalID,
		Invalidated: keyStrings(keys),
	})

	s.log.Info().Str("trade_id", tradeID).Str("journal_id", journalID).Msg("Trade deleted")
	return keys, nil
}

// NewSession opens a form for a new trade in journalID
func (s *Service) NewSession(journalID string) *Session {
	return s.session(uuid.New(), "", NewForm(journalID, s.now()), attachments.NewSet(s.policy, nil))
}

// EditSession opens a form seeded from an existing trade
func (s *Service) EditSession(ctx context.Context, tradeID string) (*Session, error) {
	trade, err := s.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return s.SessionFor(trade), nil
}

// SessionFor opens an edit form for a trade already in hand
func (s *Service) SessionFor(trade *domain.Trade) *Session {
	return s.session(uuid.New(), trade.ID, FormFromTrade(trade), attachments.NewSet(s.policy, trade.ScreenshotPaths))
}

// RestoreSession reopens a draft under its original session id. Staged
// files that are gone or no longer pass the attachment policy are
// reported and left out.
func (s *Service) RestoreSession(d *drafts.Draft) (*Session, []attachments.Rejection) {
	id, err := uuid.Parse(d.SessionID)
	if err != nil {
		id = uuid.New()
	}

	set := attachments.NewSet(s.policy, d.Persisted)
	set.MarkForDeletion(d.PendingDeletion...)

	var rejected []attachments.Rejection
	for _, path := range d.StagedPaths {
		file, err := attachments.FileFromPath(path)
		if err != nil {
			rejected = append(rejected, attachments.Rejection{File: path, Reason: attachments.ReasonMissing, Detail: err.Error()})
			continue
		}
		rejected = append(rejected, set.Stage(file)...)
	}

	return s.session(id, d.TradeID, formFromSnapshot(d.JournalID, d.Form), set), rejected
}

// draft snapshots the session with cause recorded as its last error
func (s *Session) draft(cause error) (*drafts.Draft, int) {
	d, dropped := s.Snapshot()
	if cause != nil {
		d.LastError = cause.Error()
	}
	return d, dropped
}

// SaveDraft stores the session as a draft and returns it together with
// the number of in-memory attachments that could not be kept
func (s *Service) SaveDraft(session *Session, cause error) (*drafts.Draft, int, error) {
	if s.drafts == nil {
		return nil, 0, fmt.Errorf("draft storage is not configured")
	}

	d, dropped := session.draft(cause)
	if err := s.drafts.Save(d); err != nil {
		return nil, dropped, fmt.Errorf("failed to save draft: %w", err)
	}

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	s.eventManager.EmitTyped("trades", &events.DraftSavedData{
		DraftID:   d.ID,
		SessionID: d.SessionID,
		Reason:    reason,
	})
	return d, dropped, nil
}

func (s *Service) session(id uuid.UUID, tradeID string, form *Form, set *attachments.Set) *Session {
	return &Session{
		id:           id,
		tradeID:      tradeID,
		form:         form,
		set:          set,
		transport:    s.transport,
		cache:        s.cache,
		eventManager: s.eventManager,
		log:          s.log.With().Str("session", id.String()).Logger(),
	}
}
