// Package journals serves journal reads through the query cache and runs
// journal mutations.
package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/querycache"
	"github.com/rs/zerolog"
)

// ErrNameRequired is returned when a journal would be created without a name
var ErrNameRequired = errors.New("journal name is required")

// Service handles journal business logic.
//
// Responsibilities:
//   - Serve the journal list and journal details from the query cache
//   - Create, update and delete journals through the transport
//   - Settle the cache and emit a journal event after each acknowledged mutation
//
// Dependencies:
//   - domain.JournalTransport: the journal API
//   - querycache.Cache: process-wide read model cache
//   - events.Manager: event emission
type Service struct {
	transport    domain.JournalTransport
	cache        *querycache.Cache
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new journal service
func NewService(transport domain.JournalTransport, cache *querycache.Cache, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		transport:    transport,
		cache:        cache,
		eventManager: eventManager,
		log:          log.With().Str("service", "journals").Logger(),
	}
}

// List returns every journal
func (s *Service) List(ctx context.Context) ([]domain.Journal, error) {
	return querycache.Fetch(ctx, s.cache, querycache.JournalsList(), func(ctx context.Context) ([]domain.Journal, error) {
		return s.transport.ListJournals(ctx)
	})
}

// Get returns one journal
func (s *Service) Get(ctx context.Context, journalID string) (*domain.Journal, error) {
	return querycache.Fetch(ctx, s.cache, querycache.JournalDetail(journalID), func(ctx context.Context) (*domain.Journal, error) {
		return s.transport.GetJournal(ctx, journalID)
	})
}

// Create creates a journal. The name is trimmed and must not be empty.
func (s *Service) Create(ctx context.Context, in domain.JournalInput) (*domain.Journal, error) {
	in = normalize(in)
	if in.Name == "" {
		return nil, ErrNameRequired
	}

	journal, err := s.transport.CreateJournal(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}

	s.settle(events.JournalCreated, querycache.CreateJournal(), journal.ID, journal.Name)
	s.log.Info().Str("journal_id", journal.ID).Str("name", journal.Name).Msg("Journal created")
	return journal, nil
}

// Update changes a journal's name or description. Empty fields are left
// unchanged by the server.
func (s *Service) Update(ctx context.Context, journalID string, in domain.JournalInput) (*domain.Journal, error) {
	in = normalize(in)

	journal, err := s.transport.UpdateJournal(ctx, journalID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update journal %s: %w", journalID, err)
	}

	s.settle(events.JournalUpdated, querycache.UpdateJournal(journalID), journalID, journal.Name)
	return journal, nil
}

// Delete removes a journal together with its trades. Every cached read
// model of the journal is invalidated; other journals are untouched.
func (s *Service) Delete(ctx context.Context, journalID string) ([]querycache.Key, error) {
	if err := s.transport.DeleteJournal(ctx, journalID); err != nil {
		return nil, fmt.Errorf("failed to delete journal %s: %w", journalID, err)
	}

	keys := s.settle(events.JournalDeleted, querycache.DeleteJournal(journalID), journalID, "")
	s.log.Info().Str("journal_id", journalID).Int("invalidated", len(keys)).Msg("Journal deleted")
	return keys, nil
}

func (s *Service) settle(kind events.EventType, m querycache.Mutation, journalID, name string) []querycache.Key {
	keys := s.cache.Settle(m)

	invalidated := make([]string, 0, len(keys))
	for _, k := range keys {
		invalidated = append(invalidated, k.String())
	}
	s.eventManager.EmitTyped("journals", &events.JournalEventData{
		Kind:        kind,
		JournalID:   journalID,
		Name:        name,
		Invalidated: invalidated,
	})
	return keys
}

func normalize(in domain.JournalInput) domain.JournalInput {
	return domain.JournalInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
}
