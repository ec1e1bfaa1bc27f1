package trades

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/modules/attachments"
	"github.com/aristath/tradejournal/internal/modules/drafts"
	"github.com/aristath/tradejournal/internal/querycache"
	"github.com/aristath/tradejournal/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrSubmissionInProgress is returned when Submit is called while an
	// earlier submission of the same session has not finished
	ErrSubmissionInProgress = errors.New("submission already in progress")
	// ErrTransportFailed wraps every transport error returned by Submit
	ErrTransportFailed = errors.New("trade submission failed")
	// ErrSessionClosed is returned by Submit after the session ended
	ErrSessionClosed = errors.New("form session is closed")
	// ErrEmptyResponse is wrapped (with ErrTransportFailed) when the server
	// accepted a submission without returning the saved trade
	ErrEmptyResponse = errors.New("server returned no trade")
)

// Session is one open trade form: the form fields, the entry criteria and
// the attachment set, plus the single-flight guard around submission.
//
// State machine: Idle -> Submitting -> Idle. A successful submission
// clears the state and closes the session; a failed one keeps everything
// so the user can retry.
type Session struct {
	id      uuid.UUID
	tradeID string // empty for a new trade

	mu     sync.Mutex
	form   *Form
	set    *attachments.Set
	closed bool

	inFlight atomic.Bool

	transport    domain.TradeTransport
	cache        *querycache.Cache
	eventManager *events.Manager
	log          zerolog.Logger
}

// ID is the session token
func (s *Session) ID() string {
	return s.id.String()
}

// TradeID is the edited trade, or "" for a new trade
func (s *Session) TradeID() string {
	return s.tradeID
}

// Editing reports whether the session edits an existing trade
func (s *Session) Editing() bool {
	return s.tradeID != ""
}

// Form returns the live form. Callers edit it in place.
func (s *Session) Form() *Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Attachments returns the live attachment set
func (s *Session) Attachments() *attachments.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Closed reports whether the session ended
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Submitting reports whether a submission is in flight
func (s *Session) Submitting() bool {
	return s.inFlight.Load()
}

// Preview computes the advisory PnL of the current inputs
func (s *Session) Preview() (formulas.PnL, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PreviewOf(s.form)
}

// PreviewOf computes the advisory PnL of a form
func PreviewOf(f *Form) (formulas.PnL, bool) {
	if f == nil || f.ExitPrice == nil {
		return formulas.PnL{}, false
	}
	return formulas.PnLPreview(formulas.Side(f.Side), f.EntryPrice, *f.ExitPrice, f.PositionSizeUSDT, f.Leverage)
}

// Submit validates the form and sends exactly one create or update.
//
// On success the cache settles the mutation before Submit returns, a
// TradeCreated or TradeUpdated event is emitted, the form and attachments
// are cleared and the session closes. On failure nothing is cleared and
// the error wraps ErrTransportFailed (or is a *ValidationError).
func (s *Session) Submit(ctx context.Context) (*domain.Trade, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInProgress
	}
	defer s.inFlight.Store(false)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	payload, err := Build(s.form, s.set, s.Editing())
	journalID := s.form.JournalID
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	log := s.log.With().Str("journal_id", journalID).Str("trade_id", s.tradeID).Logger()
	log.Debug().Int("screenshots", len(payload.Screenshots)).Msg("Submitting trade")

	var trade *domain.Trade
	if s.Editing() {
		trade, err = s.transport.UpdateTrade(ctx, s.tradeID, payload)
	} else {
		trade, err = s.transport.CreateTrade(ctx, payload)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Trade submission failed; form state kept")
		s.reportFailure(err, journalID)
		return nil, fmt.Errorf("%w: %w", ErrTransportFailed, err)
	}
	if trade == nil || trade.ID == "" {
		// the write may have been applied, so dependents are still invalidated
		s.invalidate(journalID)
		log.Warn().Msg("Trade submission returned no trade; form state kept")
		s.reportFailure(ErrEmptyResponse, journalID)
		return nil, fmt.Errorf("%w: %w", ErrTransportFailed, ErrEmptyResponse)
	}

	if trade.JournalID != "" {
		journalID = trade.JournalID
	}
	s.settle(trade, journalID)

	s.mu.Lock()
	if s.closed {
		log.Debug().Msg("Session closed during submission; response not applied")
	} else {
		s.clearLocked()
	}
	s.mu.Unlock()

	log.Info().Str("trade_id", trade.ID).Msg("Trade saved")
	return trade, nil
}

// settle invalidates dependent cache entries, then notifies subscribers
func (s *Session) settle(trade *domain.Trade, journalID string) {
	kind := events.TradeCreated
	if s.Editing() {
		kind = events.TradeUpdated
	}

	keys := s.invalidate(journalID)
	if s.eventManager != nil {
		s.eventManager.EmitTyped("trades", &events.TradeEventData{
			Kind:        kind,
			TradeID:     trade.ID,
			JournalID:   journalID,
			SessionID:   s.ID(),
			Invalidated: keyStrings(keys),
		})
	}
}

func (s *Session) reportFailure(err error, journalID string) {
	if s.eventManager == nil {
		return
	}
	s.eventManager.EmitError("trades", err, map[string]interface{}{
		"session_id": s.ID(),
		"journal_id": journalID,
		"trade_id":   s.tradeID,
	})
}

// invalidate settles the session's mutation. Updates are keyed on the
// edited trade, never on the id in the server response.
func (s *Session) invalidate(journalID string) []querycache.Key {
	if s.cache == nil {
		return nil
	}
	mutation := querycache.CreateTrade(journalID)
	if s.Editing() {
		mutation = querycache.UpdateTrade(s.tradeID, journalID)
	}
	return s.cache.Settle(mutation)
}

// Close abandons the session. A submission still in flight completes on
// the server and still invalidates the cache, but its response is not
// applied here.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.clearLocked()
}

func (s *Session) clearLocked() {
	s.closed = true
	s.set.Reset()
	s.form = NewForm(s.form.JournalID, time.Now())
}

// Snapshot captures the session as a draft. Only disk-backed staged
// files are kept; the number of dropped in-memory files is returned.
func (s *Session) Snapshot() (*drafts.Draft, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.form
	snap := drafts.FormSnapshot{
		Symbol:           f.Symbol,
		Side:             string(f.Side),
		Status:           string(f.Status),
		OpenedAt:         f.OpenedAt,
		ClosedAt:         f.ClosedAt,
		EntryPrice:       f.EntryPrice,
		ExitPrice:        f.ExitPrice,
		PositionSizeUSDT: f.PositionSizeUSDT,
		Leverage:         f.Leverage,
		StopLossPrice:    f.StopLossPrice,
		TakeProfitPrice:  f.TakeProfitPrice,
		FeeUSDT:          f.FeeUSDT,
		Description:      f.Description,
		EmotionalState:   f.EmotionalState,
	}
	if f.Criteria != nil {
		snap.EntryCriteria = f.Criteria.Items()
	}

	d := &drafts.Draft{
		SessionID:       s.ID(),
		JournalID:       f.JournalID,
		TradeID:         s.tradeID,
		Form:            snap,
		Persisted:       s.set.Persisted(),
		PendingDeletion: s.set.PendingDeletion(),
	}
	dropped := 0
	for _, file := range s.set.Staged() {
		if file.Path() == "" {
			dropped++
			continue
		}
		d.StagedPaths = append(d.StagedPaths, file.Path())
	}
	return d, dropped
}

func formFromSnapshot(journalID string, snap drafts.FormSnapshot) *Form {
	return &Form{
		JournalID:        journalID,
		Symbol:           snap.Symbol,
		Side:             domain.TradeSide(snap.Side),
		Status:           domain.TradeStatus(snap.Status),
		OpenedAt:         snap.OpenedAt,
		ClosedAt:         snap.ClosedAt,
		EntryPrice:       snap.EntryPrice,
		ExitPrice:        snap.ExitPrice,
		PositionSizeUSDT: snap.PositionSizeUSDT,
		Leverage:         snap.Leverage,
		StopLossPrice:    snap.StopLossPrice,
		TakeProfitPrice:  snap.TakeProfitPrice,
		FeeUSDT:          snap.FeeUSDT,
		Description:      snap.Description,
		EmotionalState:   snap.EmotionalState,
		Criteria:         NewCriteria(snap.EntryCriteria...),
	}
}

func keyStrings(keys []querycache.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}
