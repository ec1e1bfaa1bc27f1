// Package drafts keeps trade form sessions that failed to submit, so the
// user can retry later without re-entering anything.
package drafts

import (
	"time"

	"github.com/aristath/tradejournal/internal/domain"
)

// FormSnapshot is the persisted copy of a trade form
type FormSnapshot struct {
	Symbol           string                  `msgpack:"symbol"`
	Side             string                  `msgpack:"side"`
	Status           string                  `msgpack:"status"`
	OpenedAt         time.Time               `msgpack:"opened_at"`
	ClosedAt         *time.Time              `msgpack:"closed_at,omitempty"`
	EntryPrice       float64                 `msgpack:"entry_price"`
	ExitPrice        *float64                `msgpack:"exit_price,omitempty"`
	PositionSizeUSDT float64                 `msgpack:"position_size_usdt"`
	Leverage         float64                 `msgpack:"leverage"`
	StopLossPrice    *float64                `msgpack:"stop_loss_price,omitempty"`
	TakeProfitPrice  *float64                `msgpack:"take_profit_price,omitempty"`
	FeeUSDT          float64                 `msgpack:"fee_usdt"`
	Description      string                  `msgpack:"description,omitempty"`
	EmotionalState   string                  `msgpack:"emotional_state,omitempty"`
	EntryCriteria    []domain.EntryCriterion `msgpack:"entry_criteria"`
}

// Draft is one saved form session.
//
// StagedPaths only holds files that came from disk; in-memory attachments
// cannot outlive the process.
type Draft struct {
	ID              string
	SessionID       string
	JournalID       string
	TradeID         string // empty for a new trade
	Form            FormSnapshot
	StagedPaths     []string
	Persisted       []string
	PendingDeletion []string
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Editing reports whether the draft edits an existing trade
func (d *Draft) Editing() bool {
	return d.TradeID != ""
}

// payload is the msgpack blob column
type payload struct {
	Form            FormSnapshot `msgpack:"form"`
	StagedPaths     []string     `msgpack:"staged_paths,omitempty"`
	Persisted       []string     `msgpack:"persisted,omitempty"`
	PendingDeletion []string     `msgpack:"pending_deletion,omitempty"`
}
