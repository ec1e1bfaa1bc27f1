package trades

import (
	"time"

	"github.com/aristath/tradejournal/internal/domain"
)

// Form is the editable state of one trade. Field tags drive validation;
// json names are the API spellings used in validation errors.
type Form struct {
	JournalID        string             `json:"journal_id" validate:"required"`
	Symbol           string             `json:"symbol" validate:"required"`
	Side             domain.TradeSide   `json:"side" validate:"required,oneof=long short"`
	Status           domain.TradeStatus `json:"status" validate:"required,oneof=open closed canceled"`
	OpenedAt         time.Time          `json:"opened_at" validate:"required"`
	ClosedAt         *time.Time         `json:"closed_at"`
	EntryPrice       float64            `json:"entry_price" validate:"gt=0"`
	ExitPrice        *float64           `json:"exit_price" validate:"omitempty,gt=0"`
	PositionSizeUSDT float64            `json:"position_size_usdt" validate:"gt=0"`
	Leverage         float64            `json:"leverage" validate:"gte=1"`
	StopLossPrice    *float64           `json:"stop_loss_price" validate:"omitempty,gt=0"`
	TakeProfitPrice  *float64           `json:"take_profit_price" validate:"omitempty,gt=0"`
	FeeUSDT          float64            `json:"fee_usdt" validate:"gte=0"`
	Description      string             `json:"description"`
	EmotionalState   string             `json:"emotional_state"`
	Criteria         *Criteria          `json:"-" validate:"-"`
}

// NewForm returns the defaults of a new trade in journalID
func NewForm(journalID string, now time.Time) *Form {
	return &Form{
		JournalID: journalID,
		Side:      domain.TradeSideLong,
		Status:    domain.TradeStatusOpen,
		OpenedAt:  now.UTC().Truncate(time.Minute),
		Leverage:  1,
		Criteria:  NewCriteria(),
	}
}

// FormFromTrade loads an existing trade for editing
func FormFromTrade(t *domain.Trade) *Form {
	f := &Form{
		JournalID:        t.JournalID,
		Symbol:           t.Symbol,
		Side:             t.Side,
		Status:           t.Status,
		OpenedAt:         t.OpenedAt.Time,
		EntryPrice:       t.EntryPrice,
		ExitPrice:        copyFloat(t.ExitPrice),
		PositionSizeUSDT: t.PositionSizeUSDT,
		Leverage:         t.Leverage,
		StopLossPrice:    copyFloat(t.StopLossPrice),
		TakeProfitPrice:  copyFloat(t.TakeProfitPrice),
		FeeUSDT:          t.FeeUSDT,
		Description:      t.Description,
		EmotionalState:   t.EmotionalState,
		Criteria:         NewCriteria(t.EntryCriteria...),
	}
	if t.ClosedAt != nil && !t.ClosedAt.IsZero() {
		closed := t.ClosedAt.Time
		f.ClosedAt = &closed
	}
	if f.Leverage == 0 {
		f.Leverage = 1
	}
	return f
}

// Float returns a pointer to v, for the optional price fields
func Float(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
