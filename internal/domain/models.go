// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strings"
)

// TradeSide represents the direction of a trade
type TradeSide string

const (
	TradeSideLong  TradeSide = "long"
	TradeSideShort TradeSide = "short"
)

// Valid reports whether s is a known side
func (s TradeSide) Valid() bool {
	return s == TradeSideLong || s == TradeSideShort
}

// ParseTradeSide converts user input into a TradeSide
func ParseTradeSide(s string) (TradeSide, error) {
	side := TradeSide(strings.ToLower(strings.TrimSpace(s)))
	if !side.Valid() {
		return "", fmt.Errorf("invalid trade side: %q", s)
	}
	return side, nil
}

// TradeStatus represents the lifecycle state of a trade
type TradeStatus string

const (
	TradeStatusOpen     TradeStatus = "open"
	TradeStatusClosed   TradeStatus = "closed"
	TradeStatusCanceled TradeStatus = "canceled"
)

// Valid reports whether s is a known status
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusOpen, TradeStatusClosed, TradeStatusCanceled:
		return true
	}
	return false
}

// ParseTradeStatus converts user input into a TradeStatus.
// An empty string is accepted and means "no status" (e.g. no list filter).
func ParseTradeStatus(s string) (TradeStatus, error) {
	status := TradeStatus(strings.ToLower(strings.TrimSpace(s)))
	if status == "" || status.Valid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid trade status: %q", s)
}

// EntryCriterion is one scored reason for entering a trade
type EntryCriterion struct {
	Name    string `json:"name" msgpack:"name" validate:"required"`
	Score   int    `json:"score" msgpack:"score" validate:"min=1,max=10"`
	Comment string `json:"comment,omitempty" msgpack:"comment,omitempty"`
}

// Trade is the server-owned trade record.
// PnLUSDT and PnLPercent are computed by the server and are authoritative.
type Trade struct {
	ID               string           `json:"id"`
	JournalID        string           `json:"journal_id"`
	Symbol           string           `json:"symbol"`
	Side             TradeSide        `json:"side"`
	Status           TradeStatus      `json:"status"`
	OpenedAt         Timestamp        `json:"opened_at"`
	ClosedAt         *Timestamp       `json:"closed_at,omitempty"`
	EntryPrice       float64          `json:"entry_price"`
	ExitPrice        *float64         `json:"exit_price,omitempty"`
	PositionSizeUSDT float64          `json:"position_size_usdt"`
	Leverage         float64          `json:"leverage"`
	StopLossPrice    *float64         `json:"stop_loss_price,omitempty"`
	TakeProfitPrice  *float64         `json:"take_profit_price,omitempty"`
	PnLUSDT          float64          `json:"pnl_usdt"`
	PnLPercent       float64          `json:"pnl_percent"`
	FeeUSDT          float64          `json:"fee_usdt"`
	Description      string           `json:"description,omitempty"`
	EmotionalState   string           `json:"emotional_state,omitempty"`
	ScreenshotPaths  []string         `json:"screenshot_paths,omitempty"`
	EntryCriteria    []EntryCriterion `json:"entry_criteria"`
	CreatedAt        Timestamp        `json:"created_at"`
	UpdatedAt        Timestamp        `json:"updated_at"`
}

// Journal groups trades
type Journal struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	TradesCount *int      `json:"trades_count,omitempty"`
}

// JournalInput is the body of journal create and update calls
type JournalInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// JournalStats is the server-computed aggregate for one journal
type JournalStats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnLUSDT  float64 `json:"total_pnl_usdt"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
}
