// Package formulas provides pure financial calculations shared by the client.
package formulas

import (
	"math"

	"github.com/shopspring/decimal"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// PnL is an advisory profit/loss figure derived from form inputs.
//
// It is never persisted. The server computes the authoritative pnl_usdt and
// pnl_percent (including its own fee handling), so the two can differ.
type PnL struct {
	Absolute float64 // quote currency (USDT)
	Percent  float64 // relative to position size, in percent
}

// PnLPreview computes the live preview for a position.
//
// It returns false when entry, exit or size is missing, zero or not finite,
// or when the side is unknown. A leverage that is zero or not finite counts
// as 1x.
//
//	long:  ratio = (exit - entry) / entry
//	short: ratio = (entry - exit) / entry
//	abs    = ratio * size * leverage
//	pct    = abs / size * 100
func PnLPreview(side Side, entryPrice, exitPrice, positionSize, leverage float64) (PnL, bool) {
	if !usable(entryPrice) || !usable(exitPrice) || !usable(positionSize) {
		return PnL{}, false
	}
	if !usable(leverage) {
		leverage = 1
	}

	var ratio float64
	switch side {
	case SideLong:
		ratio = (exitPrice - entryPrice) / entryPrice
	case SideShort:
		ratio = (entryPrice - exitPrice) / entryPrice
	default:
		return PnL{}, false
	}

	abs := ratio * positionSize * leverage
	return PnL{
		Absolute: abs,
		Percent:  (abs / positionSize) * 100,
	}, true
}

// Rounded returns both figures rounded half away from zero to 2 decimals.
func (p PnL) Rounded() (absolute, percent decimal.Decimal) {
	return decimal.NewFromFloat(p.Absolute).Round(2), decimal.NewFromFloat(p.Percent).Round(2)
}

// String renders the preview the way the trade form displays it.
func (p PnL) String() string {
	abs, pct := p.Rounded()
	return abs.StringFixed(2) + " USDT (" + pct.StringFixed(2) + "%)"
}

// IsProfit reports whether the preview is non-negative.
func (p PnL) IsProfit() bool {
	return p.Absolute >= 0
}

func usable(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
