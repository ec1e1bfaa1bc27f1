package testing

import (
	"encoding/json"
	"strconv"

	"github.com/aristath/tradejournal/internal/domain"
)

// applyPayload mimics the server: it writes the payload's fields onto t,
// appends new screenshots and drops the ones listed for deletion
func applyPayload(t *domain.Trade, p *domain.TradePayload) {
	names := make([]string, 0, len(p.Screenshots))
	for _, f := range p.Screenshots {
		names = append(names, f.FileName())
	}
	applyFields(t, p.Value, names)
}

func applyFields(t *domain.Trade, get func(string) (string, bool), uploaded []string) {
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *float64) {
		if v, ok := get(name); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	optNum := func(name string, dst **float64) {
		if v, ok := get(name); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = &f
			}
		}
	}
	ts := func(name string, dst *domain.Timestamp) bool {
		v, ok := get(name)
		if !ok {
			return false
		}
		parsed, err := domain.ParseTimestamp(v)
		if err != nil {
			return false
		}
		*dst = parsed
		return true
	}

	str(domain.FieldJournalID, &t.JournalID)
	str(domain.FieldSymbol, &t.Symbol)
	if v, ok := get(domain.FieldSide); ok {
		t.Side = domain.TradeSide(v)
	}
	if v, ok := get(domain.FieldStatus); ok {
		t.Status = domain.TradeStatus(v)
	}
	ts(domain.FieldOpenedAt, &t.OpenedAt)
	var closed domain.Timestamp
	if ts(domain.FieldClosedAt, &closed) {
		t.ClosedAt = &closed
	}
	num(domain.FieldEntryPrice, &t.EntryPrice)
	optNum(domain.FieldExitPrice, &t.ExitPrice)
	num(domain.FieldPositionSizeUSDT, &t.PositionSizeUSDT)
	num(domain.FieldLeverage, &t.Leverage)
	optNum(domain.FieldStopLossPrice, &t.StopLossPrice)
	optNum(domain.FieldTakeProfitPrice, &t.TakeProfitPrice)
	num(domain.FieldFeeUSDT, &t.FeeUSDT)
	str(domain.FieldDescription, &t.Description)
	str(domain.FieldEmotionalState, &t.EmotionalState)
	if v, ok := get(domain.FieldEntryCriteria); ok {
		var criteria []domain.EntryCriterion
		if json.Unmarshal([]byte(v), &criteria) == nil {
			t.EntryCriteria = criteria
		}
	}

	if v, ok := get(domain.FieldScreenshotsToDelete); ok {
		var remove []string
		if json.Unmarshal([]byte(v), &remove) == nil {
			drop := make(map[string]bool, len(remove))
			for _, p := range remove {
				drop[p] = true
			}
			kept := t.ScreenshotPaths[:0:0]
			for _, p := range t.ScreenshotPaths {
				if !drop[p] {
					kept = append(kept, p)
				}
			}
			t.ScreenshotPaths = kept
		}
	}
	for _, name := range uploaded {
		t.ScreenshotPaths = append(t.ScreenshotPaths, "trades/"+t.ID+"/"+name)
	}

	if t.ExitPrice != nil && t.EntryPrice > 0 {
		ratio := (*t.ExitPrice - t.EntryPrice) / t.EntryPrice
		if t.Side == domain.TradeSideShort {
			ratio = -ratio
		}
		t.PnLUSDT = ratio*t.PositionSizeUSDT*t.Leverage - t.FeeUSDT
		if t.PositionSizeUSDT > 0 {
			t.PnLPercent = t.PnLUSDT / t.PositionSizeUSDT * 100
		}
	}
}
