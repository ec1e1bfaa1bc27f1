package testing

import (
	"time"

	"github.com/aristath/tradejournal/internal/domain"
)

// PNGBytes is a minimal payload that sniffs as image/png
var PNGBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// FixtureTime is the fixed clock used by fixtures
var FixtureTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// NewJournalFixtures returns two journals
func NewJournalFixtures() []domain.Journal {
	return []domain.Journal{
		{
			ID:          "j-swing",
			Name:        "Swing",
			Description: "Multi-day crypto swings",
			CreatedAt:   domain.NewTimestamp(FixtureTime),
		},
		{
			ID:        "j-scalp",
			Name:      "Scalp",
			CreatedAt: domain.NewTimestamp(FixtureTime.Add(time.Hour)),
		},
	}
}

// NewTradeFixture returns a closed long BTC trade in journalID
func NewTradeFixture(id, journalID string) domain.Trade {
	exit := 110.0
	closedAt := domain.NewTimestamp(FixtureTime.Add(48 * time.Hour))
	return domain.Trade{
		ID:               id,
		JournalID:        journalID,
		Symbol:           "BTCUSDT",
		Side:             domain.TradeSideLong,
		Status:           domain.TradeStatusClosed,
		OpenedAt:         domain.NewTimestamp(FixtureTime),
		ClosedAt:         &closedAt,
		EntryPrice:       100,
		ExitPrice:        &exit,
		PositionSizeUSDT: 1000,
		Leverage:         2,
		FeeUSDT:          1.5,
		PnLUSDT:          198.5,
		PnLPercent:       19.85,
		Description:      "Breakout retest",
		EntryCriteria: []domain.EntryCriterion{
			{Name: "Trend", Score: 8},
			{Name: "Volume", Score: 6, Comment: "above average"},
		},
		ScreenshotPaths: []string{"trades/" + id + "/entry.png", "trades/" + id + "/exit.png"},
		CreatedAt:       domain.NewTimestamp(FixtureTime),
		UpdatedAt:       domain.NewTimestamp(FixtureTime.Add(48 * time.Hour)),
	}
}
