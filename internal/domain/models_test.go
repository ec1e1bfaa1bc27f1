package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeSide(t *testing.T) {
	side, err := ParseTradeSide(" Long ")
	require.NoError(t, err)
	assert.Equal(t, TradeSideLong, side)

	side, err = ParseTradeSide("short")
	require.NoError(t, err)
	assert.Equal(t, TradeSideShort, side)

	_, err = ParseTradeSide("flat")
	assert.Error(t, err)
}

func TestParseTradeStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    TradeStatus
		wantErr bool
	}{
		{"open", TradeStatusOpen, false},
		{"CLOSED", TradeStatusClosed, false},
		{"canceled", TradeStatusCanceled, false},
		{"", "", false},
		{"pending", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTradeStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrade_DecodesAPIResponse(t *testing.T) {
	body := `{
		"id": "t-1",
		"journal_id": "j-1",
		"symbol": "ETHUSDT",
		"side": "short",
		"status": "closed",
		"opened_at": "2024-03-01T10:15:00",
		"closed_at": "2024-03-01T12:00:00Z",
		"entry_price": 3500.5,
		"exit_price": 3400,
		"position_size_usdt": 1000,
		"leverage": 3,
		"pnl_usdt": 86.1,
		"pnl_percent": 8.61,
		"fee_usdt": 0.6,
		"screenshot_paths": ["trades/t-1/a.png"],
		"entry_criteria": [{"name": "trend", "score": 8}],
		"created_at": "2024-03-01T10:15:00.123456",
		"updated_at": null
	}`

	var trade Trade
	require.NoError(t, json.Unmarshal([]byte(body), &trade))

	assert.Equal(t, TradeSideShort, trade.Side)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), trade.OpenedAt.Time)
	require.NotNil(t, trade.ClosedAt)
	assert.Equal(t, 12, trade.ClosedAt.Hour())
	require.NotNil(t, trade.ExitPrice)
	assert.Equal(t, 3400.0, *trade.ExitPrice)
	assert.Nil(t, trade.StopLossPrice)
	assert.Equal(t, []string{"trades/t-1/a.png"}, trade.ScreenshotPaths)
	assert.Equal(t, 8, trade.EntryCriteria[0].Score)
	assert.True(t, trade.UpdatedAt.IsZero())
}

func TestTimestamp_EncodesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := NewTimestamp(time.Date(2024, 3, 1, 13, 0, 0, 0, loc))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T10:00:00Z"`, string(data))

	data, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTradePayload_Value(t *testing.T) {
	p := &TradePayload{Fields: []FormField{
		{Name: FieldSymbol, Value: "BTCUSDT"},
		{Name: FieldSide, Value: "long"},
	}}

	v, ok := p.Value(FieldSymbol)
	assert.True(t, ok)
	assert.Equal(t, "BTCUSDT", v)
	assert.False(t, p.Has(FieldScreenshotsToDelete))
}
