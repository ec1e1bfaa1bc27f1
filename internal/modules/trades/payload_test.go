package trades

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/attachments"
	testutil "github.com/aristath/tradejournal/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opened = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func validForm() *Form {
	f := NewForm("j-1", opened)
	f.Symbol = "BTCUSDT"
	f.EntryPrice = 100
	f.PositionSizeUSDT = 1000
	return f
}

func fieldNames(p *domain.TradePayload) []string {
	names := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		names = append(names, f.Name)
	}
	return names
}

func TestValidate_ValidForm(t *testing.T) {
	assert.NoError(t, Validate(validForm()))
}

func TestValidate_ReportsEveryField(t *testing.T) {
	f := &Form{Leverage: 0.5, FeeUSDT: -1, StopLossPrice: Float(-3), Criteria: NewCriteria()}

	err := Validate(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	for _, name := range []string{"journal_id", "symbol", "side", "status", "opened_at", "entry_price", "position_size_usdt", "leverage", "fee_usdt", "stop_loss_price"} {
		_, ok := verr.Field(name)
		assert.True(t, ok, "expected a problem with %s", name)
	}

	fe, _ := verr.Field("entry_price")
	assert.Equal(t, "must be greater than 0", fe.Message)
	assert.Contains(t, err.Error(), "symbol is required")
}

func TestValidate_ClosedTradeNeedsExit(t *testing.T) {
	f := validForm()
	f.Status = domain.TradeStatusClosed

	var verr *ValidationError
	require.True(t, errors.As(Validate(f), &verr))

	fe, ok := verr.Field("exit_price")
	require.True(t, ok)
	assert.Equal(t, "is required when status is closed", fe.Message)
	_, ok = verr.Field("closed_at")
	assert.True(t, ok)

	closed := opened.Add(time.Hour)
	f.ExitPrice = Float(110)
	f.ClosedAt = &closed
	assert.NoError(t, Validate(f))
}

func TestValidate_ClosedBeforeOpened(t *testing.T) {
	f := validForm()
	before := opened.Add(-time.Minute)
	f.ClosedAt = &before

	var verr *ValidationError
	require.True(t, errors.As(Validate(f), &verr))
	fe, ok := verr.Field("closed_at")
	require.True(t, ok)
	assert.Equal(t, ruleNotBeforeOpen, fe.Rule)
}

func TestValidate_CriterionScoreRange(t *testing.T) {
	f := validForm()
	require.NoError(t, f.Criteria.Set(0, domain.EntryCriterion{Name: "Trend", Score: 11}))
	f.Criteria.Add() // blank, ignored

	var verr *ValidationError
	require.True(t, errors.As(Validate(f), &verr))
	fe, ok := verr.Field("entry_criteria[0].score")
	require.True(t, ok)
	assert.Equal(t, "must be at most 10", fe.Message)
}

func TestValidate_InvalidEnum(t *testing.T) {
	f := validForm()
	f.Side = "sideways"

	var verr *ValidationError
	require.True(t, errors.As(Validate(f), &verr))
	fe, _ := verr.Field("side")
	assert.Equal(t, "must be one of long, short", fe.Message)
}

func TestBuild_NewTrade(t *testing.T) {
	f := validForm()
	f.Description = "  breakout  "
	f.StopLossPrice = Float(95.5)
	require.NoError(t, f.Criteria.Set(0, domain.EntryCriterion{Name: "Trend", Score: 8}))
	f.Criteria.Add()

	set := attachments.NewSet(attachments.DefaultPolicy(), nil)
	require.Empty(t, set.Stage(attachments.FileFromBytes("a.png", "image/png", testutil.PNGBytes)))

	p, err := Build(f, set, false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"journal_id", "symbol", "side", "status", "opened_at", "entry_price",
		"position_size_usdt", "leverage", "fee_usdt", "entry_criteria",
		"stop_loss_price", "description",
	}, fieldNames(p))

	v, _ := p.Value(domain.FieldOpenedAt)
	assert.Equal(t, "2024-03-01T10:00:00Z", v)
	v, _ = p.Value(domain.FieldLeverage)
	assert.Equal(t, "1", v)
	v, _ = p.Value(domain.FieldStopLossPrice)
	assert.Equal(t, "95.5", v)
	v, _ = p.Value(domain.FieldDescription)
	assert.Equal(t, "breakout", v)

	v, _ = p.Value(domain.FieldEntryCriteria)
	var criteria []domain.EntryCriterion
	require.NoError(t, json.Unmarshal([]byte(v), &criteria))
	assert.Equal(t, []domain.EntryCriterion{{Name: "Trend", Score: 8}}, criteria)

	assert.False(t, p.Has(domain.FieldScreenshotsToDelete))
	require.Len(t, p.Screenshots, 1)
	assert.Equal(t, "a.png", p.Screenshots[0].FileName())
}

func TestBuild_EmptyCriteriaSerializeAsEmptyArray(t *testing.T) {
	p, err := Build(validForm(), nil, false)
	require.NoError(t, err)

	v, _ := p.Value(domain.FieldEntryCriteria)
	assert.Equal(t, "[]", v)
}

func TestBuild_EditingAlwaysSendsDeletionList(t *testing.T) {
	set := attachments.NewSet(attachments.DefaultPolicy(), []string{"p/1.png", "p/2.png"})

	p, err := Build(validForm(), set, true)
	require.NoError(t, err)
	v, ok := p.Value(domain.FieldScreenshotsToDelete)
	require.True(t, ok)
	assert.Equal(t, "[]", v)

	set.MarkForDeletion("p/2.png")
	p, err = Build(validForm(), set, true)
	require.NoError(t, err)
	v, _ = p.Value(domain.FieldScreenshotsToDelete)
	assert.Equal(t, `["p/2.png"]`, v)
}

func TestBuild_ValidationFailureBuildsNothing(t *testing.T) {
	f := validForm()
	f.Symbol = ""

	p, err := Build(f, nil, false)

	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestFormFromTrade(t *testing.T) {
	trade := testutil.NewTradeFixture("t-1", "j-1")

	f := FormFromTrade(&trade)

	assert.Equal(t, "j-1", f.JournalID)
	assert.Equal(t, domain.TradeStatusClosed, f.Status)
	require.NotNil(t, f.ExitPrice)
	assert.Equal(t, 110.0, *f.ExitPrice)
	require.NotNil(t, f.ClosedAt)
	assert.Equal(t, 2, f.Criteria.Len())
	assert.NoError(t, Validate(f))

	*f.ExitPrice = 1
	assert.Equal(t, 110.0, *trade.ExitPrice, "form must not alias the trade")
}

func TestBuild_RechecksStagedFilesOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, testutil.PNGBytes, 0o644))
	file, err := attachments.FileFromPath(path)
	require.NoError(t, err)

	set := attachments.NewSet(attachments.DefaultPolicy(), nil)
	require.Empty(t, set.Stage(file))

	_, err = Build(validForm(), set, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not an image any more"), 0o644))
	p, err := Build(validForm(), set, false)
	assert.Nil(t, p)
	require.ErrorIs(t, err, attachments.ErrAttachmentRejected)
	assert.Contains(t, err.Error(), "chart.png")
}
