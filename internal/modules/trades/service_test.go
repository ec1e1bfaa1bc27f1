package trades

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/modules/drafts"
	"github.com/aristath/tradejournal/internal/querycache"
	testutil "github.com/aristath/tradejournal/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDraftStore is a mock implementation of DraftStore
type MockDraftStore struct {
	mock.Mock
}

func (m *MockDraftStore) Save(d *drafts.Draft) error {
	args := m.Called(d)
	return args.Error(0)
}

func TestService_ListIsCached(t *testing.T) {
	h := newHarness(t)
	h.transport.AddTrade(testutil.NewTradeFixture("T", "J"))
	ctx := context.Background()

	first, err := h.service.List(ctx, "J", "")
	require.NoError(t, err)
	second, err := h.service.List(ctx, "J", "")
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.transport.Calls("ListTrades"))

	open, err := h.service.List(ctx, "J", domain.TradeStatusOpen)
	require.NoError(t, err)
	assert.Empty(t, open)
	assert.Equal(t, 2, h.transport.Calls("ListTrades"))
}

func TestService_GetRecordsOwner(t *testing.T) {
	h := newHarness(t)
	h.transport.AddTrade(testutil.NewTradeFixture("T", "J"))

	trade, err := h.service.Get(context.Background(), "T")
	require.NoError(t, err)
	assert.Equal(t, "T", trade.ID)

	owner, ok := h.cache.Owner(querycache.TradeDetail("T"))
	require.True(t, ok)
	assert.Equal(t, "J", owner)
}

func TestService_GetWrapsTransportError(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, testutil.ErrNotFound)
	assert.Contains(t, err.Error(), "trades.detail(missing)")
}

func TestService_StatsRefetchAfterCreate(t *testing.T) {
	h := newHarness(t)
	h.transport.SetStats("J", domain.JournalStats{TotalTrades: 3})
	ctx := context.Background()

	stats, err := h.service.Stats(ctx, "J")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTrades)

	s := h.service.NewSession("J")
	fillForm(s.Form())
	_, err = s.Submit(ctx)
	require.NoError(t, err)

	_, err = h.service.Stats(ctx, "J")
	require.NoError(t, err)
	assert.Equal(t, 2, h.transport.Calls("GetJournalStats"))
}

func TestService_DeleteResolvesJournalFromCache(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.transport.AddTrade(testutil.NewTradeFixture("T", "J"))
	ctx := context.Background()

	_, err := h.service.Get(ctx, "T")
	require.NoError(t, err)

	var got *events.TradeEventData
	h.bus.Subscribe(events.TradeDeleted, func(e events.Event) {
		got = e.Data.(*events.TradeEventData)
	})

	keys, err := h.service.Delete(ctx, "T", "")
	require.NoError(t, err)

	assert.Equal(t, 1, h.transport.Calls("GetTrade"))
	assert.Equal(t, []querycache.Key{
		querycache.TradesList("J", ""),
		querycache.TradesList("J", domain.TradeStatusOpen),
		querycache.TradeStats("J"),
	}, keys)
	assert.False(t, h.cache.IsStale(querycache.TradesList("K", "")))

	require.NotNil(t, got)
	assert.Equal(t, "T", got.TradeID)
	assert.Equal(t, "J", got.JournalID)
}

func TestService_DeleteLooksUpUnknownTrade(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.transport.AddTrade(testutil.NewTradeFixture("T", "J"))

	_, err := h.service.Delete(context.Background(), "T", "")
	require.NoError(t, err)

	assert.Equal(t, 1, h.transport.Calls("GetTrade"))
	assert.True(t, h.cache.IsStale(querycache.TradesList("J", "")))
}

func TestService_DeleteMissingTrade(t *testing.T) {
	h := newHarness(t)
	h.seed()

	keys, err := h.service.Delete(context.Background(), "nope", "")

	assert.Nil(t, keys)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "trade nope does not exist")
	assert.Equal(t, 0, h.transport.Calls("DeleteTrade"))
	assert.False(t, h.cache.IsStale(querycache.TradesList("J", "")))
}

func TestService_DeleteFailureInvalidatesNothing(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.transport.SetError("DeleteTrade", errors.New("boom"))

	keys, err := h.service.Delete(context.Background(), "T", "J")

	require.Error(t, err)
	assert.Nil(t, keys)
	assert.False(t, h.cache.IsStale(querycache.TradesList("J", "")))
}

func TestService_SaveDraft(t *testing.T) {
	h := newHarness(t)
	store := new(MockDraftStore)
	h.service.SetDraftStore(store)

	s := h.service.NewSession("J")
	fillForm(s.Form())
	cause := errors.New("connection refused")

	store.On("Save", mock.MatchedBy(func(d *drafts.Draft) bool {
		return d.SessionID == s.ID() && d.JournalID == "J" && d.Form.Symbol == "ETHUSDT" && d.LastError == cause.Error()
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*drafts.Draft).ID = "d-1"
	}).Return(nil).Once()

	var saved *events.DraftSavedData
	h.bus.Subscribe(events.DraftSaved, func(e events.Event) {
		saved = e.Data.(*events.DraftSavedData)
	})

	d, dropped, err := h.service.SaveDraft(s, cause)
	require.NoError(t, err)

	assert.Equal(t, 0, dropped)
	assert.Equal(t, "d-1", d.ID)
	require.NotNil(t, saved)
	assert.Equal(t, "d-1", saved.DraftID)
	assert.Equal(t, "connection refused", saved.Reason)
	store.AssertExpectations(t)
}

func TestService_SaveDraftErrors(t *testing.T) {
	h := newHarness(t)
	s := h.service.NewSession("J")

	_, _, err := h.service.SaveDraft(s, nil)
	assert.Error(t, err)

	store := new(MockDraftStore)
	store.On("Save", mock.Anything).Return(errors.New("disk full"))
	h.service.SetDraftStore(store)

	_, _, err = h.service.SaveDraft(s, nil)
	assert.ErrorContains(t, err, "disk full")
}
