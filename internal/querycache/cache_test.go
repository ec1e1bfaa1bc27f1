package querycache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(zerolog.Nop(), WithClock(clock.Now)), clock
}

// seed fills the cache with the read models of two journals
func seed(c *Cache) {
	c.Write(JournalsList(), []domain.Journal{{ID: "J"}, {ID: "K"}})
	c.Write(JournalDetail("J"), &domain.Journal{ID: "J"})
	c.Write(JournalDetail("K"), &domain.Journal{ID: "K"})
	c.Write(TradesList("J", ""), []domain.Trade{{ID: "T", JournalID: "J"}})
	c.Write(TradesList("J", domain.TradeStatusOpen), []domain.Trade{})
	c.Write(TradesList("J", domain.TradeStatusClosed), []domain.Trade{{ID: "T", JournalID: "J"}})
	c.Write(TradeDetail("T"), &domain.Trade{ID: "T", JournalID: "J"})
	c.Write(TradeStats("J"), &domain.JournalStats{TotalTrades: 1})
	c.Write(TradesList("K", ""), []domain.Trade{{ID: "U", JournalID: "K"}})
	c.Write(TradeDetail("U"), domain.Trade{ID: "U", JournalID: "K"})
	c.Write(TradeStats("K"), &domain.JournalStats{TotalTrades: 1})
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "journals.list", JournalsList().String())
	assert.Equal(t, "journals.detail(J)", JournalDetail("J").String())
	assert.Equal(t, "trades.list(J,*)", TradesList("J", "").String())
	assert.Equal(t, "trades.list(J,open)", TradesList("J", domain.TradeStatusOpen).String())
	assert.Equal(t, "trades.detail(T)", TradeDetail("T").String())
	assert.Equal(t, "trades.stats(J)", TradeStats("J").String())
}

func TestReadWrite(t *testing.T) {
	c, _ := newTestCache(t)

	_, ok := c.Read(JournalsList())
	assert.False(t, ok)

	c.Write(JournalsList(), []string{"a"})
	v, ok := c.Read(JournalsList())
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, v)
}

func TestInvalidate_NextReadMisses(t *testing.T) {
	c, _ := newTestCache(t)
	c.Write(TradeStats("J"), 1)

	assert.True(t, c.Invalidate(TradeStats("J")))
	assert.True(t, c.IsStale(TradeStats("J")))

	_, ok := c.Read(TradeStats("J"))
	assert.False(t, ok)

	stale, ok := c.ReadStale(TradeStats("J"))
	require.True(t, ok)
	assert.Equal(t, 1, stale)

	c.Write(TradeStats("J"), 2)
	v, ok := c.Read(TradeStats("J"))
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.False(t, c.Invalidate(TradeStats("missing")))
}

func TestOwnerRecordedOnWrite(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	owner, ok := c.Owner(TradeDetail("T"))
	require.True(t, ok)
	assert.Equal(t, "J", owner)

	owner, ok = c.Owner(TradeDetail("U"))
	require.True(t, ok)
	assert.Equal(t, "K", owner)

	c.WriteOwned(TradeDetail("V"), "K", "raw")
	owner, _ = c.Owner(TradeDetail("V"))
	assert.Equal(t, "K", owner)

	c.Write(TradeDetail("W"), "unknown")
	_, ok = c.Owner(TradeDetail("W"))
	assert.False(t, ok)
}

func TestInvalidateSubtree_TradesLists(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	keys := c.InvalidateSubtree(TradesLists("J"))

	assert.Equal(t, []Key{
		TradesList("J", ""),
		TradesList("J", domain.TradeStatusClosed),
		TradesList("J", domain.TradeStatusOpen),
	}, keys)
	assert.False(t, c.IsStale(TradesList("K", "")))
	assert.False(t, c.IsStale(TradeStats("J")))
}

func TestSettle_CreateJournal(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	keys := c.Settle(CreateJournal())

	assert.Equal(t, []Key{JournalsList()}, keys)
}

func TestSettle_CreateTrade(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	keys := c.Settle(CreateTrade("J"))

	assert.ElementsMatch(t, []Key{
		TradesList("J", ""),
		TradesList("J", domain.TradeStatusOpen),
		TradesList("J", domain.TradeStatusClosed),
		TradeStats("J"),
	}, keys)
	assert.False(t, c.IsStale(TradeDetail("T")))
	assert.False(t, c.IsStale(JournalsList()))
}

// Updating trade T in journal J invalidates exactly the J lists, T's detail
// and J's stats. Journal K is untouched.
func TestSettle_UpdateTrade(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	keys := c.Settle(UpdateTrade("T", "J"))

	assert.ElementsMatch(t, []Key{
		TradesList("J", ""),
		TradesList("J", domain.TradeStatusOpen),
		TradesList("J", domain.TradeStatusClosed),
		TradeDetail("T"),
		TradeStats("J"),
	}, keys)

	for _, untouched := range []Key{
		JournalsList(), JournalDetail("J"), JournalDetail("K"),
		TradesList("K", ""), TradeDetail("U"), TradeStats("K"),
	} {
		_, ok := c.Read(untouched)
		assert.True(t, ok, "%s should still be fresh", untouched)
	}
}

func TestSettle_UpdateTradeResolvesJournalFromOwner(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	keys := c.Settle(UpdateTrade("T", ""))

	assert.Contains(t, keys, TradeStats("J"))
	assert.Contains(t, keys, TradeDetail("T"))
}

func TestSettle_DeleteTrade(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	keys := c.Settle(DeleteTrade("T", "J"))

	assert.ElementsMatch(t, []Key{
		TradesList("J", ""),
		TradesList("J", domain.TradeStatusOpen),
		TradesList("J", domain.TradeStatusClosed),
		TradeStats("J"),
	}, keys)
}

func TestSettle_DeleteJournalIsolation(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	keys := c.Settle(DeleteJournal("J"))

	assert.ElementsMatch(t, []Key{
		JournalsList(),
		JournalDetail("J"),
		TradesList("J", ""),
		TradesList("J", domain.TradeStatusOpen),
		TradesList("J", domain.TradeStatusClosed),
		TradeDetail("T"),
		TradeStats("J"),
	}, keys)

	for _, k := range []Key{JournalDetail("K"), TradesList("K", ""), TradeDetail("U"), TradeStats("K")} {
		assert.False(t, c.IsStale(k), "%s belongs to another journal", k)
	}
}

func TestSettle_JournalMutationsSkipUnownedDetails(t *testing.T) {
	c, _ := newTestCache(t)
	c.Write(TradeDetail("X"), "no owner")
	c.Write(TradeDetail("T"), &domain.Trade{ID: "T", JournalID: "J"})
	c.Write(TradeDetail("U"), &domain.Trade{ID: "U", JournalID: "K"})

	keys := c.Settle(DeleteJournal("J"))

	assert.Contains(t, keys, TradeDetail("T"))
	assert.NotContains(t, keys, TradeDetail("X"))
	assert.NotContains(t, keys, TradeDetail("U"))
	assert.False(t, c.IsStale(TradeDetail("X")))
}

func TestSettle_UnknownMutation(t *testing.T) {
	c, _ := newTestCache(t)
	seed(c)

	assert.Empty(t, c.Settle(Mutation{Kind: "bogus"}))
}

func TestCollect(t *testing.T) {
	c, clock := newTestCache(t)
	c.Write(JournalsList(), 1)
	c.Write(TradeStats("J"), 2)

	clock.Advance(4 * time.Minute)
	_, _ = c.Read(JournalsList())
	clock.Advance(2 * time.Minute)

	removed := c.Collect(5 * time.Minute)

	assert.Equal(t, 1, removed)
	assert.Equal(t, []Key{JournalsList()}, c.Keys())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	c := New(zerolog.Nop(), WithMetrics(m))
	c.Write(JournalsList(), 1)
	c.Read(JournalsList())
	c.Read(TradeStats("J"))
	c.Invalidate(JournalsList())
	c.Invalidate(JournalsList())
	c.Collect(-time.Hour)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Collected))

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	c, _ := newTestCache(t)
	calls := 0
	fetch := func(ctx context.Context) (*domain.JournalStats, error) {
		calls++
		return &domain.JournalStats{TotalTrades: calls}, nil
	}

	first, err := Fetch(context.Background(), c, TradeStats("J"), fetch)
	require.NoError(t, err)
	second, err := Fetch(context.Background(), c, TradeStats("J"), fetch)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	c.Settle(CreateTrade("J"))
	third, err := Fetch(context.Background(), c, TradeStats("J"), fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, third.TotalTrades)
}

func TestFetch_ErrorKeepsStaleValue(t *testing.T) {
	c, _ := newTestCache(t)
	c.Write(TradeStats("J"), &domain.JournalStats{TotalTrades: 7})
	c.Invalidate(TradeStats("J"))

	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, TradeStats("J"), func(context.Context) (*domain.JournalStats, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	stale, ok := Stale[*domain.JournalStats](c, TradeStats("J"))
	require.True(t, ok)
	assert.Equal(t, 7, stale.TotalTrades)
}

func TestConcurrentCollectAndWrite(t *testing.T) {
	c := New(zerolog.Nop())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Write(TradesList("J", ""), i)
			c.Settle(CreateTrade("J"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Collect(time.Hour)
		}
	}()
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 1)
}
