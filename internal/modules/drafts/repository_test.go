package drafts

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/aristath/tradejournal/internal/database"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	testutil "github.com/aristath/tradejournal/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, _ := testutil.NewTestDB(t, "drafts")
	repo := NewRepository(db.Conn(), zerolog.Nop())
	clock := testutil.FixtureTime
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return repo
}

func sampleDraft(sessionID, journalID string) *Draft {
	exit := 2100.0
	return &Draft{
		SessionID: sessionID,
		JournalID: journalID,
		Form: FormSnapshot{
			Symbol:           "ETHUSDT",
			Side:             "short",
			Status:           "open",
			OpenedAt:         testutil.FixtureTime,
			EntryPrice:       2000,
			ExitPrice:        &exit,
			PositionSizeUSDT: 250,
			Leverage:         3,
			EntryCriteria:    []domain.EntryCriterion{{Name: "Divergence", Score: 7}},
		},
		StagedPaths: []string{"/tmp/chart.png"},
		LastError:   "connection refused",
	}
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepository(t)

	d := sampleDraft("s-1", "J")
	require.NoError(t, repo.Save(d))
	require.NotEmpty(t, d.ID)

	got, err := repo.Get(d.ID)
	require.NoError(t, err)

	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, "J", got.JournalID)
	assert.False(t, got.Editing())
	assert.Equal(t, "ETHUSDT", got.Form.Symbol)
	assert.True(t, got.Form.OpenedAt.Equal(testutil.FixtureTime))
	require.NotNil(t, got.Form.ExitPrice)
	assert.Equal(t, 2100.0, *got.Form.ExitPrice)
	assert.Nil(t, got.Form.StopLossPrice)
	assert.Equal(t, []domain.EntryCriterion{{Name: "Divergence", Score: 7}}, got.Form.EntryCriteria)
	assert.Equal(t, []string{"/tmp/chart.png"}, got.StagedPaths)
	assert.Equal(t, "connection refused", got.LastError)
	assert.True(t, got.CreatedAt.Equal(d.CreatedAt))
}

func TestRepository_SaveSameSessionKeepsIdentity(t *testing.T) {
	repo := newTestRepository(t)

	first := sampleDraft("s-1", "J")
	require.NoError(t, repo.Save(first))

	second := sampleDraft("s-1", "J")
	second.Form.Symbol = "SOLUSDT"
	require.NoError(t, repo.Save(second))

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	all, err := repo.List("")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "SOLUSDT", all[0].Form.Symbol)
}

func TestRepository_SaveRequiresSession(t *testing.T) {
	repo := newTestRepository(t)

	assert.Error(t, repo.Save(&Draft{JournalID: "J"}))
}

func TestRepository_ListOrdersByRecency(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Save(sampleDraft("s-1", "J")))
	require.NoError(t, repo.Save(sampleDraft("s-2", "K")))
	require.NoError(t, repo.Save(sampleDraft("s-3", "J")))

	all, err := repo.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "s-3", all[0].SessionID)
	assert.Equal(t, "s-1", all[2].SessionID)

	inJ, err := repo.List("J")
	require.NoError(t, err)
	require.Len(t, inJ, 2)
	assert.Equal(t, "s-3", inJ[0].SessionID)
	assert.Equal(t, "s-1", inJ[1].SessionID)

	none, err := repo.List("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	d := sampleDraft("s-1", "J")
	require.NoError(t, repo.Save(d))

	require.NoError(t, repo.Delete(d.ID))

	_, err := repo.Get(d.ID)
	assert.True(t, errors.Is(err, ErrDraftNotFound))
	assert.ErrorIs(t, repo.Delete(d.ID), ErrDraftNotFound)
}

func TestRepository_DeleteBySession(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Save(sampleDraft("s-1", "J")))

	n, err := repo.DeleteBySession("s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteBySession("s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo := newTestRepository(t)
	old := sampleDraft("s-old", "J")
	require.NoError(t, repo.Save(old))
	recent := sampleDraft("s-new", "J")
	require.NoError(t, repo.Save(recent))

	n, err := repo.DeleteOlderThan(recent.UpdatedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := repo.List("")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "s-new", remaining[0].SessionID)
}

// The schema also loads on the cgo driver used by older tooling
func TestRepository_MattnDriver(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	schema, err := database.Schema("drafts")
	require.NoError(t, err)
	_, err = conn.Exec(schema)
	require.NoError(t, err)

	repo := NewRepository(conn, zerolog.Nop())
	d := sampleDraft("s-1", "J")
	d.TradeID = "T"
	require.NoError(t, repo.Save(d))

	got, err := repo.Get(d.ID)
	require.NoError(t, err)
	assert.True(t, got.Editing())
	assert.Equal(t, "T", got.TradeID)
}

func TestPurger_DeletesDraftOfSubmittedSession(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Save(sampleDraft("s-1", "J")))
	require.NoError(t, repo.Save(sampleDraft("s-2", "J")))

	bus := events.NewBus(zerolog.Nop())
	unsubscribe := NewPurger(repo, zerolog.Nop()).Subscribe(bus)

	bus.Emit(events.Event{Type: events.TradeCreated, Data: &events.TradeEventData{Kind: events.TradeCreated, TradeID: "t-1", SessionID: "s-1"}})
	bus.Emit(events.Event{Type: events.TradeDeleted, Data: &events.TradeEventData{Kind: events.TradeDeleted, TradeID: "t-2", SessionID: "s-2"}})

	remaining, err := repo.List("")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "s-2", remaining[0].SessionID)

	unsubscribe()
	assert.Equal(t, 0, bus.SubscriberCount(events.TradeCreated))
	assert.Equal(t, 0, bus.SubscriberCount(events.TradeUpdated))
}
