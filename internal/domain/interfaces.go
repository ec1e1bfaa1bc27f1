package domain

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound matches transport errors for journals or trades the server
// does not know
var ErrNotFound = errors.New("not found")

// JournalTransport is the journal half of the remote journal API.
// Implementations return a transport error for any non-success response.
type JournalTransport interface {
	ListJournals(ctx context.Context) ([]Journal, error)
	GetJournal(ctx context.Context, journalID string) (*Journal, error)
	CreateJournal(ctx context.Context, in JournalInput) (*Journal, error)
	UpdateJournal(ctx context.Context, journalID string, in JournalInput) (*Journal, error)
	DeleteJournal(ctx context.Context, journalID string) error
}

// TradeTransport is the trade half of the remote journal API.
//
// CreateTrade and UpdateTrade carry fields and attachment changes in a
// single request; the server applies them together or not at all.
type TradeTransport interface {
	// ListTrades lists a journal's trades; an empty status means no filter
	ListTrades(ctx context.Context, journalID string, status TradeStatus) ([]Trade, error)
	GetTrade(ctx context.Context, tradeID string) (*Trade, error)
	GetJournalStats(ctx context.Context, journalID string) (*JournalStats, error)

	CreateTrade(ctx context.Context, payload *TradePayload) (*Trade, error)
	UpdateTrade(ctx context.Context, tradeID string, payload *TradePayload) (*Trade, error)
	DeleteTrade(ctx context.Context, tradeID string) error
}

// UploadFile is a local file that travels as one binary part of a payload
type UploadFile interface {
	FileName() string
	MediaType() string
	Open() (io.ReadCloser, error)
}
