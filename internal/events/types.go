// Package events provides in-process event management.
//
// Events are published synchronously: Emit returns after every subscriber
// has run, so a subscriber observes the cache state that produced it.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	JournalCreated EventType = "JOURNAL_CREATED"
	JournalUpdated EventType = "JOURNAL_UPDATED"
	JournalDeleted EventType = "JOURNAL_DELETED"

	TradeCreated EventType = "TRADE_CREATED"
	TradeUpdated EventType = "TRADE_UPDATED"
	TradeDeleted EventType = "TRADE_DELETED"

	DraftSaved    EventType = "DRAFT_SAVED"
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// Event is one published notification
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data,omitempty"`
}
