// Package querycache is the process-wide cache of server read models and
// the mutation protocol that keeps them consistent.
//
// Keys form a hierarchy rooted at journals. Every trades.* key belongs to
// exactly one journal: list and stats keys carry the journal id, trade
// detail entries record their owner journal when written.
package querycache

import (
	"fmt"

	"github.com/aristath/tradejournal/internal/domain"
)

// Kind tags a cache key
type Kind string

const (
	KindJournalsList  Kind = "journals.list"
	KindJournalDetail Kind = "journals.detail"
	KindTradesList    Kind = "trades.list"
	KindTradeDetail   Kind = "trades.detail"
	KindTradeStats    Kind = "trades.stats"
)

// Key identifies one cached read model. Keys are comparable and built only
// through the constructors below.
type Key struct {
	Kind      Kind
	JournalID string
	TradeID   string
	Status    domain.TradeStatus
}

// JournalsList is the key of the journal list
func JournalsList() Key {
	return Key{Kind: KindJournalsList}
}

// JournalDetail is the key of one journal
func JournalDetail(journalID string) Key {
	return Key{Kind: KindJournalDetail, JournalID: journalID}
}

// TradesList is the key of a journal's trade list; an empty status is the
// unfiltered list
func TradesList(journalID string, status domain.TradeStatus) Key {
	return Key{Kind: KindTradesList, JournalID: journalID, Status: status}
}

// TradeDetail is the key of one trade
func TradeDetail(tradeID string) Key {
	return Key{Kind: KindTradeDetail, TradeID: tradeID}
}

// TradeStats is the key of a journal's statistics
func TradeStats(journalID string) Key {
	return Key{Kind: KindTradeStats, JournalID: journalID}
}

// String renders the key as kind(args)
func (k Key) String() string {
	switch k.Kind {
	case KindJournalsList:
		return string(k.Kind)
	case KindJournalDetail, KindTradeStats:
		return fmt.Sprintf("%s(%s)", k.Kind, k.JournalID)
	case KindTradesList:
		status := string(k.Status)
		if status == "" {
			status = "*"
		}
		return fmt.Sprintf("%s(%s,%s)", k.Kind, k.JournalID, status)
	case KindTradeDetail:
		return fmt.Sprintf("%s(%s)", k.Kind, k.TradeID)
	}
	return fmt.Sprintf("unknown(%q)", string(k.Kind))
}

// journalOf returns the journal a key is scoped to, if the key itself says
func (k Key) journalOf() string {
	switch k.Kind {
	case KindJournalDetail, KindTradesList, KindTradeStats:
		return k.JournalID
	}
	return ""
}
