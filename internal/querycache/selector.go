package querycache

import "fmt"

type selectorKind int

const (
	selectExact selectorKind = iota
	selectTradesLists
	selectTradesSubtree
)

// Selector picks a set of keys for invalidation
type Selector struct {
	kind      selectorKind
	key       Key
	journalID string
}

// Exact selects a single key
func Exact(key Key) Selector {
	return Selector{kind: selectExact, key: key}
}

// TradesLists selects trades.list(journalID, *) for every status filter
func TradesLists(journalID string) Selector {
	return Selector{kind: selectTradesLists, journalID: journalID}
}

// TradesSubtree selects every trades.* key of a journal: its lists, its
// stats and the details of trades it owns. Trade details whose owner was
// never recorded are left alone.
func TradesSubtree(journalID string) Selector {
	return Selector{kind: selectTradesSubtree, journalID: journalID}
}

// matches reports whether an entry stored under key with the given owner
// ("" when unknown) is selected
func (s Selector) matches(key Key, owner string) bool {
	switch s.kind {
	case selectExact:
		return key == s.key
	case selectTradesLists:
		return key.Kind == KindTradesList && key.JournalID == s.journalID
	case selectTradesSubtree:
		switch key.Kind {
		case KindTradesList, KindTradeStats:
			return key.JournalID == s.journalID
		case KindTradeDetail:
			return owner != "" && owner == s.journalID
		}
	}
	return false
}

// String describes the selector for logs
func (s Selector) String() string {
	switch s.kind {
	case selectExact:
		return s.key.String()
	case selectTradesLists:
		return fmt.Sprintf("trades.list(%s,*)", s.journalID)
	case selectTradesSubtree:
		return fmt.Sprintf("trades.*(%s)", s.journalID)
	}
	return "unknown"
}
