package querycache

// MutationKind names a server write
type MutationKind string

const (
	MutationCreateJournal MutationKind = "create_journal"
	MutationUpdateJournal MutationKind = "update_journal"
	MutationDeleteJournal MutationKind = "delete_journal"
	MutationCreateTrade   MutationKind = "create_trade"
	MutationUpdateTrade   MutationKind = "update_trade"
	MutationDeleteTrade   MutationKind = "delete_trade"
)

// Mutation describes a server write that has been acknowledged
type Mutation struct {
	Kind      MutationKind
	JournalID string
	TradeID   string
}

func CreateJournal() Mutation {
	return Mutation{Kind: MutationCreateJournal}
}

func UpdateJournal(journalID string) Mutation {
	return Mutation{Kind: MutationUpdateJournal, JournalID: journalID}
}

func DeleteJournal(journalID string) Mutation {
	return Mutation{Kind: MutationDeleteJournal, JournalID: journalID}
}

func CreateTrade(journalID string) Mutation {
	return Mutation{Kind: MutationCreateTrade, JournalID: journalID}
}

func UpdateTrade(tradeID, journalID string) Mutation {
	return Mutation{Kind: MutationUpdateTrade, TradeID: tradeID, JournalID: journalID}
}

func DeleteTrade(tradeID, journalID string) Mutation {
	return Mutation{Kind: MutationDeleteTrade, TradeID: tradeID, JournalID: journalID}
}

// dependencies maps each mutation to the read models it makes stale
var dependencies = map[MutationKind]func(Mutation) []Selector{
	MutationCreateJournal: func(Mutation) []Selector {
		return []Selector{Exact(JournalsList())}
	},
	MutationUpdateJournal: journalTree,
	MutationDeleteJournal: journalTree,
	MutationCreateTrade: func(m Mutation) []Selector {
		return []Selector{TradesLists(m.JournalID), Exact(TradeStats(m.JournalID))}
	},
	MutationUpdateTrade: func(m Mutation) []Selector {
		return []Selector{
			TradesLists(m.JournalID),
			Exact(TradeDetail(m.TradeID)),
			Exact(TradeStats(m.JournalID)),
		}
	},
	MutationDeleteTrade: func(m Mutation) []Selector {
		return []Selector{TradesLists(m.JournalID), Exact(TradeStats(m.JournalID))}
	},
}

func journalTree(m Mutation) []Selector {
	return []Selector{
		Exact(JournalsList()),
		Exact(JournalDetail(m.JournalID)),
		TradesSubtree(m.JournalID),
	}
}

// Selectors returns what m invalidates
func (m Mutation) Selectors() []Selector {
	deps, ok := dependencies[m.Kind]
	if !ok {
		return nil
	}
	return deps(m)
}

// Settle runs the invalidation protocol for an acknowledged mutation and
// returns the keys marked stale. It must be called only after the server
// confirmed the write.
//
// A trade mutation without a journal id falls back to the owner recorded
// on the trade's detail entry.
func (c *Cache) Settle(m Mutation) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m.TradeID != "" && m.JournalID == "" {
		if e, ok := c.entries[TradeDetail(m.TradeID)]; ok {
			m.JournalID = e.owner
		}
	}

	seen := make(map[Key]struct{})
	var keys []Key
	for _, sel := range m.Selectors() {
		for _, key := range c.invalidateLocked(sel) {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	sortKeys(keys)

	c.log.Debug().
		Str("mutation", string(m.Kind)).
		Str("journal_id", m.JournalID).
		Str("trade_id", m.TradeID).
		Int("invalidated", len(keys)).
		Msg("Settled mutation")
	return keys
}
