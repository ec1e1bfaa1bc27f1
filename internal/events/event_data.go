package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// TradeEventData is carried by TradeCreated, TradeUpdated and TradeDeleted.
// Invalidated lists the cache keys the mutation made stale.
type TradeEventData struct {
	Kind        EventType `json:"-"`
	TradeID     string    `json:"trade_id"`
	JournalID   string    `json:"journal_id"`
	SessionID   string    `json:"session_id,omitempty"`
	Invalidated []string  `json:"invalidated,omitempty"`
}

// EventType returns the trade event kind
func (d *TradeEventData) EventType() EventType {
	return d.Kind
}

// JournalEventData is carried by the journal events
type JournalEventData struct {
	Kind        EventType `json:"-"`
	JournalID   string    `json:"journal_id"`
	Name        string    `json:"name,omitempty"`
	Invalidated []string  `json:"invalidated,omitempty"`
}

// EventType returns the journal event kind
func (d *JournalEventData) EventType() EventType {
	return d.Kind
}

// DraftSavedData reports a form session persisted after a failed submit
type DraftSavedData struct {
	DraftID   string `json:"draft_id"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason,omitempty"`
}

// EventType returns DraftSaved
func (d *DraftSavedData) EventType() EventType {
	return DraftSaved
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns ErrorOccurred
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
