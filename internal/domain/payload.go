package domain

// Multipart field names understood by the journal API
const (
	FieldJournalID           = "journal_id"
	FieldSymbol              = "symbol"
	FieldSide                = "side"
	FieldStatus              = "status"
	FieldOpenedAt            = "opened_at"
	FieldClosedAt            = "closed_at"
	FieldEntryPrice          = "entry_price"
	FieldExitPrice           = "exit_price"
	FieldPositionSizeUSDT    = "position_size_usdt"
	FieldLeverage            = "leverage"
	FieldStopLossPrice       = "stop_loss_price"
	FieldTakeProfitPrice     = "take_profit_price"
	FieldFeeUSDT             = "fee_usdt"
	FieldDescription         = "description"
	FieldEmotionalState      = "emotional_state"
	FieldEntryCriteria       = "entry_criteria"
	FieldScreenshots         = "screenshots"
	FieldScreenshotsToDelete = "screenshots_to_delete"
)

// FormField is one text part of a trade payload
type FormField struct {
	Name  string
	Value string
}

// TradePayload is one complete trade mutation: scalar fields, the
// attachment diff and the new files, sent as a single multipart request.
type TradePayload struct {
	Fields      []FormField
	Screenshots []UploadFile
}

// Value returns the first field with the given name
func (p *TradePayload) Value(name string) (string, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether the payload carries the named field
func (p *TradePayload) Has(name string) bool {
	_, ok := p.Value(name)
	return ok
}
