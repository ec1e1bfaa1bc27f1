package trades

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/attachments"
)

// Build validates the form and turns it, together with the attachment
// diff, into one trade mutation payload. Validation failures are returned
// as *ValidationError before anything is serialized.
//
// Disk-backed screenshots are checked against the attachment policy again,
// so a file that grew or changed type after staging fails the build.
//
// screenshots_to_delete is only written when editing; a new trade has no
// persisted attachments to remove.
func Build(form *Form, set *attachments.Set, editing bool) (*domain.TradePayload, error) {
	if err := Validate(form); err != nil {
		return nil, err
	}

	recorded := []domain.EntryCriterion{}
	if form.Criteria != nil {
		recorded = form.Criteria.Recorded()
	}
	criteriaJSON, err := json.Marshal(recorded)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry criteria: %w", err)
	}

	p := &domain.TradePayload{}
	add := func(name, value string) {
		p.Fields = append(p.Fields, domain.FormField{Name: name, Value: value})
	}

	add(domain.FieldJournalID, form.JournalID)
	add(domain.FieldSymbol, strings.TrimSpace(form.Symbol))
	add(domain.FieldSide, string(form.Side))
	add(domain.FieldStatus, string(form.Status))
	add(domain.FieldOpenedAt, formatTime(form.OpenedAt))
	add(domain.FieldEntryPrice, formatFloat(form.EntryPrice))
	add(domain.FieldPositionSizeUSDT, formatFloat(form.PositionSizeUSDT))
	add(domain.FieldLeverage, formatFloat(form.Leverage))
	add(domain.FieldFeeUSDT, formatFloat(form.FeeUSDT))
	add(domain.FieldEntryCriteria, string(criteriaJSON))

	if form.ClosedAt != nil && !form.ClosedAt.IsZero() {
		add(domain.FieldClosedAt, formatTime(*form.ClosedAt))
	}
	if form.ExitPrice != nil {
		add(domain.FieldExitPrice, formatFloat(*form.ExitPrice))
	}
	if form.StopLossPrice != nil {
		add(domain.FieldStopLossPrice, formatFloat(*form.StopLossPrice))
	}
	if form.TakeProfitPrice != nil {
		add(domain.FieldTakeProfitPrice, formatFloat(*form.TakeProfitPrice))
	}
	if s := strings.TrimSpace(form.Description); s != "" {
		add(domain.FieldDescription, s)
	}
	if s := strings.TrimSpace(form.EmotionalState); s != "" {
		add(domain.FieldEmotionalState, s)
	}

	if set != nil {
		files, rejected := set.Verify()
		if len(rejected) > 0 {
			errs := make([]error, 0, len(rejected))
			for _, r := range rejected {
				errs = append(errs, r)
			}
			return nil, fmt.Errorf("staged screenshots changed on disk: %w", errors.Join(errs...))
		}
		for _, f := range files {
			p.Screenshots = append(p.Screenshots, f)
		}
	}

	if editing {
		pending := []string{}
		if set != nil {
			pending = set.PendingDeletion()
		}
		toDelete, err := json.Marshal(pending)
		if err != nil {
			return nil, fmt.Errorf("failed to encode screenshots to delete: %w", err)
		}
		add(domain.FieldScreenshotsToDelete, string(toDelete))
	}

	return p, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
