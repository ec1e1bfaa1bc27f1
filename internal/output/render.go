package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/attachments"
	"github.com/aristath/tradejournal/internal/modules/drafts"
	"github.com/aristath/tradejournal/pkg/formulas"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04"

// Journals renders the journal list
func (p *Printer) Journals(journals []domain.Journal) error {
	return p.Render(journals, func(t *Table) {
		t.Row("ID", "NAME", "TRADES", "CREATED")
		for _, j := range journals {
			count := "-"
			if j.TradesCount != nil {
				count = strconv.Itoa(*j.TradesCount)
			}
			t.Row(j.ID, j.Name, count, stamp(j.CreatedAt))
		}
	})
}

// Journal renders one journal
func (p *Printer) Journal(j *domain.Journal) error {
	return p.Render(j, func(t *Table) {
		t.Field("ID", j.ID)
		t.Field("Name", j.Name)
		if j.Description != "" {
			t.Field("Description", j.Description)
		}
		t.Field("Created", stamp(j.CreatedAt))
	})
}

// Trades renders a trade list
func (p *Printer) Trades(trades []domain.Trade) error {
	return p.Render(trades, func(t *Table) {
		t.Row("ID", "SYMBOL", "SIDE", "STATUS", "OPENED", "ENTRY", "EXIT", "SIZE", "LEV", "PNL")
		for _, tr := range trades {
			t.Row(tr.ID, tr.Symbol, string(tr.Side), string(tr.Status), stamp(tr.OpenedAt),
				price(tr.EntryPrice), optPrice(tr.ExitPrice), money(tr.PositionSizeUSDT),
				leverage(tr.Leverage), pnl(tr))
		}
	})
}

// Trade renders one trade; urlOf turns a screenshot path into a link
func (p *Printer) Trade(tr *domain.Trade, urlOf func(string) string) error {
	return p.Render(tr, func(t *Table) {
		t.Field("ID", tr.ID)
		t.Field("Journal", tr.JournalID)
		t.Field("Symbol", tr.Symbol)
		t.Field("Side", string(tr.Side))
		t.Field("Status", string(tr.Status))
		t.Field("Opened", stamp(tr.OpenedAt))
		if tr.ClosedAt != nil {
			t.Field("Closed", stamp(*tr.ClosedAt))
		}
		t.Field("Entry", price(tr.EntryPrice))
		t.Field("Exit", optPrice(tr.ExitPrice))
		t.Field("Size", money(tr.PositionSizeUSDT)+" USDT")
		t.Field("Leverage", leverage(tr.Leverage))
		if tr.StopLossPrice != nil {
			t.Field("Stop loss", price(*tr.StopLossPrice))
		}
		if tr.TakeProfitPrice != nil {
			t.Field("Take profit", price(*tr.TakeProfitPrice))
		}
		t.Field("Fee", money(tr.FeeUSDT)+" USDT")
		t.Field("PnL", pnl(*tr))
		if tr.EmotionalState != "" {
			t.Field("Emotion", tr.EmotionalState)
		}
		if tr.Description != "" {
			t.Field("Description", tr.Description)
		}
		for i, c := range tr.EntryCriteria {
			label := ""
			if i == 0 {
				label = "Criteria"
			}
			text := fmt.Sprintf("%s (%d/10)", c.Name, c.Score)
			if c.Comment != "" {
				text += " - " + c.Comment
			}
			t.Field(label, text)
		}
		for i, path := range tr.ScreenshotPaths {
			label := ""
			if i == 0 {
				label = "Screenshots"
			}
			if urlOf != nil {
				path = urlOf(path)
			}
			t.Field(label, path)
		}
	})
}

// Stats renders journal statistics
func (p *Printer) Stats(journalID string, s *domain.JournalStats) error {
	return p.Render(s, func(t *Table) {
		t.Field("Journal", journalID)
		t.Field("Trades", fmt.Sprintf("%d (%d won, %d lost)", s.TotalTrades, s.WinningTrades, s.LosingTrades))
		t.Field("Win rate", decimal.NewFromFloat(s.WinRate).StringFixed(2)+"%")
		t.Field("Total PnL", money(s.TotalPnLUSDT)+" USDT")
		t.Field("Average win", money(s.AverageWin))
		t.Field("Average loss", money(s.AverageLoss))
		t.Field("Profit factor", decimal.NewFromFloat(s.ProfitFactor).StringFixed(2))
		t.Field("Max drawdown", money(s.MaxDrawdown))
		t.Field("Best / worst", money(s.BestTrade)+" / "+money(s.WorstTrade))
	})
}

type previewView struct {
	Available bool    `json:"available"`
	PnLUSDT   float64 `json:"pnl_usdt,omitempty"`
	PnLPct    float64 `json:"pnl_percent,omitempty"`
}

// Preview renders the advisory PnL of a form
func (p *Printer) Preview(v formulas.PnL, ok bool) error {
	view := previewView{Available: ok}
	if ok {
		abs, pct := v.Rounded()
		view.PnLUSDT = abs.InexactFloat64()
		view.PnLPct = pct.InexactFloat64()
	}
	return p.Render(view, func(t *Table) {
		if !ok {
			t.Line("PnL preview unavailable: entry, exit and size are required")
			return
		}
		result := "loss"
		if v.IsProfit() {
			result = "profit"
		}
		t.Field("PnL preview", v.String())
		t.Field("Result", result)
	})
}

// Keys renders the cache keys a mutation invalidated
func (p *Printer) Keys(action string, keys []string) error {
	view := struct {
		Action      string   `json:"action"`
		Invalidated []string `json:"invalidated"`
	}{action, keys}
	return p.Render(view, func(t *Table) {
		t.Line(action)
		if len(keys) > 0 {
			t.Field("Invalidated", strings.Join(keys, ", "))
		}
	})
}

type draftView struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	JournalID   string    `json:"journal_id"`
	TradeID     string    `json:"trade_id,omitempty"`
	Symbol      string    `json:"symbol"`
	StagedFiles []string  `json:"staged_files,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func viewOf(d drafts.Draft) draftView {
	return draftView{
		ID:          d.ID,
		SessionID:   d.SessionID,
		JournalID:   d.JournalID,
		TradeID:     d.TradeID,
		Symbol:      d.Form.Symbol,
		StagedFiles: d.StagedPaths,
		LastError:   d.LastError,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Drafts renders saved drafts; now anchors the relative ages
func (p *Printer) Drafts(list []drafts.Draft, now time.Time) error {
	views := make([]draftView, 0, len(list))
	for _, d := range list {
		views = append(views, viewOf(d))
	}
	return p.Render(views, func(t *Table) {
		t.Row("ID", "JOURNAL", "TRADE", "SYMBOL", "UPDATED", "ERROR")
		for _, v := range views {
			trade := v.TradeID
			if trade == "" {
				trade = "(new)"
			}
			t.Row(v.ID, v.JournalID, trade, v.Symbol, humanize.RelTime(v.UpdatedAt, now, "ago", "from now"), v.LastError)
		}
	})
}

// Draft renders one draft
func (p *Printer) Draft(d *drafts.Draft) error {
	v := viewOf(*d)
	return p.Render(v, func(t *Table) {
		t.Field("ID", v.ID)
		t.Field("Journal", v.JournalID)
		if v.TradeID != "" {
			t.Field("Trade", v.TradeID)
		}
		t.Field("Symbol", v.Symbol)
		t.Field("Side", d.Form.Side)
		t.Field("Status", d.Form.Status)
		t.Field("Entry", price(d.Form.EntryPrice))
		t.Field("Exit", optPrice(d.Form.ExitPrice))
		t.Field("Size", money(d.Form.PositionSizeUSDT)+" USDT")
		for _, path := range v.StagedFiles {
			t.Field("Staged", path)
		}
		for _, path := range d.PendingDeletion {
			t.Field("Removing", path)
		}
		if v.LastError != "" {
			t.Field("Last error", v.LastError)
		}
		t.Field("Updated", v.UpdatedAt.Local().Format(timeLayout))
	})
}

// Rejections renders files that were not staged
func (p *Printer) Rejections(rejected []attachments.Rejection) error {
	type view struct {
		File   string `json:"file"`
		Reason string `json:"reason"`
		Detail string `json:"detail"`
	}
	views := make([]view, 0, len(rejected))
	for _, r := range rejected {
		views = append(views, view{File: r.File, Reason: string(r.Reason), Detail: r.Detail})
	}
	return p.Render(views, func(t *Table) {
		for _, v := range views {
			t.Line("skipped " + v.File + ": " + v.Detail)
		}
	})
}

func stamp(ts domain.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Time.Local().Format(timeLayout)
}

func price(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return price(*v)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func leverage(v float64) string {
	return price(v) + "x"
}

func pnl(tr domain.Trade) string {
	if tr.Status != domain.TradeStatusClosed {
		return "-"
	}
	return fmt.Sprintf("%s (%s%%)", money(tr.PnLUSDT), decimal.NewFromFloat(tr.PnLPercent).StringFixed(2))
}
