package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/attachments"
	"github.com/aristath/tradejournal/internal/modules/trades"
	"github.com/spf13/cobra"
)

// tradeFlags are the form fields settable from the command line. Only
// flags the user actually passed are applied to a form.
type tradeFlags struct {
	symbol      string
	side        string
	status      string
	openedAt    string
	closedAt    string
	entry       float64
	exit        float64
	size        float64
	leverage    float64
	stopLoss    float64
	takeProfit  float64
	fee         float64
	description string
	emotion     string
	criteria    []string
	screenshots []string
	remove      []string
}

func (tf *tradeFlags) register(cmd *cobra.Command, editing bool) {
	fs := cmd.Flags()
	fs.StringVar(&tf.symbol, "symbol", "", "instrument, e.g. BTCUSDT")
	fs.StringVar(&tf.side, "side", "", "long or short")
	fs.StringVar(&tf.status, "status", "", "open, closed or canceled")
	fs.StringVar(&tf.openedAt, "opened-at", "", `open time, RFC 3339 or "2006-01-02 15:04" (UTC)`)
	fs.StringVar(&tf.closedAt, "closed-at", "", "close time, same formats as --opened-at")
	fs.Float64Var(&tf.entry, "entry", 0, "entry price")
	fs.Float64Var(&tf.exit, "exit", 0, "exit price")
	fs.Float64Var(&tf.size, "size", 0, "position size in USDT")
	fs.Float64Var(&tf.leverage, "leverage", 0, "leverage multiplier")
	fs.Float64Var(&tf.stopLoss, "stop-loss", 0, "stop loss price")
	fs.Float64Var(&tf.takeProfit, "take-profit", 0, "take profit price")
	fs.Float64Var(&tf.fee, "fee", 0, "fees in USDT")
	fs.StringVar(&tf.description, "description", "", "free-form notes")
	fs.StringVar(&tf.emotion, "emotion", "", "emotional state")
	fs.StringArrayVar(&tf.criteria, "criterion", nil, `entry criterion "name:score[:comment]" (repeatable; replaces existing criteria)`)
	fs.StringArrayVar(&tf.screenshots, "screenshot", nil, "image file to attach (repeatable)")
	if editing {
		fs.StringArrayVar(&tf.remove, "remove-screenshot", nil, "stored screenshot path to remove (repeatable)")
	}
}

// apply copies the passed flags onto f
func (tf *tradeFlags) apply(cmd *cobra.Command, f *trades.Form) error {
	changed := cmd.Flags().Changed

	if changed("symbol") {
		f.Symbol = strings.ToUpper(strings.TrimSpace(tf.symbol))
	}
	if changed("side") {
		side, err := domain.ParseTradeSide(tf.side)
		if err != nil {
			return err
		}
		f.Side = side
	}
	if changed("status") {
		status, err := domain.ParseTradeStatus(tf.status)
		if err != nil {
			return err
		}
		f.Status = status
	}
	if changed("opened-at") {
		t, err := parseTime(tf.openedAt)
		if err != nil {
			return fmt.Errorf("--opened-at: %w", err)
		}
		f.OpenedAt = t
	}
	if changed("closed-at") {
		t, err := parseTime(tf.closedAt)
		if err != nil {
			return fmt.Errorf("--closed-at: %w", err)
		}
		f.ClosedAt = &t
	}
	if changed("entry") {
		f.EntryPrice = tf.entry
	}
	if changed("exit") {
		f.ExitPrice = trades.Float(tf.exit)
	}
	if changed("size") {
		f.PositionSizeUSDT = tf.size
	}
	if changed("leverage") {
		f.Leverage = tf.leverage
	}
	if changed("stop-loss") {
		f.StopLossPrice = trades.Float(tf.stopLoss)
	}
	if changed("take-profit") {
		f.TakeProfitPrice = trades.Float(tf.takeProfit)
	}
	if changed("fee") {
		f.FeeUSDT = tf.fee
	}
	if changed("description") {
		f.Description = tf.description
	}
	if changed("emotion") {
		f.EmotionalState = tf.emotion
	}
	if changed("criterion") {
		items := make([]domain.EntryCriterion, 0, len(tf.criteria))
		for _, raw := range tf.criteria {
			c, err := parseCriterion(raw)
			if err != nil {
				return err
			}
			items = append(items, c)
		}
		f.Criteria = trades.NewCriteria(items...)
	}
	return nil
}

// stage loads the --screenshot files into set and returns the ones that
// were skipped
func (tf *tradeFlags) stage(set *attachments.Set) []attachments.Rejection {
	var rejected []attachments.Rejection
	for _, path := range tf.screenshots {
		file, err := attachments.FileFromPath(path)
		if err != nil {
			rejected = append(rejected, attachments.Rejection{File: path, Reason: attachments.ReasonMissing, Detail: err.Error()})
			continue
		}
		rejected = append(rejected, set.Stage(file)...)
	}
	return rejected
}

// parseCriterion reads "name:score[:comment]"
func parseCriterion(raw string) (domain.EntryCriterion, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return domain.EntryCriterion{}, fmt.Errorf("criterion %q: want name:score[:comment]", raw)
	}
	score, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.EntryCriterion{}, fmt.Errorf("criterion %q: score must be a whole number", raw)
	}
	c := domain.EntryCriterion{Name: strings.TrimSpace(parts[0]), Score: score}
	if len(parts) == 3 {
		c.Comment = strings.TrimSpace(parts[2])
	}
	return c, nil
}

func parseTime(s string) (time.Time, error) {
	if ts, err := domain.ParseTimestamp(s); err == nil {
		return ts.Time, nil
	}
	t, err := time.Parse("2006-01-02 15:04", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return t.UTC(), nil
}
