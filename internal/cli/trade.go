package cli

import (
	"errors"
	"fmt"

	"github.com/aristath/tradejournal/internal/di"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/trades"
	"github.com/aristath/tradejournal/internal/querycache"
	"github.com/aristath/tradejournal/pkg/formulas"
	"github.com/spf13/cobra"
)

func (a *app) tradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record and inspect trades",
		Long: `Record and inspect trades.

Examples:
  tj trade create <journal-id> --symbol BTCUSDT --entry 60000 --size 1000 --screenshot chart.png
  tj trade edit <trade-id> --status closed --exit 63000 --closed-at "2024-03-02 18:00"
  tj trade list <journal-id> --status open
  tj trade preview --side short --entry 100 --exit 90 --size 500 --leverage 3`,
	}
	cmd.AddCommand(
		a.tradeListCommand(),
		a.tradeShowCommand(),
		a.tradeStatsCommand(),
		a.tradeCreateCommand(),
		a.tradeEditCommand(),
		a.tradeDeleteCommand(),
		a.tradePreviewCommand(),
	)
	return cmd
}

func (a *app) tradeListCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list <journal-id>",
		Short: "List the trades of a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := domain.ParseTradeStatus(status)
			if err != nil {
				return err
			}
			c, err := a.wire()
			if err != nil {
				return err
			}
			list, err := c.TradeService.List(cmd.Context(), args[0], filter)
			list, err = orStale(a, c, querycache.TradesList(args[0], filter), list, err)
			if err != nil {
				return err
			}
			return a.printer().Trades(list)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only trades with this status")
	return cmd
}

func (a *app) tradeShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			trade, err := c.TradeService.Get(cmd.Context(), args[0])
			trade, err = orStale(a, c, querycache.TradeDetail(args[0]), trade, err)
			if err != nil {
				return err
			}
			return a.printer().Trade(trade, c.APIClient.UploadURL)
		},
	}
}

func (a *app) tradeStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <journal-id>",
		Short: "Show the statistics of a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			stats, err := c.TradeService.Stats(cmd.Context(), args[0])
			stats, err = orStale(a, c, querycache.TradeStats(args[0]), stats, err)
			if err != nil {
				return err
			}
			return a.printer().Stats(args[0], stats)
		},
	}
}

func (a *app) tradeCreateCommand() *cobra.Command {
	var tf tradeFlags
	cmd := &cobra.Command{
		Use:   "create <journal-id>",
		Short: "Record a new trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			session := c.TradeService.NewSession(args[0])
			if err := tf.apply(cmd, session.Form()); err != nil {
				return err
			}
			a.reportRejections(tf.stage(session.Attachments()))
			return a.submit(cmd, c, session)
		},
	}
	tf.register(cmd, false)
	return cmd
}

func (a *app) tradeEditCommand() *cobra.Command {
	var tf tradeFlags
	cmd := &cobra.Command{
		Use:   "edit <trade-id>",
		Short: "Change a trade and its screenshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			session, err := c.TradeService.EditSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := tf.apply(cmd, session.Form()); err != nil {
				return err
			}

			set := session.Attachments()
			for _, path := range tf.remove {
				if !set.IsPersisted(path) {
					fmt.Fprintf(a.opts.Err, "ignoring --remove-screenshot %s: not attached to trade %s\n", path, args[0])
				}
			}
			set.MarkForDeletion(tf.remove...)
			a.reportRejections(tf.stage(set))
			return a.submit(cmd, c, session)
		},
	}
	tf.register(cmd, true)
	return cmd
}

// submit sends the session once. A transport failure keeps the session as
// a draft so nothing has to be typed again.
func (a *app) submit(cmd *cobra.Command, c *di.Container, session *trades.Session) error {
	trade, err := session.Submit(cmd.Context())
	if err == nil {
		return a.printer().Trade(trade, c.APIClient.UploadURL)
	}

	var verr *trades.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fmt.Fprintf(a.opts.Err, "  %s %s\n", f.Field, f.Message)
		}
		return err
	}

	if errors.Is(err, trades.ErrTransportFailed) {
		d, dropped, saveErr := c.TradeService.SaveDraft(session, err)
		if saveErr != nil {
			return fmt.Errorf("%w (draft not saved: %v)", err, saveErr)
		}
		fmt.Fprintf(a.opts.Err, "Saved draft %s; retry with: tj draft retry %s\n", d.ID, d.ID)
		if dropped > 0 {
			fmt.Fprintf(a.opts.Err, "%d attachment(s) without a file on disk were not kept\n", dropped)
		}
	}
	return err
}

func (a *app) tradeDeleteCommand() *cobra.Command {
	var journalID string
	cmd := &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Delete a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			keys, err := c.TradeService.Delete(cmd.Context(), args[0], journalID)
			if err != nil {
				return err
			}
			return a.printer().Keys("Trade "+args[0]+" deleted", keyStrings(keys))
		},
	}
	cmd.Flags().StringVar(&journalID, "journal", "", "journal of the trade (looked up when omitted)")
	return cmd
}

func (a *app) tradePreviewCommand() *cobra.Command {
	var (
		side                        string
		entry, exit, size, leverage float64
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the PnL of a position",
		Long: `Preview the PnL of a position.

The preview is advisory: fees are not included and the server computes the
recorded PnL itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := domain.ParseTradeSide(side)
			if err != nil {
				return err
			}
			pnl, ok := formulas.PnLPreview(formulas.Side(s), entry, exit, size, leverage)
			return a.printer().Preview(pnl, ok)
		},
	}
	cmd.Flags().StringVar(&side, "side", "long", "long or short")
	cmd.Flags().Float64Var(&entry, "entry", 0, "entry price")
	cmd.Flags().Float64Var(&exit, "exit", 0, "exit price")
	cmd.Flags().Float64Var(&size, "size", 0, "position size in USDT")
	cmd.Flags().Float64Var(&leverage, "leverage", 1, "leverage multiplier")
	return cmd
}

func keyStrings(keys []querycache.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}
