// Package cli is the tj command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aristath/tradejournal/internal/di"
	"github.com/aristath/tradejournal/internal/modules/attachments"
	"github.com/aristath/tradejournal/internal/output"
	"github.com/aristath/tradejournal/internal/querycache"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Options configures the command tree
type Options struct {
	// Args defaults to os.Args[1:] when nil
	Args []string
	Out  io.Writer
	Err  io.Writer
	Wire func() (*di.Container, error)
	Now  func() time.Time
}

// app carries state shared by every command of one invocation
type app struct {
	opts      Options
	format    string
	container *di.Container
}

// New builds the root command and returns it with a function that
// releases the container. Wire is called lazily by the first command that
// needs the container, so --help and preview work offline.
func New(opts Options) (*cobra.Command, func() error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "tj",
		Short: "Trade journal client",
		Long: `tj records trades in a remote trade journal.

It provides tools for:
  - Managing journals and their trades
  - Recording trades with entry criteria and screenshots
  - Previewing the PnL of a position before saving it
  - Keeping failed submissions as drafts and retrying them later`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := output.ParseFormat(a.format)
			return err
		},
	}
	if opts.Args != nil {
		root.SetArgs(opts.Args)
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.PersistentFlags().StringVarP(&a.format, "output", "o", "table", "output format: table, json or yaml")

	root.AddCommand(a.journalCommand(), a.tradeCommand(), a.draftCommand())
	return root, a.close
}

// Execute runs the command tree and prints any error
func Execute(ctx context.Context, opts Options) error {
	root, closeApp := New(opts)
	err := root.ExecuteContext(ctx)
	if closeErr := closeApp(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return err
}

func (a *app) printer() *output.Printer {
	format, _ := output.ParseFormat(a.format)
	return output.NewPrinter(a.opts.Out, format)
}

// notices go to stderr so structured stdout stays parseable
func (a *app) notices() *output.Printer {
	return output.NewPrinter(a.opts.Err, output.FormatTable)
}

// reportRejections lists files that were not staged. A failed write does
// not stop the command.
func (a *app) reportRejections(rejected []attachments.Rejection) {
	if len(rejected) == 0 {
		return
	}
	if err := a.notices().Rejections(rejected); err != nil {
		log.Warn().Err(err).Int("rejected", len(rejected)).Msg("Failed to report rejected screenshots")
	}
}

// orStale serves the last cached value of key when refetching it failed.
// The failure is reported on stderr.
func orStale[T any](a *app, c *di.Container, key querycache.Key, v T, err error) (T, error) {
	if err == nil {
		return v, nil
	}
	last, ok := querycache.Stale[T](c.QueryCache, key)
	if !ok {
		return v, err
	}
	fmt.Fprintf(a.opts.Err, "showing cached %s: %v\n", key, err)
	return last, nil
}

func (a *app) wire() (*di.Container, error) {
	if a.container != nil {
		return a.container, nil
	}
	if a.opts.Wire == nil {
		return nil, fmt.Errorf("no dependency wiring configured")
	}
	c, err := a.opts.Wire()
	if err != nil {
		return nil, err
	}
	a.container = c
	return c, nil
}

func (a *app) close() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	return err
}
