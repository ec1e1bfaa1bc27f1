package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) draftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect and retry trades that failed to save",
	}

	var journalID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List drafts, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			drafts, err := c.DraftRepo.List(journalID)
			if err != nil {
				return err
			}
			return a.printer().Drafts(drafts, a.opts.Now())
		},
	}
	list.Flags().StringVar(&journalID, "journal", "", "only drafts of this journal")

	show := &cobra.Command{
		Use:   "show <draft-id>",
		Short: "Show a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			d, err := c.DraftRepo.Get(args[0])
			if err != nil {
				return err
			}
			return a.printer().Draft(d)
		},
	}

	retry := &cobra.Command{
		Use:   "retry <draft-id>",
		Short: "Submit a draft again",
		Long: `Submit a draft again.

On success the draft is removed. On another transport failure it is kept
with the new error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			d, err := c.DraftRepo.Get(args[0])
			if err != nil {
				return err
			}
			session, rejected := c.TradeService.RestoreSession(d)
			a.reportRejections(rejected)
			return a.submit(cmd, c, session)
		},
	}

	discard := &cobra.Command{
		Use:   "discard <draft-id>",
		Short: "Delete a draft without submitting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			if err := c.DraftRepo.Delete(args[0]); err != nil {
				return err
			}
			return a.printer().Message(map[string]string{"discarded": args[0]}, "Draft %s discarded", args[0])
		},
	}

	cmd.AddCommand(list, show, retry, discard)
	return cmd
}

