package cli

import (
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/spf13/cobra"
)

func (a *app) journalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Manage journals",
		Long: `Manage journals.

Examples:
  tj journal list
  tj journal create --name Swing --description "multi-day crypto"
  tj journal delete <journal-id>`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List journals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			journals, err := c.JournalService.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer().Journals(journals)
		},
	}

	show := &cobra.Command{
		Use:   "show <journal-id>",
		Short: "Show a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			j, err := c.JournalService.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer().Journal(j)
		},
	}

	var in domain.JournalInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			j, err := c.JournalService.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printer().Journal(j)
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "journal name")
	create.Flags().StringVar(&in.Description, "description", "", "journal description")
	_ = create.MarkFlagRequired("name")

	var update domain.JournalInput
	edit := &cobra.Command{
		Use:   "update <journal-id>",
		Short: "Rename or redescribe a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			j, err := c.JournalService.Update(cmd.Context(), args[0], update)
			if err != nil {
				return err
			}
			return a.printer().Journal(j)
		},
	}
	edit.Flags().StringVar(&update.Name, "name", "", "new name")
	edit.Flags().StringVar(&update.Description, "description", "", "new description")

	del := &cobra.Command{
		Use:   "delete <journal-id>",
		Short: "Delete a journal and all of its trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.wire()
			if err != nil {
				return err
			}
			keys, err := c.JournalService.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer().Keys("Journal "+args[0]+" deleted", keyStrings(keys))
		},
	}

	cmd.AddCommand(list, show, create, edit, del)
	return cmd
}
