package commands

import (
	"github.com/spf13/cobra"

	"github.com/windguard/edgeprov/cmd/edgeprov/handlers"
)

// Journal returns the command group for inspecting run journals.
func Journal(opts *handlers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect run journals",
	}
	cmd.AddCommand(journalShow(opts))
	cmd.AddCommand(journalList(opts))
	return cmd
}

func journalShow(opts *handlers.Options) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "show FILE|KEY",
		Short: "Reconstruct the runs recorded in a journal",
		Long: `Reconstruct the runs recorded in a journal, including runs that were
interrupted before they finished.

With --remote the argument is an object key in the journal bucket.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.JournalShow(cmd.Context(), *opts, args[0], remote)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Read the journal from the configured bucket")

	return cmd
}

func journalList(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list [COMMAND]",
		Short: "List journals stored in the configured bucket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := ""
			if len(args) == 1 {
				command = args[0]
			}
			return handlers.JournalList(cmd.Context(), *opts, command)
		},
	}
}
