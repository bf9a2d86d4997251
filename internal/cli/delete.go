package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Where string
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "delete --where <predicate>",
		Short:         "Delete matched rows from the store and the cache",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Where, "where", "", "predicate selecting the rows to delete")
	cmd.MarkFlagRequired("where")

	return cmd
}

func runDelete(cmd *cobra.Command, opts *DeleteOptions) error {
	m, _, closeStore, err := openMirror(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := m.ConditionalDelete(cmd.Context(), opts.Where); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "deleted")
	return nil
}
