package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <session-id>",
		Short:   "Delete a session",
		Long:    "Delete a session by id. Running sessions finish in the background but their result is discarded.",
		Example: `  statbot delete 3f2a1b...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := findSession(args[0])
			if err != nil {
				return err
			}
			if err := apiClient.DeleteSession(sess.Metadata.ID); err != nil {
				return err
			}
			fmt.Printf("session %s deleted\n", sess.Metadata.ID)
			return nil
		},
	}

	return cmd
}
