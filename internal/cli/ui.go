package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnordvik/statbot/internal/tui"
)

func newUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"watch", "dashboard"},
		Short:   "Launch the interactive session dashboard",
		Long:    "Launch a terminal UI that watches sessions and shows their reasoning transcripts.",
		Example: `  statbot ui
  statbot ui --server http://127.0.0.1:7411`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := tui.NewApp(serverAddr)
			if err := app.Run(); err != nil {
				return fmt.Errorf("UI error: %w", err)
			}
			return nil
		},
	}

	return cmd
}
