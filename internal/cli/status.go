package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mnordvik/statbot/pkg/api"
)

func newStatusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long:  "Display an overview of the statbot server and its sessions.",
		Example: `  statbot status
  statbot status --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return statusWatch()
			}
			return statusPrint()
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Continuously refresh (every 5 seconds)")

	return cmd
}

func statusPrint() error {
	// Check server health first.
	if err := apiClient.Healthz(); err != nil {
		color.Red("Statbot Server: UNREACHABLE")
		return fmt.Errorf("cannot reach server: %w", err)
	}

	bold := color.New(color.FgCyan, color.Bold)
	bold.Println("Statbot Server Status")
	fmt.Println("=====================")
	fmt.Println()

	sessions, err := apiClient.ListSessions("")
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	var pending, running, completed, exhausted, failed int
	for _, sess := range sessions {
		switch sess.Status.Phase {
		case api.SessionPending:
			pending++
		case api.SessionRunning:
			running++
		case api.SessionCompleted:
			completed++
		case api.SessionExhausted:
			exhausted++
		case api.SessionFailed:
			failed++
		}
	}

	fmt.Printf("Sessions: %d total", len(sessions))
	if len(sessions) > 0 {
		parts := []string{}
		if pending > 0 {
			parts = append(parts, fmt.Sprintf("%d pending", pending))
		}
		if running > 0 {
			parts = append(parts, color.YellowString("%d running", running))
		}
		if completed > 0 {
			parts = append(parts, color.GreenString("%d completed", completed))
		}
		if exhausted > 0 {
			parts = append(parts, color.MagentaString("%d exhausted", exhausted))
		}
		if failed > 0 {
			parts = append(parts, color.RedString("%d failed", failed))
		}
		fmt.Print(" (")
		for i, p := range parts {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(p)
		}
		fmt.Print(")")
	}
	fmt.Println()

	return nil
}

func statusWatch() error {
	fmt.Println("Watching status (Ctrl+C to stop)...")
	fmt.Println()

	for {
		// Clear screen with ANSI escape.
		fmt.Print("\033[2J\033[H")

		if err := statusPrint(); err != nil {
			fmt.Printf("\nError: %v\n", err)
		}

		fmt.Printf("\nLast updated: %s\n", time.Now().Format("15:04:05"))
		time.Sleep(5 * time.Second)
	}
}
