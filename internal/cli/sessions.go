package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mnordvik/statbot/pkg/api"
)

func newSessionsCmd() *cobra.Command {
	var phase string

	cmd := &cobra.Command{
		Use:   "sessions [id]",
		Short: "List or get sessions",
		Long:  "Display one or many question-answering sessions.",
		Example: `  statbot sessions
  statbot sessions --phase Completed
  statbot sessions 3f2a1b...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				sess, err := findSession(args[0])
				if err != nil {
					return err
				}
				printOutput(sess, sessionHeaders(), sessionToRow)
				return nil
			}

			sessions, err := apiClient.ListSessions(phase)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}

			items := make([]interface{}, len(sessions))
			for i := range sessions {
				items[i] = &sessions[i]
			}
			printOutput(items, sessionHeaders(), sessionToRow)
			return nil
		},
	}

	cmd.Flags().StringVar(&phase, "phase", "", "Filter by phase (Pending, Running, Completed, Exhausted, Failed)")

	return cmd
}

func sessionHeaders() []string {
	return []string{"ID", "QUESTION", "PHASE", "ITERATIONS", "AGE"}
}

func sessionToRow(v interface{}) []string {
	sess, ok := v.(*api.Session)
	if !ok {
		return []string{"?", "?", "?", "?", "?"}
	}
	return []string{
		shortID(sess.Metadata.ID),
		truncate(sess.Spec.Question, 48),
		colorPhase(string(sess.Status.Phase)),
		strconv.Itoa(sess.Status.Iterations),
		formatAge(sess.Metadata.CreatedAt),
	}
}

// findSession resolves a full or abbreviated session id. Abbreviations must
// match exactly one session.
func findSession(idOrPrefix string) (*api.Session, error) {
	if sess, err := apiClient.GetSession(idOrPrefix); err == nil {
		return sess, nil
	}

	sessions, err := apiClient.ListSessions("")
	if err != nil {
		return nil, err
	}

	var match *api.Session
	for i := range sessions {
		if len(idOrPrefix) <= len(sessions[i].Metadata.ID) &&
			sessions[i].Metadata.ID[:len(idOrPrefix)] == idOrPrefix {
			if match != nil {
				return nil, fmt.Errorf("session id %q is ambiguous", idOrPrefix)
			}
			match = &sessions[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("session %q not found", idOrPrefix)
	}
	return match, nil
}

// shortID abbreviates a UUID to its first segment for table output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// colorPhase returns a colored string for known session phases.
func colorPhase(phase string) string {
	switch phase {
	case string(api.SessionCompleted):
		return color.GreenString(phase)
	case string(api.SessionFailed):
		return color.RedString(phase)
	case string(api.SessionRunning):
		return color.YellowString(phase)
	case string(api.SessionExhausted):
		return color.MagentaString(phase)
	case string(api.SessionPending):
		return color.WhiteString(phase)
	default:
		return phase
	}
}
