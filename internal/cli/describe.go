package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mnordvik/statbot/pkg/api"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <session-id>",
		Short: "Show a session's full reasoning transcript",
		Long:  "Print a detailed description of a session, including every reasoning turn, in kubectl-describe style.",
		Example: `  statbot describe 3f2a1b...
  statbot describe 3f2a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := findSession(args[0])
			if err != nil {
				return err
			}
			return describeSession(sess)
		},
	}

	return cmd
}

func describeSession(sess *api.Session) error {
	bold := color.New(color.Bold)

	bold.Println("Session:")
	printField("  ID", sess.Metadata.ID)
	printField("  Created", sess.Metadata.CreatedAt.Format("2006-01-02 15:04:05"))
	printField("  Updated", sess.Metadata.UpdatedAt.Format("2006-01-02 15:04:05"))

	fmt.Println()
	bold.Println("Spec:")
	printField("  Question", sess.Spec.Question)
	if sess.Spec.Year != "" {
		printField("  Year", sess.Spec.Year)
	}
	printField("  Max Iterations", fmt.Sprintf("%d", sess.Spec.MaxIterations))

	fmt.Println()
	bold.Println("Status:")
	printField("  Phase", colorPhase(string(sess.Status.Phase)))
	if sess.Status.Model != "" {
		printField("  Model", sess.Status.Model)
	}
	printField("  Iterations", fmt.Sprintf("%d", sess.Status.Iterations))
	if !sess.Status.StartedAt.IsZero() {
		printField("  Started At", sess.Status.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if !sess.Status.FinishedAt.IsZero() {
		printField("  Finished At", sess.Status.FinishedAt.Format("2006-01-02 15:04:05"))
	}

	if len(sess.Status.Turns) > 0 {
		fmt.Println()
		bold.Println("Transcript:")
		for _, t := range sess.Status.Turns {
			fmt.Println()
			color.New(color.FgYellow).Printf("  Iteration %d", t.Index+1)
			if t.Terminal {
				fmt.Print(color.GreenString(" (final)"))
			}
			fmt.Println()
			printIndented(t.Output, "    ")
			if t.Action != nil {
				printField("    Action", fmt.Sprintf("%s(%s)", t.Action.Tool, strings.Join(t.Action.Args, ", ")))
			}
			if t.Observation != "" {
				printField("    Observation", truncate(t.Observation, 120))
			}
		}
	}

	if sess.Status.Answer != "" {
		fmt.Println()
		bold.Println("Answer:")
		fmt.Println(sess.Status.Answer)
	}
	if sess.Status.Error != "" {
		fmt.Println()
		bold.Println("Error:")
		fmt.Println(color.RedString(sess.Status.Error))
	}

	return nil
}

// --- Helpers ---

func printField(label, value string) {
	if value == "" {
		value = "<none>"
	}
	fmt.Printf("%-24s%s\n", label+":", value)
}

func printIndented(text, prefix string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fmt.Println(prefix + line)
	}
}
