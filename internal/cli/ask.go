package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/agent"
	"github.com/mnordvik/statbot/internal/llm"
	"github.com/mnordvik/statbot/internal/ssb"
	"github.com/mnordvik/statbot/internal/tools"
	"github.com/mnordvik/statbot/pkg/api"
)

func newAskCmd() *cobra.Command {
	var (
		year          string
		maxIterations int
		remote        bool
		showReasoning bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about Norwegian household spending",
		Long: `Run the reasoning loop for a single question and print the answer.

By default the loop runs in-process against a local model. With --remote
the question is submitted to a statbot server instead.`,
		Example: `  statbot ask "How much do Norwegians spend on housing?"
  statbot ask --year 2012 "Compare food and transport spending"
  statbot ask --remote "What is the total household spending?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			if remote {
				return askRemote(question, year, maxIterations, showReasoning)
			}
			return askLocal(question, year, maxIterations, showReasoning)
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "Survey year to query (default from config)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Reasoning iteration cap (default from config)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Submit to a statbot server instead of running locally")
	cmd.Flags().BoolVar(&showReasoning, "show-reasoning", false, "Print the full reasoning transcript")

	return cmd
}

// askLocal runs the whole reasoning stack in-process.
func askLocal(question, year string, maxIterations int, showReasoning bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if year == "" {
		year = cfg.SSB.DefaultYear
	}
	if maxIterations <= 0 {
		maxIterations = cfg.Agent.MaxIterations
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	// Prefer the on-disk response cache; fall back to in-memory when the
	// file is locked by a running server.
	var cache ssb.Cache
	if boltCache, err := ssb.NewBoltCache(cfg.CachePath()); err == nil {
		defer boltCache.Close()
		cache = boltCache
	} else {
		logger.Debug("response cache unavailable, using memory", zap.Error(err))
		cache = ssb.NewMemoryCache()
	}

	ssbClient := ssb.NewClient(cfg.SSB.BaseURL, cfg.SSB.TableID, cache, logger)
	registry := agent.NewRegistry()
	if err := tools.NewToolset(ssbClient, logger).Register(registry, year); err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	model, err := llm.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}

	invoker := agent.NewInvoker(registry, cfg.Agent.ToolTimeout(), logger)
	loop := agent.NewLoop(model, invoker, maxIterations, logger)

	fmt.Printf("Thinking with %s...\n\n", model.Label())

	result, err := loop.Run(context.Background(), question)
	if err != nil {
		return err
	}

	if showReasoning {
		printAgentTranscript(result.Turns)
	}
	printAnswer(result.Answer, result.Iterations)
	return nil
}

// askRemote submits the question to a statbot server and waits for the
// session to finish.
func askRemote(question, year string, maxIterations int, showReasoning bool) error {
	sess, err := apiClient.CreateSession(api.SessionSpec{
		Question:      question,
		Year:          year,
		MaxIterations: maxIterations,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	fmt.Printf("Session %s created. Waiting for the answer...\n", sess.Metadata.ID)

	done, err := apiClient.WaitForSession(sess.Metadata.ID, 500*time.Millisecond, 5*time.Minute)
	if err != nil {
		return err
	}

	if done.Status.Phase == api.SessionFailed {
		fmt.Println()
		color.New(color.FgRed, color.Bold).Println("Session Failed")
		fmt.Println(strings.Repeat("-", 60))
		fmt.Println(done.Status.Error)
		return fmt.Errorf("session %s failed", done.Metadata.ID)
	}

	if showReasoning {
		printSessionTranscript(done.Status.Turns)
	}
	printAnswer(done.Status.Answer, done.Status.Iterations)
	return nil
}

func printAnswer(answer string, iterations int) {
	fmt.Println()
	color.New(color.FgGreen, color.Bold).Println("Answer")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println(answer)
	fmt.Println()
	fmt.Printf("(%d iteration(s))\n", iterations)
}

func printAgentTranscript(turns []agent.Turn) {
	heading := color.New(color.FgYellow, color.Bold)
	for _, t := range turns {
		heading.Printf("--- Iteration %d ---\n", t.Index+1)
		fmt.Println(strings.TrimSpace(t.Output))
		if t.Observation != "" {
			fmt.Printf("OBSERVATION: %s\n", t.Observation)
		}
		fmt.Println()
	}
}

func printSessionTranscript(turns []api.Turn) {
	heading := color.New(color.FgYellow, color.Bold)
	for _, t := range turns {
		heading.Printf("--- Iteration %d ---\n", t.Index+1)
		fmt.Println(strings.TrimSpace(t.Output))
		if t.Observation != "" {
			fmt.Printf("OBSERVATION: %s\n", t.Observation)
		}
		fmt.Println()
	}
}
