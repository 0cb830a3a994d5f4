package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/agent"
	"github.com/mnordvik/statbot/internal/apiserver"
	"github.com/mnordvik/statbot/internal/config"
	"github.com/mnordvik/statbot/internal/llm"
	"github.com/mnordvik/statbot/internal/runner"
	"github.com/mnordvik/statbot/internal/session"
	"github.com/mnordvik/statbot/internal/ssb"
	"github.com/mnordvik/statbot/internal/tools"
	"github.com/mnordvik/statbot/pkg/api"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		host    string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the statbot server",
		Long:  "Start the statbot API server and the session runner.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// 1. Build configuration with CLI overrides.
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.Store.DataDir = dataDir
			}

			// 2. Create logger.
			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()

			// 3. Ensure data directory exists and open the session store.
			if err := os.MkdirAll(cfg.Store.DataDir, 0755); err != nil {
				return fmt.Errorf("creating data directory %s: %w", cfg.Store.DataDir, err)
			}

			sessionStore, err := session.NewBoltStore(cfg.DBPath())
			if err != nil {
				return fmt.Errorf("opening session store at %s: %w", cfg.DBPath(), err)
			}
			defer sessionStore.Close()

			// 4. Build the statistics toolchain.
			cache, err := ssb.NewBoltCache(cfg.CachePath())
			if err != nil {
				return fmt.Errorf("opening response cache at %s: %w", cfg.CachePath(), err)
			}
			defer cache.Close()

			ssbClient := ssb.NewClient(cfg.SSB.BaseURL, cfg.SSB.TableID, cache, logger)
			toolset := tools.NewToolset(ssbClient, logger)

			// 5. Create the model client.
			model, err := llm.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating model client: %w", err)
			}

			// 6. Start the session runner.
			answerer := newAnswerer(cfg, toolset, model, logger)
			run := runner.New(sessionStore, answerer, cfg.Agent.Workers, logger)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			run.Start(ctx)

			// 7. Create and start the API server.
			addr := cfg.ServerAddress()
			apiSrv := apiserver.NewServer(addr, sessionStore, logger)

			banner := color.New(color.FgCyan, color.Bold)
			banner.Println("Statbot Server")
			fmt.Printf("   API Server: http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
			fmt.Printf("   Data Dir:   %s\n", cfg.Store.DataDir)
			fmt.Printf("   Model:      %s\n", model.Label())
			fmt.Println()

			errCh := make(chan error, 1)
			go func() {
				if err := apiSrv.Start(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			// 8. Wait for interrupt signal for graceful shutdown.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			case err := <-errCh:
				logger.Error("API server error", zap.Error(err))
				run.Stop()
				return err
			}

			fmt.Println()
			logger.Info("shutting down gracefully...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			run.Stop()

			if err := apiSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("API server shutdown error", zap.Error(err))
			}

			logger.Info("statbot server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 7411, "API server port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "API server host")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.statbot/data)")

	return cmd
}

// newAnswerer builds the per-session reasoning stack. The registry is rebuilt
// for each session so a session-specific default year takes effect.
func newAnswerer(cfg *config.Config, toolset *tools.Toolset, model llm.Client, logger *zap.Logger) runner.Answerer {
	return runner.AnswerFunc(func(ctx context.Context, spec api.SessionSpec) (*agent.Result, error) {
		year := spec.Year
		if year == "" {
			year = cfg.SSB.DefaultYear
		}

		registry := agent.NewRegistry()
		if err := toolset.Register(registry, year); err != nil {
			return nil, fmt.Errorf("registering tools: %w", err)
		}

		maxIterations := spec.MaxIterations
		if maxIterations <= 0 {
			maxIterations = cfg.Agent.MaxIterations
		}

		invoker := agent.NewInvoker(registry, cfg.Agent.ToolTimeout(), logger)
		loop := agent.NewLoop(model, invoker, maxIterations, logger)
		return loop.Run(ctx, spec.Question)
	})
}
