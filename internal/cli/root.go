// Package cli implements the statbot command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/config"
	"github.com/mnordvik/statbot/pkg/client"
)

var (
	serverAddr string
	configPath string
	apiClient  *client.Client
)

// NewRootCmd creates the top-level statbot CLI command with all subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statbot",
		Short: "Ask questions about Norwegian household spending",
		Long: `Statbot answers natural-language questions about Norwegian household
spending using Statistics Norway's Household Budget Survey. A language
model reasons step by step and calls statistics tools until it reaches
an answer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Skip client init for commands that don't need the API server.
			if cmd.Name() == "serve" {
				return
			}
			apiClient = client.New(serverAddr)
		},
	}

	cmd.PersistentFlags().StringVar(&serverAddr, "server", "http://127.0.0.1:7411", "statbot server address")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json|yaml")

	cmd.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newSessionsCmd(),
		newDescribeCmd(),
		newDeleteCmd(),
		newCategoriesCmd(),
		newStatusCmd(),
		newUICmd(),
		newVersionCmd(),
	)

	return cmd
}

// loadConfig reads the --config file (or defaults when the flag is unset).
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a zap logger per the log config.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Log.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zcfg.Level = level

	return zcfg.Build()
}
