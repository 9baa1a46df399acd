package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wolfmind/internal/config"
	"wolfmind/internal/logging"
)

var (
	verbose    bool
	configPath string
	workspace  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wolfmind",
	Short: "wolfMIND - belief and validation engine for LLM werewolf agents",
	Long: `wolfMIND maintains per-player beliefs (trust, identity posteriors,
deception profiles) over a werewolf game's event log, assembles strategic
context for generation requests, and validates decisions before they enter
the game.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return logging.Initialize(workspace, verbose || cfg.Logging.DebugMode, cfg.Logging.Level, cfg.Logging.Categories)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to wolfmind.yaml")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "Workspace directory for logs and the audit store")

	rootCmd.AddCommand(simulateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
