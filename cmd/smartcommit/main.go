package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smartcommit/internal/config"
	"smartcommit/internal/logging"
)

var (
	// Global flags
	workspace string
	scopeSpec string
	verbose   bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "smartcommit",
	Short: "Group uncommitted changes into conventional commits",
	Long: `smartcommit scans your working tree, groups related changes into
conventional-commit-shaped groups (model-assisted when an API key is
configured, deterministic heuristics otherwise), and applies them as real
commits.

Typical flow:
  smartcommit generate          # build and save a plan
  smartcommit plan show         # inspect it
  smartcommit apply             # commit each group
  smartcommit push              # push what was committed`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(workspace)
		if err != nil {
			return fmt.Errorf("resolve workspace: %w", err)
		}
		workspace = abs

		cfg, err = config.Load(workspace)
		if err != nil {
			return err
		}
		logger, err = logging.New(verbose || cfg.Logging.Verbose)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace root")
	rootCmd.PersistentFlags().StringVarP(&scopeSpec, "scope", "s", "", "limit to a path, directory, or glob")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(planCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
