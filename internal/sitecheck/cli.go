package sitecheck

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/dingerzone/pkg/logger"
)

// NewCommand returns the sitecheck root command.
func NewCommand() *cobra.Command {
	cfg := &Config{}

	cmd := &cobra.Command{
		Use:   "sitecheck",
		Short: "Check a DingerZone deployment for broken pages and links",
		Long: `sitecheck fetches the marketing pages of a running DingerZone site, the
shared video page of every --share id, and each same-origin link found on
them. It prints a table of results and exits non-zero when any URL fails.`,
		Example: `  sitecheck --url http://localhost:9080
  sitecheck --url https://www.dingerzone.com --share abc123 --share def456 --verbose`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := SetupLogging(cfg.Verbose); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err := Run(ctx, cfg, cmd.OutOrStdout())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", DefaultBaseURL, "Base URL of the site")
	flags.IntVar(&cfg.Workers, "workers", DefaultWorkers, "Number of concurrent workers")
	flags.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "HTTP request timeout")
	flags.StringSliceVar(&cfg.ShareIDs, "share", nil, "Share id whose viewer page is checked (repeatable)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every fetched URL")

	return cmd
}

// SetupLogging initializes the global logger, at debug level when verbose.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// Execute runs the command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
