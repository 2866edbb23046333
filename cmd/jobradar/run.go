package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pass and exit",
	Long:  "Collects, filters and notifies once, archiving matches when enabled. Exits non-zero if the pass fails.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoadConfig()

	p, archive, err := buildPipeline(cfg, nil, true, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	if archive != nil {
		defer archive.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d fetched, %d unique, %d matched, %d failed sources in %s\n",
		rep.RunID, rep.Fetched, rep.Unique, rep.Matched, rep.FailedSources, rep.Duration.Round(time.Millisecond))
	return nil
}
