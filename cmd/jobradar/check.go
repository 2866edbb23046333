package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/notifier"
)

var checkSources []string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one pass, log matches, exit",
	Long: "Dry run: collects and filters once and logs the matches instead of sending them. " +
		"Nothing is archived. Use --debug to see why each posting was filtered out.",
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringSliceVarP(&checkSources, "source", "s", nil, "only check these sources (by name)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoadConfig()
	logger.Info("check mode: matches are logged, not sent or archived")

	if len(checkSources) > 0 {
		if err := restrictSources(cfg, checkSources); err != nil {
			logger.Error("invalid --source", "error", err)
			os.Exit(1)
		}
	}

	p, _, err := buildPipeline(cfg, notifier.NewLogNotifier(logger), false, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := p.Run(ctx)
	if err != nil {
		logger.Error("check failed", "error", err)
		os.Exit(1)
	}

	logger.Info("check complete", "matched", rep.Matched, "unique", rep.Unique, "failed_sources", rep.FailedSources)
	return nil
}

// restrictSources enables exactly the named sources, including ones that are
// disabled in the config.
func restrictSources(cfg *config.Config, names []string) error {
	found := 0
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		s.Enabled = slices.Contains(names, s.Name)
		if s.Enabled {
			found++
		}
	}
	if found != len(names) {
		return fmt.Errorf("unknown source in %v", names)
	}
	return nil
}
