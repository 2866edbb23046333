package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/audit"
	"github.com/amishk599/jobradar/internal/collector"
	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/dedup"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/model"
)

const allSourcesLabel = "All sources"

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse filter decisions interactively (TUI)",
	Long:  "Shows the source picker, then a split view of every posting and the ones the filter accepts.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, _ := mustLoadConfig()

	// Any log output corrupts the TUI, so everything below logs to nowhere.
	silent := setupLogger(io.Discard, false, "text")

	sources, err := buildSources(cfg, newHTTPClient(), silent)
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg, filter.NopTracer{})
	if err != nil {
		return err
	}
	return runAudit(cfg, sources, engine)
}

func runAudit(cfg *config.Config, sources []collector.Source, engine *filter.Engine) error {
	choices := make([]audit.Choice, 0, len(sources)+1)
	choices = append(choices, audit.Choice{Name: allSourcesLabel})
	for _, s := range sources {
		choices = append(choices, audit.Choice{Name: s.Name, Kind: s.Kind})
	}

	silent := setupLogger(io.Discard, false, "text")
	for {
		choice, err := audit.RunSourcePicker(choices)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}

		label := choices[choice].Name
		fetch := fetchAll(sources, cfg.Concurrency, silent)
		if choice > 0 {
			fetch = sources[choice-1].Fetcher.FetchJobs
		}

		jobs, err := audit.RunLoader(label, fetch)
		if err != nil {
			fmt.Printf("Error fetching jobs: %v\n", err)
			continue
		}

		all, accepted := audit.Evaluate(engine, dedup.Deduplicate(jobs))
		wantQuit, err := audit.RunAuditTUI(label, all, accepted)
		if err != nil {
			return fmt.Errorf("audit view: %w", err)
		}
		if wantQuit {
			return nil
		}
	}
}

// fetchAll collects every source; partial failures are tolerated.
func fetchAll(sources []collector.Source, concurrency int, logger *slog.Logger) func(ctx context.Context) ([]model.Job, error) {
	c := collector.New(sources, concurrency, logger)
	return func(ctx context.Context) ([]model.Job, error) {
		res, err := c.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return res.Jobs, nil
	}
}
