package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/config"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured sources.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.ResolvePath(cfgPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	printSources(cmd.OutOrStdout(), cfg.Sources)
	return nil
}

func printSources(w io.Writer, sources []config.SourceConfig) {
	fmt.Fprintf(w, "%-25s %-12s %-10s %s\n", "Source", "Type", "Status", "Target")
	fmt.Fprintln(w, strings.Repeat("─", 72))

	enabled := 0
	for _, s := range sources {
		status := "disabled"
		if s.Enabled {
			status = "enabled"
			enabled++
		}
		fmt.Fprintf(w, "%-25s %-12s %-10s %s\n", s.Name, s.Type, status, sourceTarget(s))
	}

	fmt.Fprintf(w, "\nTotal: %d sources (%d enabled, %d disabled)\n", len(sources), enabled, len(sources)-enabled)
}

func sourceTarget(s config.SourceConfig) string {
	switch s.Type {
	case "rss":
		return s.URL
	case "file":
		return s.Path
	default:
		return s.Token
	}
}
