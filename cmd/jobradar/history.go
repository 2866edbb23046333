package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently archived matches",
	Long:  "Reads the SQLite archive and prints the most recent matches, newest first.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of matches to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoadConfig()
	if !cfg.Archive.Enabled {
		logger.Warn("archive is disabled in config; reading it anyway", "path", cfg.Archive.Path)
	}

	archive, err := store.NewSQLiteArchive(cfg.Archive.Path)
	if err != nil {
		logger.Error("failed to open archive", "error", err)
		os.Exit(1)
	}
	defer archive.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recent, err := archive.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	total, err := archive.Count(ctx)
	if err != nil {
		return err
	}
	printHistory(cmd.OutOrStdout(), recent, total)
	return nil
}

func printHistory(w io.Writer, jobs []store.ArchivedJob, total int) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No archived matches yet.")
		return
	}

	fmt.Fprintf(w, "%-17s %-22s %-35s %s\n", "Archived", "Company", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, a := range jobs {
		fmt.Fprintf(w, "%-17s %-22s %-35s %s\n",
			a.ArchivedAt.Local().Format("2006-01-02 15:04"),
			truncate(cmp.Or(a.Job.Company, "-"), 22),
			truncate(cmp.Or(a.Job.Title, "-"), 35),
			a.Job.URL,
		)
	}
	fmt.Fprintf(w, "\nShowing %d of %d archived matches\n", len(jobs), total)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
