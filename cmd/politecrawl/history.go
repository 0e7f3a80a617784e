package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/politecrawl/internal/report"
	"github.com/nao1215/politecrawl/internal/store"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved crawl runs",
		Long: `History lists the runs saved with 'politecrawl crawl --save', newest first.

Examples:
  politecrawl history
  politecrawl history --limit 5
  politecrawl history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 0, "Show at most this many runs (0 shows all)")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := reportConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	runs, err := listRuns(cmd, cfg.DBDir)
	if err != nil {
		return err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	entries := make([]report.HistoryEntry, len(runs))
	for i, r := range runs {
		entries[i] = report.HistoryEntry{ID: r.ID, SavedAt: r.CreatedAt, Summary: r.Summary()}
	}

	return writeReport(cfg, cmd.OutOrStdout(), func(w report.Writer) error {
		_, err := w.WriteHistory(entries)
		return err
	})
}

// listRuns returns the saved runs in dbDir. A missing database has no runs.
func listRuns(cmd *cobra.Command, dbDir string) ([]store.RunRecord, error) {
	db, err := store.Open(dbDir, store.ExistingOptions())
	if errors.Is(err, store.ErrDatabaseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return db.ListRuns(cmd.Context())
}
