package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/politecrawl/internal/config"
	"github.com/nao1215/politecrawl/internal/report"
	"github.com/nao1215/politecrawl/internal/store"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a page of a saved run",
		Long: `Show prints one page of the result log of a saved run.

Page numbers outside the valid range are clamped to the first or last page.

Examples:
  politecrawl show 3
  politecrawl show 3 --page 2
  politecrawl show 3 --all --markdown -o run3.md`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().IntP("page", "n", 1, "Result page to print (clamped to the valid range)")
	cmd.Flags().Bool("all", false, "Print every result line instead of one page")
	addReportFlags(cmd)

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return fmt.Errorf("invalid run id %q: must be a positive integer", args[0])
	}

	cfg, err := reportConfig(cmd)
	if err != nil {
		return err
	}
	pageNumber, err := cmd.Flags().GetInt("page")
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DBDir, store.ExistingOptions())
	if errors.Is(err, store.ErrDatabaseNotFound) {
		return fmt.Errorf("%w: no saved runs yet (save one with 'politecrawl crawl --save')", store.ErrRunNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	size := config.DefaultPageSize
	if all {
		pageNumber = 1
		size = max(run.Results, 1)
	}
	page, err := db.GetPage(ctx, id, pageNumber, size)
	if err != nil {
		return err
	}

	view := &report.View{
		RunID:      id,
		Summary:    run.Summary(),
		PageNumber: page.Number,
		PageSize:   size,
		PageCount:  page.Count,
		TotalLines: page.Total,
		Lines:      page.Lines(),
	}
	if all {
		view.PageNumber = 0
	}

	return writeReport(cfg, cmd.OutOrStdout(), func(w report.Writer) error {
		_, err := w.Write(view)
		return err
	})
}
