package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for politecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "politecrawl",
		Short: "Bounded, polite web crawler",
		Long: `politecrawl crawls a web site breadth-first from a start URL.

It honors robots.txt for every domain it visits, spaces page fetches with a
global rate limit, and stops at a maximum link depth and page budget. Titles,
links, skipped pages and fetch errors are collected into a result log that is
printed ten lines per page and can be saved for later viewing.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
