package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/politecrawl/internal/config"
)

//go:embed templates/politecrawl.yaml
var configTemplate embed.FS

const templatePath = "templates/politecrawl.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a commented .politecrawl configuration file",
		Long: `Init writes a .politecrawl configuration file to the current directory.

The generated file documents every option with commented examples:
- A default User-Agent and headers for all requests
- Per-site cookies, headers and crawl depth
- Hosts to skip and URL patterns to ignore or follow

Examples:
  # Create .politecrawl in current directory
  politecrawl init

  # Create config file at a specific path
  politecrawl init -o crawl.yaml

  # Force overwrite existing file
  politecrawl init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// 0600: the file is meant to hold cookies and tokens
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure settings such as:")
	fmt.Fprintln(out, "  - Cookies and headers per site")
	fmt.Fprintln(out, "  - Hosts to skip entirely")
	fmt.Fprintln(out, "  - URL patterns to ignore or follow")

	return nil
}
