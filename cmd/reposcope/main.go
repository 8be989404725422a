// Package main provides the entry point for the reposcope CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/reposcope/cmd/reposcope/commands"
	"github.com/Sumatoshi-tech/reposcope/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "reposcope",
		Short: "Reposcope - live git history dashboard",
		Long: `Reposcope mines a git repository into linked dashboard views.

Commands:
  serve     Serve the live dashboard for a repository
  render    Render a one-shot dashboard, summary, or report`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "reposcope %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
