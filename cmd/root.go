package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	debugMode bool
	envFile   string
)

// rootCmd represents the base command for the mailtriage application
var rootCmd = &cobra.Command{
	Use:   "mailtriage",
	Short: "Triage Gmail messages and open GitHub issues with LLM agents",
	Long: `mailtriage summarizes and prioritizes email, proposes reply drafts and
turns requests into GitHub issues.

It can run as:
  - A one-shot CLI (triage, the default)
  - An HTTP API (serve)
  - An MCP server over stdio for AI assistants (mcp)

Without OPENAI_API_KEY every agent falls back to a deterministic keyword
heuristic.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailtriage version %s\n" .Version}}`)

	// If no subcommand is provided, run the triage command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "triage")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (default .env when present)")

	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
