// Package cmd implements the command-line interface for mailtriage.
//
// This package provides the following commands:
//   - triage: Run an agent once on text from the arguments or stdin and print JSON
//   - serve: Start the HTTP API and the metrics server
//   - mcp: Serve the tool catalog over MCP stdio
//   - auth: Authorize Gmail access and store the token
//   - version: Display version information
//
// The triage command is the default command when no subcommand is specified.
package cmd
