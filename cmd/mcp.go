package cmd

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/mailtriage/internal/gmail"
	"github.com/teemow/mailtriage/internal/resources"
	"github.com/teemow/mailtriage/internal/tools"
	"github.com/teemow/mailtriage/internal/tools/common"
)

func newMCPCmd() *cobra.Command {
	var yolo bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool catalog over MCP stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the Gmail,
GitHub and triage tools.

Safety Mode:
  By default only read-only tools are registered. Use --yolo to also expose
  create_draft_new, create_draft_reply and create_github_issue. Drafts are
  never sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runMCP(ctx, yolo)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (draft and issue creation). Default is read-only mode.")

	return cmd
}

func runMCP(ctx context.Context, yolo bool) error {
	rt, err := newRuntime(ctx, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close(context.WithoutCancel(ctx))

	profile := func(ctx context.Context) (*gmail.Profile, error) {
		c, err := rt.sc.GmailClient(ctx)
		if err != nil {
			return nil, err
		}
		return c.GetProfile(ctx)
	}
	mcpSrv := newMCPServer(rt.sc.Tools(), rt.sc.Runner(), profile, !yolo)
	rt.logger.Info("starting MCP stdio server", "read_only", !yolo)

	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// newMCPServer registers the catalog, or only its read-only tools, and the
// read-only resources.
func newMCPServer(catalog *tools.Registry, agents resources.Agents, profile resources.ProfileFunc, readOnly bool) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("mailtriage", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if readOnly {
		catalog = catalog.ReadOnly()
	}
	common.RegisterMCPTools(mcpSrv, catalog)
	resources.Register(mcpSrv, agents, catalog, profile)
	return mcpSrv
}
