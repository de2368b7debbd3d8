package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailtriage/internal/gmail"
	"github.com/teemow/mailtriage/internal/tools"
)

const (
	URIAgents       = "mailtriage://agents"
	URIGmailProfile = "gmail://profile"
)

// Agents is the part of the agent runner the catalog resource reads.
type Agents interface {
	Agents() []string
	Offline() bool
}

// ProfileFunc loads the mailbox profile, resolving credentials on first use.
type ProfileFunc func(ctx context.Context) (*gmail.Profile, error)

// Register adds the agent catalog and, when profile is not nil, the Gmail
// profile resource.
func Register(s *mcpserver.MCPServer, agents Agents, catalog *tools.Registry, profile ProfileFunc) {
	s.AddResource(
		mcp.NewResource(URIAgents, "Agents",
			mcp.WithResourceDescription("Configured agents, whether they run offline, and the exposed tools"),
			mcp.WithMIMEType("application/json"),
		),
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return handleAgents(request, agents, catalog)
		},
	)

	if profile == nil {
		return
	}
	s.AddResource(
		mcp.NewResource(URIGmailProfile, "Gmail Profile",
			mcp.WithResourceDescription("Address and message counts of the authorized mailbox"),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return handleProfile(ctx, request, profile)
		},
	)
}

type agentsData struct {
	Mode   string   `json:"mode"`
	Agents []string `json:"agents"`
	Tools  []string `json:"tools"`
}

func handleAgents(request mcp.ReadResourceRequest, agents Agents, catalog *tools.Registry) ([]mcp.ResourceContents, error) {
	data := agentsData{Mode: "llm", Agents: agents.Agents(), Tools: []string{}}
	if agents.Offline() {
		data.Mode = "offline"
	}
	if catalog != nil {
		data.Tools = catalog.Names()
	}
	return jsonContents(request.Params.URI, data)
}

func handleProfile(ctx context.Context, request mcp.ReadResourceRequest, profile ProfileFunc) ([]mcp.ResourceContents, error) {
	p, err := profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	return jsonContents(request.Params.URI, p)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
