package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/mailtriage/internal/github"
	"github.com/teemow/mailtriage/internal/tools"
	"github.com/teemow/mailtriage/internal/tools/github_tools"
	"github.com/teemow/mailtriage/internal/tools/triage_tools"
)

type stubAgents struct{}

func (stubAgents) Agents() []string { return []string{"Triage"} }
func (stubAgents) Offline() bool    { return true }

func testCatalog() *tools.Registry {
	r := tools.NewRegistry(triage_tools.New()...)
	for _, t := range github_tools.New(github.NewClient(github.Options{}), "acme/app") {
		r.Register(t)
	}
	return r
}

func TestNewMCPServer_ReadOnly(t *testing.T) {
	s := newMCPServer(testCatalog(), stubAgents{}, nil, true)

	assert.NotNil(t, s.GetTool(triage_tools.ToolTriageText))
	assert.NotNil(t, s.GetTool(github_tools.ToolGetRepoReadme))
	assert.Nil(t, s.GetTool(github_tools.ToolCreateGitHubIssue))
}

func TestNewMCPServer_Yolo(t *testing.T) {
	s := newMCPServer(testCatalog(), stubAgents{}, nil, false)

	assert.NotNil(t, s.GetTool(github_tools.ToolCreateGitHubIssue))
	assert.Len(t, s.ListTools(), 3)
}
