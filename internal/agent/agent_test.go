package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailtriage/internal/tools/github_tools"
	"github.com/teemow/mailtriage/internal/tools/triage_tools"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "triage", want: NameTriage},
		{input: "Triage", want: NameTriage},
		{input: "GITOPS", want: NameGitOps},
		{input: "gmail", want: NameGmailTriage},
		{input: "GmailTriage", want: NameGmailTriage},
		{input: "", want: NameGmailTriage},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Lookup(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Lookup("calendar")
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestHandoffTool(t *testing.T) {
	assert.Equal(t, "transfer_to_gitops", HandoffTool(NameGitOps))

	a := &Agent{Name: NameTriage, Handoffs: []string{NameGitOps}}
	target, ok := a.handoffTarget("transfer_to_gitops")
	assert.True(t, ok)
	assert.Equal(t, NameGitOps, target)

	_, ok = a.handoffTarget("transfer_to_triage")
	assert.False(t, ok)
}

func TestDefaultAgents(t *testing.T) {
	agents := DefaultAgents("acme/app")
	require.Len(t, agents, 3)

	byName := map[string]*Agent{}
	for _, a := range agents {
		byName[a.Name] = a
	}

	assert.Equal(t, []string{github_tools.ToolGetRepoReadme}, byName[NameTriage].Tools)
	assert.Equal(t, []string{NameGitOps}, byName[NameTriage].Handoffs)
	assert.Equal(t, []string{github_tools.ToolCreateGitHubIssue}, byName[NameGitOps].Tools)
	assert.Contains(t, byName[NameGitOps].Instructions, "acme/app")
	assert.Equal(t, OutputPayload, byName[NameGmailTriage].Output)
	assert.True(t, byName[NameGmailTriage].hasTool(triage_tools.ToolTriageText))
	assert.False(t, byName[NameGmailTriage].hasTool(github_tools.ToolCreateGitHubIssue))

	noRepo := DefaultAgents("")
	assert.Contains(t, noRepo[1].Instructions, "the repository the user names")
}

func TestSystemPrompt(t *testing.T) {
	agents := DefaultAgents("")

	triagePrompt := agents[0].systemPrompt(false)
	assert.Contains(t, triagePrompt, "transfer_to_<agent>")
	assert.Contains(t, triagePrompt, outcomeFormat)

	gitOpsAlone := agents[1].systemPrompt(false)
	assert.NotContains(t, gitOpsAlone, "transfer_to_<agent>")
	assert.Contains(t, agents[1].systemPrompt(true), "transfer_to_<agent>")

	gmailPrompt := agents[2].systemPrompt(false)
	assert.Contains(t, gmailPrompt, payloadFormat)
	assert.Contains(t, gmailPrompt, "Low-Value/Spam/Phishing")
}
