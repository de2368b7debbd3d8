package agent

import (
	"fmt"
	"strings"

	"github.com/teemow/mailtriage/internal/tools/github_tools"
	"github.com/teemow/mailtriage/internal/tools/gmail_tools"
	"github.com/teemow/mailtriage/internal/tools/triage_tools"
)

const (
	NameTriage      = "Triage"
	NameGitOps      = "GitOps"
	NameGmailTriage = "GmailTriage"
)

// OutputType selects how the final answer of an agent is decoded.
type OutputType int

const (
	// OutputOutcome expects {"kind","summary","actions"}.
	OutputOutcome OutputType = iota
	// OutputPayload expects a triage payload, optionally wrapped as
	// {"kind","payload"}.
	OutputPayload
)

// handoffPrefix is the tool name prefix for agent transfers.
const handoffPrefix = "transfer_to_"

// Agent is a named set of instructions, tools and handoff targets.
type Agent struct {
	Name         string
	Instructions string
	Tools        []string
	Handoffs     []string
	Output       OutputType
}

// HandoffTool is the tool name that transfers control to the named agent.
func HandoffTool(name string) string {
	return handoffPrefix + strings.ToLower(name)
}

// handoffTarget returns the agent a tool call transfers to, if any.
func (a *Agent) handoffTarget(toolName string) (string, bool) {
	for _, h := range a.Handoffs {
		if HandoffTool(h) == toolName {
			return h, true
		}
	}
	return "", false
}

func (a *Agent) hasTool(name string) bool {
	for _, t := range a.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// DefaultAgents returns Triage, GitOps and GmailTriage. defaultRepo is
// mentioned in the GitOps instructions when set.
func DefaultAgents(defaultRepo string) []*Agent {
	repoHint := "the repository the user names"
	if defaultRepo != "" {
		repoHint = fmt.Sprintf("%s unless the user names another owner/repo", defaultRepo)
	}

	return []*Agent{
		{
			Name:         NameTriage,
			Instructions: triageInstructions,
			Tools:        []string{github_tools.ToolGetRepoReadme},
			Handoffs:     []string{NameGitOps},
			Output:       OutputOutcome,
		},
		{
			Name:         NameGitOps,
			Instructions: fmt.Sprintf(gitOpsInstructions, repoHint),
			Tools:        []string{github_tools.ToolCreateGitHubIssue},
			Output:       OutputOutcome,
		},
		{
			Name:         NameGmailTriage,
			Instructions: gmailTriageInstructions,
			Tools: []string{
				gmail_tools.ToolListMessages,
				gmail_tools.ToolGetMessage,
				gmail_tools.ToolCreateDraftNew,
				gmail_tools.ToolCreateDraftReply,
				triage_tools.ToolTriageText,
			},
			Output: OutputPayload,
		},
	}
}

// Lookup resolves a case-insensitive agent name or alias (triage, gitops,
// gmail) to its canonical name.
func Lookup(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "triage":
		return NameTriage, nil
	case "gitops":
		return NameGitOps, nil
	case "gmail", "gmailtriage", "gmail_triage", "":
		return NameGmailTriage, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAgent, name)
}
