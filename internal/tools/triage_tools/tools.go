// Package triage_tools exposes the keyword triage heuristic as a tool.
package triage_tools

import (
	"context"
	"encoding/json"

	"github.com/teemow/mailtriage/internal/tools"
	"github.com/teemow/mailtriage/internal/triage"
)

const ToolTriageText = "triage_text"

// TriageText scores text and proposes actions and reply drafts.
type TriageText struct{}

func New() []tools.Tool {
	return []tools.Tool{TriageText{}}
}

func (TriageText) Name() string { return ToolTriageText }

func (TriageText) Description() string {
	return "Deterministic triage of free text: summary, priority 1-5, up to three actions and three reply drafts. " +
		"Use it as a baseline before writing your own analysis."
}

func (TriageText) Params() []tools.Param {
	return []tools.Param{
		{Name: "text", Type: tools.TypeString, Description: "Email body or request text", Required: true},
	}
}

func (TriageText) ReadOnly() bool { return true }

// Execute never fails on valid JSON; empty text yields the default payload.
func (TriageText) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var in struct {
		Text string `json:"text"`
	}
	if err := tools.DecodeParams(params, &in); err != nil {
		return "", err
	}
	return tools.JSONResult(triage.Run(in.Text))
}
