package agent

import (
	"encoding/json"
	"strings"

	"github.com/teemow/mailtriage/internal/triage"
)

// Outcome kinds.
const (
	KindAnswer       = "answer"
	KindIssueCreated = "issue_created"
	KindUnknown      = "unknown"
	KindAnalysis     = "analysis"
	KindDraftCreated = "draft_created"
	KindNone         = "none"
)

// OfflineNotice explains heuristic fallback outcomes.
const OfflineNotice = "OpenAI API key not configured; returned offline heuristic triage."

// Outcome is the final result of a run.
type Outcome struct {
	Kind    string          `json:"kind"`
	Summary string          `json:"summary"`
	Actions []string        `json:"actions"`
	Payload *triage.Payload `json:"payload,omitempty"`
	// Agent is the agent that produced the final answer.
	Agent   string `json:"agent"`
	Offline bool   `json:"offline"`
	Notice  string `json:"notice,omitempty"`
}

// Priority returns the payload priority or 0 without a payload.
func (o *Outcome) Priority() int {
	if o.Payload == nil {
		return 0
	}
	return o.Payload.Priority
}

var outcomeKinds = map[string]bool{KindAnswer: true, KindIssueCreated: true, KindUnknown: true}
var payloadKinds = map[string]bool{KindAnalysis: true, KindDraftCreated: true, KindNone: true}

// decodeOutcome parses a final Outcome answer. Anything that is not an
// object with a known kind becomes KindUnknown with the raw text as summary.
func decodeOutcome(content string) Outcome {
	raw := strings.TrimSpace(stripFence(content))
	var out struct {
		Kind    string   `json:"kind"`
		Summary string   `json:"summary"`
		Actions []string `json:"actions"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || !outcomeKinds[out.Kind] {
		return Outcome{Kind: KindUnknown, Summary: strings.TrimSpace(content), Actions: []string{}}
	}
	if out.Actions == nil {
		out.Actions = []string{}
	}
	return Outcome{Kind: out.Kind, Summary: out.Summary, Actions: out.Actions}
}

// decodePayload parses a final payload answer, wrapped or bare, and repairs
// it against the heuristic for input. Undecodable answers fall back to the
// heuristic entirely.
func decodePayload(content, input string) Outcome {
	raw := []byte(strings.TrimSpace(stripFence(content)))

	var wrapped struct {
		Kind    string          `json:"kind"`
		Payload *triage.Payload `json:"payload"`
	}
	var p triage.Payload
	kind := KindAnalysis

	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Payload != nil {
		p = *wrapped.Payload
		if payloadKinds[wrapped.Kind] {
			kind = wrapped.Kind
		}
	} else if err := json.Unmarshal(raw, &p); err != nil {
		p = triage.Payload{}
	}

	p = triage.Normalize(p, input)
	return Outcome{Kind: kind, Summary: p.Summary, Actions: p.Actions, Payload: &p}
}

// offlineOutcome is the heuristic result used without a provider.
func offlineOutcome(agentName, input string) Outcome {
	p := triage.Run(input)
	return Outcome{
		Kind:    KindAnalysis,
		Summary: p.Summary,
		Actions: p.Actions,
		Payload: &p,
		Agent:   agentName,
		Offline: true,
		Notice:  OfflineNotice,
	}
}

// stripFence removes a surrounding markdown code fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
