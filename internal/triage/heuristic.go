package triage

import (
	"fmt"
	"strings"
)

const (
	// MaxSummaryLength is the maximum summary length in characters.
	MaxSummaryLength = 220

	// MaxSubjectSummaryLength bounds the part of the draft subject that is
	// taken from the summary.
	MaxSubjectSummaryLength = 60

	// Ellipsis replaces the cut point of a truncated string.
	Ellipsis = "…"

	// DefaultSummary is used when the input has no visible text.
	DefaultSummary = "General request"

	// DefaultAction is used when no action rule matches.
	DefaultAction = "Acknowledge the email and provide a concise next step."

	// DefaultNextStep is used by BuildDrafts when it is given no actions.
	DefaultNextStep = "Provide a helpful reply."

	replyPrefix = "Re: "
)

// KeywordScore maps a lowercase keyword to the priority it implies.
type KeywordScore struct {
	Keyword string
	Score   int
}

// PriorityKeywords is evaluated in order; the highest matching score wins.
var PriorityKeywords = []KeywordScore{
	{Keyword: "urgent", Score: 5},
	{Keyword: "asap", Score: 5},
	{Keyword: "immediately", Score: 5},
	{Keyword: "today", Score: 4},
	{Keyword: "schedule", Score: 3},
	{Keyword: "meeting", Score: 3},
	{Keyword: "follow up", Score: 3},
	{Keyword: "question", Score: 2},
}

// ActionRule appends Action when any trigger appears in the text.
type ActionRule struct {
	Triggers []string
	Action   string
}

// ActionRules are evaluated in order and contribute at most one action each.
var ActionRules = []ActionRule{
	{
		Triggers: []string{"schedule", "meeting", "call"},
		Action:   "Propose times and confirm the meeting context.",
	},
	{
		Triggers: []string{"question", "clarify", "details"},
		Action:   "Answer the question and ask for any missing details.",
	},
	{
		Triggers: []string{"follow", "update", "status"},
		Action:   "Provide a brief status update with next steps.",
	},
}

// Summarize collapses whitespace runs, trims, and bounds the result to
// MaxSummaryLength characters.
func Summarize(text string) string {
	summary := strings.Join(strings.Fields(text), " ")
	if summary == "" {
		return DefaultSummary
	}
	return truncate(summary, MaxSummaryLength)
}

// ScorePriority returns the highest score of all keywords found in text,
// or MinPriority when none match.
func ScorePriority(text string) int {
	lower := strings.ToLower(text)
	score := MinPriority
	for _, kw := range PriorityKeywords {
		if strings.Contains(lower, kw.Keyword) && kw.Score > score {
			score = kw.Score
		}
	}
	return clampPriority(score)
}

// DeriveActions returns the actions of every matching rule in rule order,
// capped at MaxActions. It never returns an empty slice.
func DeriveActions(text string) []string {
	lower := strings.ToLower(text)
	var actions []string
	for _, rule := range ActionRules {
		if containsAny(lower, rule.Triggers) {
			actions = append(actions, rule.Action)
		}
	}
	if len(actions) == 0 {
		return []string{DefaultAction}
	}
	if len(actions) > MaxActions {
		actions = actions[:MaxActions]
	}
	return actions
}

// BuildDrafts renders the three reply templates. All drafts share the same
// subject; the recipient is left for the caller.
func BuildDrafts(summary string, actions []string, priority int) []Draft {
	tone := "thoughtful"
	if priority >= 4 {
		tone = "quick"
	}

	nextStep := DefaultNextStep
	if len(actions) > 0 {
		nextStep = actions[0]
	}

	subject := replyPrefix + truncate(summary, MaxSubjectSummaryLength)

	return []Draft{
		{
			Subject: subject,
			Body:    "Thanks for the note—" + summary + " I'll " + strings.ToLower(nextStep),
		},
		{
			Subject: subject,
			Body: "Hi there,\n\n" +
				summary + "\n\n" +
				"Proposed next step: " + nextStep + " This is a " + tone + " check-in.",
		},
		{
			Subject: subject,
			Body: "Appreciate the context. I captured the request as: " + summary + "\n" +
				"Let me know if you'd like me to adjust the plan or timing.",
		},
	}
}

// Run composes the heuristic into a full Payload. Any input, including the
// empty string, yields a valid payload.
func Run(text string) Payload {
	summary := Summarize(text)
	priority := ScorePriority(text)
	actions := DeriveActions(text)
	return Payload{
		Summary:   summary,
		Priority:  priority,
		Actions:   actions,
		Drafts:    BuildDrafts(summary, actions, priority),
		Rationale: fmt.Sprintf("priority=%d via keyword heuristic", priority),
	}
}

// truncate keeps at most limit characters, replacing the last kept
// character with Ellipsis when s is longer.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + Ellipsis
}

func clampPriority(p int) int {
	return max(MinPriority, min(MaxPriority, p))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
