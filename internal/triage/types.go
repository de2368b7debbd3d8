package triage

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// MinPriority is the lowest priority score (low).
	MinPriority = 1

	// MaxPriority is the highest priority score (urgent).
	MaxPriority = 5

	// MaxActions caps the number of suggested actions.
	MaxActions = 3

	// DraftCount is the exact number of reply drafts in a payload.
	DraftCount = 3
)

// Draft is a candidate reply. It is never sent automatically.
type Draft struct {
	// To is left empty by the heuristic; callers fill it in from the
	// message they are replying to.
	To      string `json:"to,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Payload is the structured triage result for a single text input.
type Payload struct {
	Summary   string   `json:"summary"`
	Priority  int      `json:"priority"`
	Actions   []string `json:"actions"`
	Drafts    []Draft  `json:"drafts"`
	Rationale string   `json:"rationale,omitempty"`
}

// Validate reports every payload invariant that does not hold.
func (p *Payload) Validate() error {
	var errs []error
	if p.Summary == "" {
		errs = append(errs, errors.New("summary is empty"))
	}
	if n := len([]rune(p.Summary)); n > MaxSummaryLength {
		errs = append(errs, fmt.Errorf("summary has %d characters, max %d", n, MaxSummaryLength))
	}
	if p.Priority < MinPriority || p.Priority > MaxPriority {
		errs = append(errs, fmt.Errorf("priority %d out of range [%d,%d]", p.Priority, MinPriority, MaxPriority))
	}
	if len(p.Actions) == 0 || len(p.Actions) > MaxActions {
		errs = append(errs, fmt.Errorf("expected 1 to %d actions, got %d", MaxActions, len(p.Actions)))
	}
	if len(p.Drafts) != DraftCount {
		errs = append(errs, fmt.Errorf("expected %d drafts, got %d", DraftCount, len(p.Drafts)))
	}
	return errors.Join(errs...)
}

// Normalize repairs a payload produced outside the heuristic (for example by
// an LLM) so that it satisfies the payload invariants. Fields that are
// missing or out of bounds are replaced by the heuristic result for text.
func Normalize(p Payload, text string) Payload {
	fallback := Run(text)

	if strings.TrimSpace(p.Summary) == "" {
		p.Summary = fallback.Summary
	} else {
		p.Summary = Summarize(p.Summary)
	}

	if p.Priority < MinPriority || p.Priority > MaxPriority {
		p.Priority = fallback.Priority
		p.Rationale = fallback.Rationale
	}

	if len(p.Actions) == 0 {
		p.Actions = fallback.Actions
	} else if len(p.Actions) > MaxActions {
		p.Actions = p.Actions[:MaxActions]
	}

	if len(p.Drafts) != DraftCount || slices.ContainsFunc(p.Drafts, incompleteDraft) {
		p.Drafts = BuildDrafts(p.Summary, p.Actions, p.Priority)
	}

	return p
}

func incompleteDraft(d Draft) bool {
	return strings.TrimSpace(d.Subject) == "" || strings.TrimSpace(d.Body) == ""
}
