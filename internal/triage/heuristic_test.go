package triage

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: DefaultSummary},
		{name: "whitespace only", input: " \t\n  ", expected: DefaultSummary},
		{name: "collapses and trims", input: " multiple   spaces   here ", expected: "multiple spaces here"},
		{name: "newlines and tabs", input: "line one\n\n\tline two", expected: "line one line two"},
		{name: "short text unchanged", input: "Hello", expected: "Hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Summarize(tt.input))
		})
	}
}

func TestSummarize_Truncation(t *testing.T) {
	input := strings.Repeat("x", 300)

	summary := Summarize(input)

	assert.Equal(t, MaxSummaryLength, utf8.RuneCountInString(summary))
	assert.True(t, strings.HasSuffix(summary, Ellipsis))
	assert.Equal(t, strings.Repeat("x", MaxSummaryLength-1), strings.TrimSuffix(summary, Ellipsis))
}

func TestSummarize_ExactLimitNotTruncated(t *testing.T) {
	input := strings.Repeat("a", MaxSummaryLength)
	assert.Equal(t, input, Summarize(input))
}

func TestSummarize_CountsCharactersNotBytes(t *testing.T) {
	input := strings.Repeat("ü", MaxSummaryLength)
	assert.Equal(t, input, Summarize(input))

	long := strings.Repeat("ü", MaxSummaryLength+5)
	assert.Equal(t, MaxSummaryLength, utf8.RuneCountInString(Summarize(long)))
}

func TestScorePriority(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "no keywords", input: "hello there", expected: 1},
		{name: "empty", input: "", expected: 1},
		{name: "question", input: "I have a question", expected: 2},
		{name: "meeting", input: "about the meeting", expected: 3},
		{name: "follow up phrase", input: "just a follow up", expected: 3},
		{name: "today", input: "need it today", expected: 4},
		{name: "urgent case insensitive", input: "URGENT please", expected: 5},
		{name: "max wins", input: "question about today's meeting", expected: 4},
		{name: "asap dominates", input: "schedule a meeting asap", expected: 5},
		{name: "substring match", input: "rescheduled", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScorePriority(tt.input))
		})
	}
}

func TestScorePriority_ClampsTable(t *testing.T) {
	orig := PriorityKeywords
	t.Cleanup(func() { PriorityKeywords = orig })

	PriorityKeywords = []KeywordScore{
		{Keyword: "volcano", Score: 42},
		{Keyword: "meh", Score: -3},
	}

	assert.Equal(t, MaxPriority, ScorePriority("the volcano"))
	assert.Equal(t, MinPriority, ScorePriority("meh"))
}

func TestDeriveActions(t *testing.T) {
	meeting := ActionRules[0].Action
	question := ActionRules[1].Action
	status := ActionRules[2].Action

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "no match", input: "hello", expected: []string{DefaultAction}},
		{name: "empty", input: "", expected: []string{DefaultAction}},
		{name: "meeting rule", input: "Can we have a call?", expected: []string{meeting}},
		{name: "one action per rule", input: "schedule a meeting call", expected: []string{meeting}},
		{name: "question rule", input: "please CLARIFY the details", expected: []string{question}},
		{name: "status rule", input: "any update on status?", expected: []string{status}},
		{name: "rule order preserved", input: "status update and a question about the meeting", expected: []string{meeting, question, status}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveActions(tt.input))
		})
	}
}

func TestDeriveActions_Capped(t *testing.T) {
	orig := ActionRules
	t.Cleanup(func() { ActionRules = orig })

	ActionRules = []ActionRule{
		{Triggers: []string{"a"}, Action: "one"},
		{Triggers: []string{"a"}, Action: "two"},
		{Triggers: []string{"a"}, Action: "three"},
		{Triggers: []string{"a"}, Action: "four"},
	}

	assert.Equal(t, []string{"one", "two", "three"}, DeriveActions("a"))
}

func TestBuildDrafts(t *testing.T) {
	actions := []string{"Propose times and confirm the meeting context."}

	drafts := BuildDrafts("Sync next week", actions, 5)

	require.Len(t, drafts, DraftCount)
	for _, d := range drafts {
		assert.Equal(t, "Re: Sync next week", d.Subject)
		assert.Empty(t, d.To)
	}
	assert.Equal(t, "Thanks for the note—Sync next week I'll propose times and confirm the meeting context.", drafts[0].Body)
	assert.Equal(t, "Hi there,\n\nSync next week\n\nProposed next step: Propose times and confirm the meeting context. This is a quick check-in.", drafts[1].Body)
	assert.Equal(t, "Appreciate the context. I captured the request as: Sync next week\nLet me know if you'd like me to adjust the plan or timing.", drafts[2].Body)
}

func TestBuildDrafts_Tone(t *testing.T) {
	assert.Contains(t, BuildDrafts("s", nil, 4)[1].Body, "quick check-in")
	assert.Contains(t, BuildDrafts("s", nil, 3)[1].Body, "thoughtful check-in")
}

func TestBuildDrafts_NoActions(t *testing.T) {
	drafts := BuildDrafts("s", nil, 1)
	assert.Contains(t, drafts[0].Body, "I'll "+strings.ToLower(DefaultNextStep))
	assert.Contains(t, drafts[1].Body, "Proposed next step: "+DefaultNextStep)
}

func TestBuildDrafts_SubjectTruncated(t *testing.T) {
	summary := strings.Repeat("y", 100)

	subject := BuildDrafts(summary, nil, 1)[0].Subject

	assert.True(t, strings.HasPrefix(subject, "Re: "))
	assert.True(t, strings.HasSuffix(subject, Ellipsis))
	assert.Equal(t, 4+MaxSubjectSummaryLength, utf8.RuneCountInString(subject))
}

func TestRun_Empty(t *testing.T) {
	p := Run("")

	assert.Equal(t, DefaultSummary, p.Summary)
	assert.Equal(t, 1, p.Priority)
	assert.Equal(t, []string{DefaultAction}, p.Actions)
	assert.Len(t, p.Drafts, DraftCount)
	assert.Equal(t, "priority=1 via keyword heuristic", p.Rationale)
	assert.NoError(t, p.Validate())
}

func TestRun_UrgentMeeting(t *testing.T) {
	p := Run("URGENT: schedule a meeting ASAP")

	assert.Equal(t, 5, p.Priority)
	require.NotEmpty(t, p.Actions)
	assert.Equal(t, "Propose times and confirm the meeting context.", p.Actions[0])
	assert.Equal(t, "priority=5 via keyword heuristic", p.Rationale)
}

func TestRun_LongInputWithoutKeywords(t *testing.T) {
	p := Run(strings.Repeat("x", 300))

	assert.Equal(t, MaxSummaryLength, utf8.RuneCountInString(p.Summary))
	assert.True(t, strings.HasSuffix(p.Summary, Ellipsis))
	for _, d := range p.Drafts {
		assert.LessOrEqual(t, utf8.RuneCountInString(d.Subject), 64)
	}
}

func TestRun_Invariants(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"hello",
		"question: can we schedule a call today to follow up on status details?",
		strings.Repeat("urgent meeting ", 500),
		"日本語のテキスト",
		"\x00\xff invalid utf8",
	}

	for _, input := range inputs {
		p := Run(input)
		assert.GreaterOrEqual(t, p.Priority, MinPriority)
		assert.LessOrEqual(t, p.Priority, MaxPriority)
		assert.GreaterOrEqual(t, len(p.Actions), 1)
		assert.LessOrEqual(t, len(p.Actions), MaxActions)
		assert.Len(t, p.Drafts, DraftCount)
		assert.NotEmpty(t, p.Summary)
	}
}

func TestRun_Idempotent(t *testing.T) {
	input := "Quick question about the meeting today"
	assert.Equal(t, Run(input), Run(input))
}

func TestRun_Concurrent(t *testing.T) {
	want := Run("follow up on the schedule")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Run("follow up on the schedule"))
		}()
	}
	wg.Wait()
}

func TestPayload_Validate(t *testing.T) {
	valid := Run("hello")

	tests := []struct {
		name    string
		mutate  func(p *Payload)
		wantErr string
	}{
		{name: "valid", mutate: func(*Payload) {}},
		{name: "empty summary", mutate: func(p *Payload) { p.Summary = "" }, wantErr: "summary is empty"},
		{name: "priority too high", mutate: func(p *Payload) { p.Priority = 6 }, wantErr: "out of range"},
		{name: "no actions", mutate: func(p *Payload) { p.Actions = nil }, wantErr: "actions"},
		{name: "two drafts", mutate: func(p *Payload) { p.Drafts = p.Drafts[:2] }, wantErr: "drafts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			p.Actions = append([]string(nil), valid.Actions...)
			p.Drafts = append([]Draft(nil), valid.Drafts...)
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	text := "urgent: status update please"

	t.Run("fills missing fields from heuristic", func(t *testing.T) {
		p := Normalize(Payload{}, text)
		assert.Equal(t, Run(text), p)
	})

	t.Run("keeps valid fields", func(t *testing.T) {
		in := Payload{
			Summary:  "Custom  summary",
			Priority: 2,
			Actions:  []string{"a", "b", "c", "d"},
		}

		p := Normalize(in, text)

		assert.Equal(t, "Custom summary", p.Summary)
		assert.Equal(t, 2, p.Priority)
		assert.Equal(t, []string{"a", "b", "c"}, p.Actions)
		assert.Len(t, p.Drafts, DraftCount)
		assert.NoError(t, p.Validate())
	})

	t.Run("whitespace summary uses heuristic summary", func(t *testing.T) {
		p := Normalize(Payload{Summary: " \n\t ", Priority: 2, Actions: []string{"a"}}, text)
		assert.Equal(t, Summarize(text), p.Summary)
		assert.NotEqual(t, DefaultSummary, p.Summary)
	})

	t.Run("rebuilds incomplete drafts", func(t *testing.T) {
		in := Payload{
			Summary:  "Status",
			Priority: 3,
			Actions:  []string{"a"},
			Drafts: []Draft{
				{Subject: "Re: Status", Body: "one"},
				{Subject: "", Body: "two"},
				{Subject: "Re: Status", Body: "  "},
			},
		}

		p := Normalize(in, text)

		assert.Equal(t, BuildDrafts("Status", []string{"a"}, 3), p.Drafts)
		assert.NoError(t, p.Validate())
	})

	t.Run("keeps complete drafts", func(t *testing.T) {
		drafts := []Draft{
			{Subject: "s1", Body: "b1"},
			{Subject: "s2", Body: "b2"},
			{Subject: "s3", Body: "b3"},
		}
		p := Normalize(Payload{Summary: "x", Priority: 1, Actions: []string{"a"}, Drafts: drafts}, text)
		assert.Equal(t, drafts, p.Drafts)
	})

	t.Run("replaces out of range priority", func(t *testing.T) {
		p := Normalize(Payload{Summary: "x", Priority: 9, Actions: []string{"a"}}, text)
		assert.Equal(t, 5, p.Priority)
		assert.Equal(t, "priority=5 via keyword heuristic", p.Rationale)
	})
}
