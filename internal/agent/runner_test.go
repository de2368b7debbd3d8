package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailtriage/internal/guardrails"
	"github.com/teemow/mailtriage/internal/llm"
	"github.com/teemow/mailtriage/internal/tools"
	"github.com/teemow/mailtriage/internal/tools/github_tools"
	"github.com/teemow/mailtriage/internal/tools/gmail_tools"
	"github.com/teemow/mailtriage/internal/tools/triage_tools"
	"github.com/teemow/mailtriage/internal/triage"
)

// scriptedProvider replays responses in order and records requests.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []*llm.Response
	err       error
	requests  []*llm.Request
}

func (p *scriptedProvider) Model() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := *req
	cp.Messages = append([]llm.Message(nil), req.Messages...)
	p.requests = append(p.requests, &cp)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

// stubTool records its arguments and returns a fixed output.
type stubTool struct {
	name string
	out  string
	err  error
	args []string
}

func (s *stubTool) Name() string          { return s.name }
func (s *stubTool) Description() string   { return "stub " + s.name }
func (s *stubTool) Params() []tools.Param { return nil }
func (s *stubTool) ReadOnly() bool        { return true }
func (s *stubTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	s.args = append(s.args, string(params))
	return s.out, s.err
}

func stubRegistry() (*tools.Registry, map[string]*stubTool) {
	stubs := map[string]*stubTool{}
	r := tools.NewRegistry()
	for _, name := range []string{
		github_tools.ToolGetRepoReadme,
		github_tools.ToolCreateGitHubIssue,
		gmail_tools.ToolListMessages,
		gmail_tools.ToolGetMessage,
		gmail_tools.ToolCreateDraftNew,
		gmail_tools.ToolCreateDraftReply,
		triage_tools.ToolTriageText,
	} {
		s := &stubTool{name: name, out: name + " ok"}
		stubs[name] = s
		r.Register(s)
	}
	return r, stubs
}

func newRunner(t *testing.T, p llm.Provider, maxTurns int) (*Runner, map[string]*stubTool) {
	t.Helper()
	reg, stubs := stubRegistry()
	opts := Options{Tools: reg, MaxTurns: maxTurns}
	if p != nil {
		opts.Provider = p
	}
	r, err := NewRunner(opts, DefaultAgents("acme/app")...)
	require.NoError(t, err)
	return r, stubs
}

func call(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func TestRun_Offline(t *testing.T) {
	r, _ := newRunner(t, nil, 0)
	require.True(t, r.Offline())

	res, err := r.Run(context.Background(), NameGmailTriage, "URGENT: schedule a meeting ASAP")
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.True(t, res.Outcome.Offline)
	assert.Equal(t, KindAnalysis, res.Outcome.Kind)
	assert.Equal(t, OfflineNotice, res.Outcome.Notice)
	assert.Equal(t, NameGmailTriage, res.Outcome.Agent)
	require.NotNil(t, res.Outcome.Payload)
	assert.Equal(t, triage.Run("URGENT: schedule a meeting ASAP"), *res.Outcome.Payload)
	assert.Equal(t, 0, res.Turns)
}

func TestRun_OfflineUniqueRunIDs(t *testing.T) {
	r, _ := newRunner(t, nil, 0)

	a, err := r.Run(context.Background(), NameTriage, "hello")
	require.NoError(t, err)
	b, err := r.Run(context.Background(), NameTriage, "hello")
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Outcome, b.Outcome)
}

func TestRun_InputGuardrail(t *testing.T) {
	p := &scriptedProvider{}
	r, _ := newRunner(t, p, 0)

	_, err := r.Run(context.Background(), NameTriage, "please DROP DATABASE prod")

	var trip *guardrails.TripwireError
	require.True(t, errors.As(err, &trip))
	assert.Equal(t, guardrails.SafetyGate, trip.Guardrail)
	assert.Empty(t, p.requests)
}

func TestRun_OutputGuardrail(t *testing.T) {
	p := &scriptedProvider{responses: []*llm.Response{
		{Content: `{"kind":"answer","summary":"` + strings.Repeat("x", guardrails.MaxOutputLength+1) + `"}`},
	}}
	r, _ := newRunner(t, p, 0)

	_, err := r.Run(context.Background(), NameTriage, "hi")

	var trip *guardrails.TripwireError
	require.True(t, errors.As(err, &trip))
	assert.Equal(t, guardrails.OutputGate, trip.Guardrail)
}

func TestRun_EmptyAnswerTrips(t *testing.T) {
	p := &scriptedProvider{responses: []*llm.Response{{Content: ""}}}
	r, _ := newRunner(t, p, 0)

	_, err := r.Run(context.Background(), NameTriage, "hi")
	assert.True(t, guardrails.IsTripwire(err))
}

func TestRun_DirectAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []*llm.Response{
		{Content: `{"kind":"answer","summary":"Use the retry flag.","actions":["set --retry"]}`, Usage: llm.Usage{PromptTokens: 5, CompletionTokens: 2}},
	}}
	r, _ := newRunner(t, p, 0)

	res, err := r.Run(context.Background(), NameTriage, "how do I retry?")
	require.NoError(t, err)

	assert.Equal(t, Outcome{
		Kind:    KindAnswer,
		Summary: "Use the retry flag.",
		Actions: []string{"set --retry"},
		Agent:   NameTriage,
	}, res.Outcome)
	assert.Equal(t, 1, res.Turns)
	assert.Equal(t, llm.Usage{PromptTokens: 5, CompletionTokens: 2}, res.Usage)

	req := p.requests[0]
	assert.True(t, req.JSONOutput)
	assert.Contains(t, req.System, "deterministic planner")
	assert.Contains(t, req.System, `"kind"`)
	var names []string
	for _, d := range req.Tools {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{github_tools.ToolGetRepoReadme, "transfer_to_gitops"}, names)
}

func TestRun_ToolLoop(t *testing.T) {
	p := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{call("c1", github_tools.ToolGetRepoReadme, `{"repo":"acme/app"}`)}},
		{Content: `{"kind":"answer","summary":"It is a widget library."}`},
	}}
	r, stubs := newRunner(t, p, 0)

	res, err := r.Run(context.Background(), NameTriage, "what is acme/app?")
	require.NoError(t, err)

	assert.Equal(t, KindAnswer, res.Outcome.Kind)
	assert.Equal(t, 1, res.ToolCalls)
	assert.Equal(t, []string{`{"repo":"acme/app"}`}, stubs[github_tools.ToolGetRepoReadme].args)

	second := p.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, llm.RoleAssistant, second[1].Role)
	assert.Equal(t, llm.ToolResult("c1", "get_repo_readme ok"), second[2])
}

func TestRun_ToolErrorsReachModel(t *testing.T) {
	p := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{
			call("c1", github_tools.ToolGetRepoReadme, `{}`),
			call("c2", gmail_tools.ToolCreateDraftNew, `{}`),
		}},
		{Content: `{"kind":"unknown","summary":"could not read"}`},
	}}
	r, stubs := newRunner(t, p, 0)
	stubs[github_tools.ToolGetRepoReadme].err = errors.New("timeout")

	res, err := r.Run(context.Background(), NameTriage, "readme?")
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, res.Outcome.Kind)

	msgs := p.requests[1].Messages
	assert.Equal(t, "tool error: timeout", msgs[2].Content)
	assert.Equal(t, "unknown tool: create_draft_new", msgs[3].Content)
	assert.Empty(t, stubs[gmail_tools.ToolCreateDraftNew].args)
}

func TestRun_Handoff(t *testing.T) {
	p := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{call("h1", "transfer_to_gitops", `{}`)}},
		{ToolCalls: []llm.ToolCall{call("c1", github_tools.ToolCreateGitHubIssue, `{"title":"Add retries to the sync job"}`)}},
		{Content: `{"kind":"issue_created","summary":"Opened https://github.com/acme/app/issues/9","actions":[]}`},
	}}
	r, stubs := newRunner(t, p, 0)

	res, err := r.Run(context.Background(), NameTriage, "open an issue to add retries")
	require.NoError(t, err)

	assert.Equal(t, KindIssueCreated, res.Outcome.Kind)
	assert.Equal(t, NameGitOps, res.Outcome.Agent)
	assert.Equal(t, 3, res.Turns)
	assert.Len(t, stubs[github_tools.ToolCreateGitHubIssue].args, 1)

	assert.Contains(t, p.requests[1].System, "create concise GitHub issues")
	assert.Contains(t, p.requests[1].System, "acme/app unless the user names another")
	assert.Equal(t, `{"assistant":"GitOps"}`, p.requests[1].Messages[2].Content)
}

func TestRun_MaxTurns(t *testing.T) {
	loop := &llm.Response{ToolCalls: []llm.ToolCall{call("c", github_tools.ToolGetRepoReadme, `{}`)}}
	p := &scriptedProvider{responses: []*llm.Response{loop, loop, loop}}
	r, _ := newRunner(t, p, 2)

	_, err := r.Run(context.Background(), NameTriage, "loop")
	assert.ErrorIs(t, err, ErrMaxTurns)
	assert.Len(t, p.requests, 2)
}

func TestRun_ProviderError(t *testing.T) {
	p := &scriptedProvider{err: errors.New("rate limited")}
	r, _ := newRunner(t, p, 0)

	_, err := r.Run(context.Background(), NameTriage, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.False(t, guardrails.IsTripwire(err))
}

func TestRun_GmailPayloadNormalized(t *testing.T) {
	p := &scriptedProvider{responses: []*llm.Response{
		{Content: "```json\n{\"kind\":\"draft_created\",\"payload\":{\"summary\":\"Invoice due Friday\",\"priority\":9,\"actions\":[\"pay\"]}}\n```"},
	}}
	r, _ := newRunner(t, p, 0)

	res, err := r.Run(context.Background(), NameGmailTriage, "invoice due today")
	require.NoError(t, err)

	out := res.Outcome
	assert.Equal(t, KindDraftCreated, out.Kind)
	require.NotNil(t, out.Payload)
	assert.Equal(t, "Invoice due Friday", out.Summary)
	assert.Equal(t, 4, out.Payload.Priority)
	assert.Equal(t, []string{"pay"}, out.Actions)
	assert.NoError(t, out.Payload.Validate())
}

func TestRun_UnknownAgent(t *testing.T) {
	r, _ := newRunner(t, nil, 0)

	_, err := r.Run(context.Background(), "Nobody", "hi")
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(Options{}, DefaultAgents("")...)
	assert.ErrorContains(t, err, "unknown tool")

	reg, _ := stubRegistry()
	_, err = NewRunner(Options{Tools: reg}, &Agent{Name: "A", Handoffs: []string{"B"}})
	assert.ErrorIs(t, err, ErrUnknownAgent)

	_, err = NewRunner(Options{Tools: reg}, &Agent{Name: "A"}, &Agent{Name: "A"})
	assert.ErrorContains(t, err, "duplicate")

	r, err := NewRunner(Options{Tools: reg}, DefaultAgents("")...)
	require.NoError(t, err)
	assert.Equal(t, []string{NameGitOps, NameGmailTriage, NameTriage}, r.Agents())
}
