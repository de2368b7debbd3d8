package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/mailtriage/internal/guardrails"
	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/llm"
	"github.com/teemow/mailtriage/internal/logging"
	"github.com/teemow/mailtriage/internal/tools"
)

// DefaultMaxTurns bounds the model calls of a single run.
const DefaultMaxTurns = 10

var (
	ErrMaxTurns     = errors.New("agent run exceeded max turns")
	ErrUnknownAgent = errors.New("unknown agent")
)

// Options configure a Runner.
type Options struct {
	// Provider is the LLM backend. A nil provider runs every agent through
	// the offline heuristic.
	Provider llm.Provider
	Tools    *tools.Registry
	MaxTurns int
	Logger   logging.Logger
	Metrics  *instrumentation.Metrics
}

// Result is a finished run.
type Result struct {
	RunID     string    `json:"run_id"`
	Outcome   Outcome   `json:"output"`
	Turns     int       `json:"turns"`
	ToolCalls int       `json:"tool_calls"`
	Usage     llm.Usage `json:"usage"`
}

// Runner executes agents. It is safe for concurrent use.
type Runner struct {
	provider  llm.Provider
	registry  *tools.Registry
	agents    map[string]*Agent
	reachable map[string]bool
	maxTurns  int
	logger    logging.Logger
	metrics   *instrumentation.Metrics
}

// NewRunner validates that every tool and handoff target of agents exists.
func NewRunner(opts Options, agents ...*Agent) (*Runner, error) {
	r := &Runner{
		provider:  opts.Provider,
		registry:  opts.Tools,
		agents:    make(map[string]*Agent, len(agents)),
		reachable: map[string]bool{},
		maxTurns:  opts.MaxTurns,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	if r.registry == nil {
		r.registry = tools.NewRegistry()
	}
	if r.maxTurns <= 0 {
		r.maxTurns = DefaultMaxTurns
	}
	if r.logger == nil {
		r.logger = logging.Nop()
	}

	for _, a := range agents {
		if _, dup := r.agents[a.Name]; dup {
			return nil, fmt.Errorf("duplicate agent %q", a.Name)
		}
		r.agents[a.Name] = a
	}
	for _, a := range agents {
		for _, name := range a.Tools {
			if _, ok := r.registry.Get(name); !ok {
				return nil, fmt.Errorf("agent %s: unknown tool %q", a.Name, name)
			}
		}
		for _, h := range a.Handoffs {
			if _, ok := r.agents[h]; !ok {
				return nil, fmt.Errorf("agent %s: %w %q as handoff", a.Name, ErrUnknownAgent, h)
			}
			r.reachable[h] = true
		}
	}
	return r, nil
}

// Offline reports whether runs use the heuristic instead of a provider.
func (r *Runner) Offline() bool {
	return r.provider == nil
}

// Agents returns the registered agent names, sorted.
func (r *Runner) Agents() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run executes the named agent on input. Guardrail trips are returned as
// *guardrails.TripwireError.
func (r *Runner) Run(ctx context.Context, agentName, input string) (*Result, error) {
	a, ok := r.agents[agentName]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAgent, agentName)
	}

	runID := ulid.Make().String()
	ctx, span := instrumentation.StartAgentSpan(ctx, a.Name, runID)
	defer span.End()
	span.SetAttributes(attribute.Bool(instrumentation.SpanAttrOffline, r.Offline()))

	mode := instrumentation.ModeLLM
	if r.Offline() {
		mode = instrumentation.ModeOffline
	}

	start := time.Now()
	res, err := r.run(ctx, a, input, runID)
	duration := time.Since(start)

	var tripwire *guardrails.TripwireError
	switch {
	case errors.As(err, &tripwire):
		instrumentation.SetSpanError(span, err)
		r.metrics.RecordGuardrailTrip(ctx, tripwire.Guardrail)
		r.metrics.RecordTriageRun(ctx, a.Name, mode, logging.StatusTripped, 0, duration)
		r.logger.Warn("guardrail tripped", logging.RunID(runID), logging.Agent(a.Name),
			logging.Status(logging.StatusTripped), logging.Err(err))
		return nil, err
	case err != nil:
		instrumentation.SetSpanError(span, err)
		r.metrics.RecordTriageRun(ctx, a.Name, mode, instrumentation.StatusError, 0, duration)
		r.logger.Error("agent run failed", logging.RunID(runID), logging.Agent(a.Name), logging.Err(err))
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	if p := res.Outcome.Priority(); p > 0 {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrPriority, p))
	}
	r.metrics.RecordTriageRun(ctx, res.Outcome.Agent, mode, instrumentation.StatusSuccess, res.Outcome.Priority(), duration)
	r.logger.Info("agent run completed",
		logging.RunID(runID),
		logging.Agent(res.Outcome.Agent),
		"kind", res.Outcome.Kind,
		"turns", res.Turns,
		"tool_calls", res.ToolCalls,
		"offline", res.Outcome.Offline)
	return res, nil
}

func (r *Runner) run(ctx context.Context, a *Agent, input, runID string) (*Result, error) {
	if err := guardrails.CheckInput(input); err != nil {
		return nil, err
	}

	res := &Result{RunID: runID}
	if r.Offline() {
		res.Outcome = offlineOutcome(a.Name, input)
	} else {
		out, err := r.loop(ctx, a, input, res)
		if err != nil {
			return nil, err
		}
		res.Outcome = out
	}

	if err := guardrails.CheckOutput(res.Outcome.Summary); err != nil {
		return nil, err
	}
	return res, nil
}

// loop alternates model turns and tool calls until the active agent answers
// without tool calls.
func (r *Runner) loop(ctx context.Context, start *Agent, input string, res *Result) (Outcome, error) {
	current := start
	msgs := []llm.Message{llm.UserMessage(input)}

	for turn := 1; turn <= r.maxTurns; turn++ {
		res.Turns = turn

		resp, err := r.provider.Complete(ctx, &llm.Request{
			System:     current.systemPrompt(r.reachable[current.Name]),
			Messages:   msgs,
			Tools:      r.toolDefs(current),
			JSONOutput: true,
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("%s turn %d: %w", current.Name, turn, err)
		}
		res.Usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			return r.finalize(current, resp.Content, input), nil
		}

		msgs = append(msgs, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		next := current
		for _, call := range resp.ToolCalls {
			if target, ok := current.handoffTarget(call.Name); ok {
				if next != current {
					msgs = append(msgs, llm.ToolResult(call.ID, "ignored: conversation already transferred"))
					continue
				}
				next = r.agents[target]
				r.logger.Info("handoff", logging.RunID(res.RunID), "from", current.Name, "to", target)
				msgs = append(msgs, llm.ToolResult(call.ID, fmt.Sprintf(`{"assistant":%q}`, target)))
				continue
			}

			res.ToolCalls++
			msgs = append(msgs, llm.ToolResult(call.ID, r.execute(ctx, current, call, res.RunID)))
		}
		current = next
	}

	return Outcome{}, fmt.Errorf("%w (%d)", ErrMaxTurns, r.maxTurns)
}

// execute runs one tool call. Failures are reported to the model as the
// tool result so it can recover.
func (r *Runner) execute(ctx context.Context, a *Agent, call llm.ToolCall, runID string) string {
	if !a.hasTool(call.Name) {
		r.logger.Warn("model called unavailable tool", logging.RunID(runID), logging.Agent(a.Name), logging.Tool(call.Name))
		return fmt.Sprintf("unknown tool: %s", call.Name)
	}
	tool, _ := r.registry.Get(call.Name)

	r.logger.Debug("executing tool", logging.RunID(runID), logging.Agent(a.Name), logging.Tool(call.Name))
	out, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		r.logger.Warn("tool execution failed", logging.RunID(runID), logging.Tool(call.Name), logging.Err(err))
		return fmt.Sprintf("tool error: %v", err)
	}
	return out
}

func (r *Runner) toolDefs(a *Agent) []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(a.Tools)+len(a.Handoffs))
	for _, name := range a.Tools {
		t, _ := r.registry.Get(name)
		defs = append(defs, llm.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  tools.Schema(t.Params()),
		})
	}
	for _, h := range a.Handoffs {
		defs = append(defs, llm.ToolDef{
			Name:        HandoffTool(h),
			Description: fmt.Sprintf("Hand off to the %s agent to handle the request.", h),
			Parameters:  tools.Schema(nil),
		})
	}
	return defs
}

func (r *Runner) finalize(a *Agent, content, input string) Outcome {
	var out Outcome
	switch a.Output {
	case OutputPayload:
		out = decodePayload(content, input)
	default:
		out = decodeOutcome(content)
	}
	out.Agent = a.Name
	return out
}
