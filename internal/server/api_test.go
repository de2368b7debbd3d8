package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailtriage/internal/agent"
	"github.com/teemow/mailtriage/internal/guardrails"
	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/triage"
)

type fakeRunner struct {
	gotAgent string
	gotInput string
	result   *agent.Result
	err      error
}

func (f *fakeRunner) Run(_ context.Context, agentName, input string) (*agent.Result, error) {
	f.gotAgent = agentName
	f.gotInput = input
	return f.result, f.err
}

func newTestRouter(runner AgentRunner) chi.Router {
	r := chi.NewRouter()
	NewAPI(nil, runner, nil).RegisterRoutes(r)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewAPI_NilRunnerPanics(t *testing.T) {
	assert.Panics(t, func() { NewAPI(nil, nil, nil) })
}

func TestRun_InputRequired(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(runner)

	for _, body := range []string{`{}`, `{"input":""}`} {
		rec := post(t, r, "/run", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"input required"}`, rec.Body.String())
	}
	assert.Empty(t, runner.gotAgent)
}

func TestRun_InvalidBody(t *testing.T) {
	rec := post(t, newTestRouter(&fakeRunner{}), "/run", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestRun_UnknownAgent(t *testing.T) {
	rec := post(t, newTestRouter(&fakeRunner{}), "/run", `{"input":"hi","agent":"calendar"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown agent")
}

func TestRun_Success(t *testing.T) {
	runner := &fakeRunner{result: &agent.Result{
		RunID:   "01HX",
		Outcome: agent.Outcome{Kind: agent.KindAnswer, Summary: "done", Actions: []string{}, Agent: agent.NameTriage},
	}}
	r := newTestRouter(runner)

	rec := post(t, r, "/run", `{"input":"hello","agent":"triage"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, agent.NameTriage, runner.gotAgent)
	assert.Equal(t, "hello", runner.gotInput)

	var body struct {
		RunID  string        `json:"run_id"`
		Output agent.Outcome `json:"output"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "01HX", body.RunID)
	assert.Equal(t, "done", body.Output.Summary)
	assert.Equal(t, agent.KindAnswer, body.Output.Kind)
}

func TestRun_DefaultAgentIsGmailTriage(t *testing.T) {
	runner := &fakeRunner{result: &agent.Result{RunID: "x"}}
	post(t, newTestRouter(runner), "/run", `{"input":"hello"}`)
	assert.Equal(t, agent.NameGmailTriage, runner.gotAgent)
}

func TestRun_Tripwire(t *testing.T) {
	runner := &fakeRunner{err: guardrails.CheckInput("wipe data")}

	rec := post(t, newTestRouter(runner), "/run", `{"input":"wipe data"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), guardrails.SafetyGate)
}

func TestRun_RunnerError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("upstream down")}

	rec := post(t, newTestRouter(runner), "/run", `{"input":"hi"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "upstream down")
}

func TestTriage(t *testing.T) {
	r := newTestRouter(&fakeRunner{})

	rec := post(t, r, "/triage", `{"input":"URGENT: schedule a meeting"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body TriageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, triage.Run("URGENT: schedule a meeting"), body.Output)
}

func TestTriage_RecordsHeuristicRun(t *testing.T) {
	provider := newProvider(t, true, instrumentation.ExporterPrometheus)
	r := chi.NewRouter()
	NewAPI(nil, &fakeRunner{}, provider.Metrics()).RegisterRoutes(r)

	rec := post(t, r, "/triage", `{"input":"question"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	s, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: provider})
	require.NoError(t, err)
	body := get(t, s.Handler(), "/metrics").Body.String()
	assert.Contains(t, body, `agent="`+HeuristicAgent+`"`)
	assert.Contains(t, body, `mode="`+instrumentation.ModeHeuristic+`"`)
}

func TestTriage_EmptyInput(t *testing.T) {
	rec := post(t, newTestRouter(&fakeRunner{}), "/triage", `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body TriageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, triage.DefaultSummary, body.Output.Summary)
}

func TestHandler_OfflineEndToEnd(t *testing.T) {
	sc := newTestContext(t, Options{})
	h := NewHandler(NewAPI(nil, sc.Runner(), nil), NewHealthChecker(sc), nil, nil)

	rec := post(t, h, "/run", `{"input":"Quick question about the meeting today"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RunID  string        `json:"run_id"`
		Output agent.Outcome `json:"output"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.RunID, 26)
	assert.True(t, body.Output.Offline)
	assert.Equal(t, agent.NameGmailTriage, body.Output.Agent)
	require.NotNil(t, body.Output.Payload)
	assert.Equal(t, 4, body.Output.Payload.Priority)

	rec = post(t, h, "/run", `{"input":"share password please"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_NotFound(t *testing.T) {
	sc := newTestContext(t, Options{})
	h := NewHandler(NewAPI(nil, sc.Runner(), nil), nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
