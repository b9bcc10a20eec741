// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/jllopis/agentcore/pkg/governance"
	"github.com/jllopis/agentcore/pkg/notes"
	"github.com/jllopis/agentcore/pkg/planner"
	"github.com/jllopis/agentcore/pkg/registry"
	"github.com/jllopis/agentcore/pkg/runstore"
	"github.com/jllopis/agentcore/pkg/telemetry"
	"github.com/jllopis/agentcore/pkg/tools/mathtool"
	"github.com/jllopis/agentcore/pkg/tools/proposalnote"
	"github.com/jllopis/agentcore/pkg/tools/search"
	"github.com/mark3labs/mcp-go/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type panicTool struct{}

func (panicTool) Name() string                     { return "explode" }
func (panicTool) Description() string              { return "panics" }
func (panicTool) InputSchema() mcp.ToolInputSchema { return mcp.ToolInputSchema{Type: "object"} }
func (panicTool) Run(context.Context, map[string]any) (map[string]any, error) {
	panic("boom")
}

func newTestRegistry(t *testing.T, store notes.Store) *registry.Registry {
	t.Helper()
	reg, err := registry.New(mathtool.New(), proposalnote.New(store), search.New())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func newTestAgent(t *testing.T, reg *registry.Registry, p planner.Planner, opts ...Option) *Agent {
	t.Helper()
	opts = append([]Option{WithLogger(telemetry.NewLogger(&bytes.Buffer{}, "debug", "json"))}, opts...)
	a, err := New(reg, p, opts...)
	if err != nil {
		t.Fatalf("agent: %v", err)
	}
	return a
}

func alwaysInvoke(tool string, args map[string]any) planner.Planner {
	return planner.Func(func(context.Context, planner.Request) (planner.Decision, error) {
		return planner.Invoke(tool, args), nil
	})
}

func assertSequential(t *testing.T, trace []core.Step) {
	t.Helper()
	for i, step := range trace {
		if step.Step != i+1 {
			t.Fatalf("trace[%d].step = %d, want %d", i, step.Step, i+1)
		}
	}
}

func TestNewRequiresRegistryAndPlanner(t *testing.T) {
	reg := registry.MustNew()
	if _, err := New(nil, planner.NewRuleBased()); err != ErrMissingRegistry {
		t.Fatalf("expected ErrMissingRegistry, got %v", err)
	}
	if _, err := New(reg, nil); err != ErrMissingPlanner {
		t.Fatalf("expected ErrMissingPlanner, got %v", err)
	}
	if _, err := New(reg, planner.NewRuleBased(), WithMaxSteps(0)); err == nil {
		t.Fatal("expected error for max steps 0")
	}
	a, err := New(reg, planner.NewRuleBased())
	if err != nil {
		t.Fatalf("agent: %v", err)
	}
	if a.MaxSteps() != DefaultMaxSteps {
		t.Fatalf("expected default max steps, got %d", a.MaxSteps())
	}
}

func TestRunEmptyGoal(t *testing.T) {
	store := runstore.NewMemory()
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), planner.NewRuleBased(), WithRunStore(store))

	for _, goal := range []string{"", "   \n\t"} {
		result, err := a.Run(context.Background(), Task{Goal: goal})
		if !errors.Is(err, errors.CodeInvalidGoal) {
			t.Fatalf("expected INVALID_GOAL, got %v", err)
		}
		if result.Trace != nil || result.RunID != "" {
			t.Fatalf("expected no result, got %+v", result)
		}
	}
	runs, _ := store.List(context.Background(), runstore.Filter{})
	if len(runs) != 0 {
		t.Fatalf("expected no stored runs, got %d", len(runs))
	}
}

func TestRunMath(t *testing.T) {
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), planner.NewRuleBased())

	result, err := a.Run(context.Background(), Task{Goal: "Calculate (100 + 50) * 2", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Status, result.Output)
	}
	if len(result.Trace) != 1 {
		t.Fatalf("expected one step, got %d", len(result.Trace))
	}
	step := result.Trace[0]
	if step.Tool != "math" || step.Failed() {
		t.Fatalf("unexpected step %+v", step)
	}
	if step.Output["result"] != float64(300) {
		t.Fatalf("expected 300, got %v", step.Output["result"])
	}
	if !strings.Contains(result.Output, "300") {
		t.Fatalf("expected output to mention 300, got %q", result.Output)
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestRunGovernanceNote(t *testing.T) {
	store := notes.NewInMemory()
	a := newTestAgent(t, newTestRegistry(t, store), planner.NewRuleBased())

	result, err := a.Run(context.Background(), Task{Goal: "Add note to PROP-1: done", Tools: []string{"governance_note"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusSuccess || len(result.Trace) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	got, err := store.Notes(context.Background(), "PROP-1")
	if err != nil {
		t.Fatalf("notes: %v", err)
	}
	if len(got) != 1 || got[0] != "done" {
		t.Fatalf("expected [done], got %v", got)
	}
}

func TestRunDirectAnswer(t *testing.T) {
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), planner.NewRuleBased())

	result, err := a.Run(context.Background(), Task{Goal: "Tell me a story", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}
	if len(result.Trace) != 0 {
		t.Fatalf("expected empty trace, got %d steps", len(result.Trace))
	}
	if result.Trace == nil {
		t.Fatal("expected non-nil trace")
	}
}

func TestRunCapabilityErrorIsRecorded(t *testing.T) {
	rules := planner.NewRuleBased()
	p := planner.Func(func(ctx context.Context, req planner.Request) (planner.Decision, error) {
		if len(req.History) == 0 {
			return planner.Invoke("math", map[string]any{"expression": "2 + "}), nil
		}
		return rules.Decide(ctx, req)
	})
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), p)

	result, err := a.Run(context.Background(), Task{Goal: "evaluate a broken expression", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Trace) != 1 {
		t.Fatalf("expected one step, got %d", len(result.Trace))
	}
	step := result.Trace[0]
	if !step.Failed() || step.Output != nil {
		t.Fatalf("expected failed step without output, got %+v", step)
	}
	if !strings.Contains(step.ErrorText(), string(errors.CodeInvalidExpression)) {
		t.Fatalf("expected invalid expression, got %q", step.ErrorText())
	}
	if !strings.HasPrefix(result.Output, "Task failed:") {
		t.Fatalf("unexpected output %q", result.Output)
	}
}

func TestRunStepCap(t *testing.T) {
	for _, maxSteps := range []int{1, 3, DefaultMaxSteps} {
		t.Run(fmt.Sprint(maxSteps), func(t *testing.T) {
			a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()),
				alwaysInvoke("math", map[string]any{"expression": "1 + 1"}),
				WithMaxSteps(maxSteps))

			result, err := a.Run(context.Background(), Task{Goal: "loop forever"})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if result.Status != StatusError {
				t.Fatalf("expected error status, got %s", result.Status)
			}
			if len(result.Trace) != maxSteps {
				t.Fatalf("expected %d steps, got %d", maxSteps, len(result.Trace))
			}
			if result.Output != stepCapOutput(maxSteps) {
				t.Fatalf("unexpected output %q", result.Output)
			}
			assertSequential(t, result.Trace)
		})
	}
}

func TestRunPlannerFailure(t *testing.T) {
	calls := 0
	p := planner.Func(func(_ context.Context, req planner.Request) (planner.Decision, error) {
		calls++
		if len(req.History) == 0 {
			return planner.Invoke("math", map[string]any{"expression": "2 * 3"}), nil
		}
		return planner.Decision{}, fmt.Errorf("model unavailable")
	})
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), p)

	result, err := a.Run(context.Background(), Task{Goal: "compute"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusError || result.Output != plannerFailureOutput {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Trace) != 1 || result.Trace[0].Output["result"] != float64(6) {
		t.Fatalf("expected the trace to be preserved, got %+v", result.Trace)
	}
	if calls != 2 {
		t.Fatalf("expected 2 planner calls, got %d", calls)
	}
}

func TestRunPlannerPanic(t *testing.T) {
	p := planner.Func(func(_ context.Context, req planner.Request) (planner.Decision, error) {
		if len(req.History) == 0 {
			return planner.Invoke("math", map[string]any{"expression": "2 * 3"}), nil
		}
		panic("planner boom")
	})
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), p)

	result, err := a.Run(context.Background(), Task{Goal: "compute"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusError || result.Output != plannerFailureOutput {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Trace) != 1 || result.Trace[0].Failed() {
		t.Fatalf("expected the trace to be preserved, got %+v", result.Trace)
	}
}

func TestRunMalformedDecision(t *testing.T) {
	tests := []struct {
		name     string
		decision planner.Decision
	}{
		{"unknown kind", planner.Decision{Kind: "dance"}},
		{"invoke without tool", planner.Decision{Kind: planner.KindInvoke}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := planner.Func(func(context.Context, planner.Request) (planner.Decision, error) {
				return tt.decision, nil
			})
			a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), p)
			result, err := a.Run(context.Background(), Task{Goal: "anything"})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if result.Status != StatusError || result.Output != plannerFailureOutput || len(result.Trace) != 0 {
				t.Fatalf("unexpected result %+v", result)
			}
		})
	}
}

func TestRunCapabilityOutsideCandidates(t *testing.T) {
	p := planner.Func(func(_ context.Context, req planner.Request) (planner.Decision, error) {
		if len(req.History) > 0 {
			return planner.Answer("stopped"), nil
		}
		return planner.Invoke("web_search", map[string]any{"query": "go"}), nil
	})
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), p)

	result, err := a.Run(context.Background(), Task{Goal: "search", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Trace) != 1 || !strings.Contains(result.Trace[0].ErrorText(), string(errors.CodeCapabilityNotFound)) {
		t.Fatalf("expected capability not found step, got %+v", result.Trace)
	}
	if result.Status != StatusSuccess || result.Output != "stopped" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunToolFilter(t *testing.T) {
	var seen []string
	p := planner.Func(func(_ context.Context, req planner.Request) (planner.Decision, error) {
		for _, d := range req.Tools {
			seen = append(seen, d.Name)
		}
		return planner.Answer("ok"), nil
	})
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), p,
		WithToolFilter(governance.NewToolFilter(governance.WithDenylist([]string{"web_search"}))))

	if _, err := a.Run(context.Background(), Task{Goal: "hello"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Join(seen, ",") != "governance_note,math" {
		t.Fatalf("unexpected candidates %v", seen)
	}
}

func TestRunInvalidInputAndPanic(t *testing.T) {
	reg := newTestRegistry(t, notes.NewInMemory())
	if err := reg.Register(panicTool{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	decisions := []planner.Decision{
		planner.Invoke("math", map[string]any{"expression": 42}),
		planner.Invoke("explode", nil),
		planner.Answer("done"),
	}
	p := planner.Func(func(_ context.Context, req planner.Request) (planner.Decision, error) {
		return decisions[len(req.History)], nil
	})
	a := newTestAgent(t, reg, p)

	result, err := a.Run(context.Background(), Task{Goal: "misbehave"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Trace) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(result.Trace))
	}
	if !strings.Contains(result.Trace[0].ErrorText(), string(errors.CodeInvalidInput)) {
		t.Fatalf("expected invalid input, got %q", result.Trace[0].ErrorText())
	}
	if !strings.Contains(result.Trace[1].ErrorText(), "panicked") {
		t.Fatalf("expected recovered panic, got %q", result.Trace[1].ErrorText())
	}
	assertSequential(t, result.Trace)
}

func TestRunBackendPanicIsRecorded(t *testing.T) {
	reg := newTestRegistry(t, notes.NewInMemory())
	exploding := search.BackendFunc(func(context.Context, string) ([]search.Result, error) {
		panic("backend boom")
	})
	if err := reg.Register(search.New(search.WithBackend(exploding))); err != nil {
		t.Fatalf("register: %v", err)
	}
	a := newTestAgent(t, reg, planner.NewRuleBased())

	result, err := a.Run(context.Background(), Task{Goal: "find go tips"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Trace) != 1 || result.Trace[0].Tool != search.Name {
		t.Fatalf("expected one search step, got %+v", result.Trace)
	}
	step := result.Trace[0]
	if step.Output != nil || !strings.Contains(step.ErrorText(), string(errors.CodeToolFailure)) {
		t.Fatalf("expected TOOL_FAILURE step, got %+v", step)
	}
	if result.Status != StatusSuccess || !strings.HasPrefix(result.Output, "Task failed") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunMemoryAndHistory(t *testing.T) {
	var histories []int
	var lastOutput map[string]any
	p := planner.Func(func(_ context.Context, req planner.Request) (planner.Decision, error) {
		histories = append(histories, len(req.History))
		switch len(req.History) {
		case 0:
			return planner.Invoke("math", map[string]any{"expression": "1 + 2"}), nil
		case 1:
			lastOutput = req.History[0].Output
			return planner.Invoke("math", map[string]any{"expression": "3 * 3"}), nil
		default:
			return planner.Answer("nine"), nil
		}
	})
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), p)

	result, err := a.Run(context.Background(), Task{Goal: "chain"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fmt.Sprint(histories) != "[0 1 2]" {
		t.Fatalf("unexpected history lengths %v", histories)
	}
	if lastOutput["result"] != float64(3) {
		t.Fatalf("expected first output in history, got %v", lastOutput)
	}
	if result.Output != "nine" || len(result.Trace) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunStoresResult(t *testing.T) {
	store := runstore.NewMemory()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), planner.NewRuleBased(),
		WithRunStore(store),
		WithClock(func() time.Time { return fixed }))

	result, err := a.Run(context.Background(), Task{Goal: "what is 2 + 2", Context: "ctx", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	run, err := store.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if run.Goal != "what is 2 + 2" || run.Context != "ctx" || run.Status != string(StatusSuccess) || run.Output != result.Output {
		t.Fatalf("unexpected stored run %+v", run)
	}
	if len(run.Trace) != 1 || !run.Trace[0].Timestamp.Equal(fixed) || !run.StartedAt.Equal(fixed) {
		t.Fatalf("unexpected stored trace %+v", run.Trace)
	}
}

type failingStore struct{ runstore.Store }

func (failingStore) Save(context.Context, runstore.Run) error {
	return errors.Newf(errors.CodeStoreError, "disk full")
}

func TestRunStoreFailureDoesNotChangeResult(t *testing.T) {
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), planner.NewRuleBased(),
		WithRunStore(failingStore{}))
	result, err := a.Run(context.Background(), Task{Goal: "2 * 21", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestRunKeepsCallerRunID(t *testing.T) {
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), planner.NewRuleBased())
	ctx := core.WithRunID(context.Background(), "run-fixed")
	result, err := a.Run(ctx, Task{Goal: "hello", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RunID != "run-fixed" {
		t.Fatalf("expected caller run id, got %q", result.RunID)
	}
}

func TestRunCanceledContext(t *testing.T) {
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), alwaysInvoke("math", map[string]any{"expression": "1"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := a.Run(ctx, Task{Goal: "anything"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusError || len(result.Trace) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), planner.NewRuleBased(), WithTracerProvider(tp))

	if _, err := a.Run(context.Background(), Task{Goal: "5 / 0", Tools: []string{"math"}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	counts := map[string]int{}
	for _, span := range recorder.Ended() {
		counts[span.Name()]++
	}
	if counts["Agent.Run"] != 1 || counts["Agent.Plan"] != 2 || counts["Agent.Tool.Call"] != 1 {
		t.Fatalf("unexpected spans %v", counts)
	}
}

func TestResultJSON(t *testing.T) {
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), planner.NewRuleBased())
	result, err := a.Run(context.Background(), Task{Goal: "1 + 1", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body struct {
		RunID  string           `json:"run_id"`
		Status string           `json:"status"`
		Trace  []map[string]any `json:"trace"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.RunID == "" || body.Status != "success" || len(body.Trace) != 1 {
		t.Fatalf("unexpected body %s", data)
	}
	for _, key := range []string{"step", "tool", "input", "output", "error", "timestamp"} {
		if _, ok := body.Trace[0][key]; !ok {
			t.Fatalf("trace entry missing %q: %s", key, data)
		}
	}
	if len(body.Trace[0]) != 6 {
		t.Fatalf("unexpected trace fields %v", body.Trace[0])
	}
}

func TestConcurrentRuns(t *testing.T) {
	store := notes.NewInMemory()
	a := newTestAgent(t, newTestRegistry(t, store), planner.NewRuleBased())

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			goal := fmt.Sprintf("Add note to PROP-7: note %d", i)
			if _, err := a.Run(context.Background(), Task{Goal: goal, Tools: []string{"governance_note"}}); err != nil {
				t.Errorf("run: %v", err)
			}
		}(i)
	}
	wg.Wait()
	got, _ := store.Notes(context.Background(), "PROP-7")
	if len(got) != n {
		t.Fatalf("expected %d notes, got %d", n, len(got))
	}
}

func TestHealthChecker(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	empty := newTestAgent(t, registry.MustNew(), planner.NewRuleBased(), WithClock(clock))
	if got := NewHealthChecker(empty).Check(context.Background()); got.Status != core.HealthDegraded {
		t.Fatalf("expected degraded, got %v", got.Status)
	}

	reg := newTestRegistry(t, notes.NewInMemory())
	a := newTestAgent(t, reg, planner.NewRuleBased(), WithClock(clock))
	h := NewHealthChecker(a)
	if got := h.Check(context.Background()); got.Status != core.HealthHealthy {
		t.Fatalf("expected healthy, got %v", got.Status)
	}

	denied := newTestAgent(t, reg, planner.NewRuleBased(), WithClock(clock),
		WithToolFilter(governance.NewToolFilter(governance.WithDenylist([]string{"*"}))))
	if got := NewHealthChecker(denied).Check(context.Background()); got.Status != core.HealthDegraded {
		t.Fatalf("expected degraded, got %v", got.Status)
	}
}

func TestSetToolFilter(t *testing.T) {
	var candidates int
	p := planner.Func(func(_ context.Context, req planner.Request) (planner.Decision, error) {
		candidates = len(req.Tools)
		return planner.Answer("ok"), nil
	})
	a := newTestAgent(t, newTestRegistry(t, notes.NewInMemory()), p)

	if _, err := a.Run(context.Background(), Task{Goal: "hi"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if candidates != 3 {
		t.Fatalf("expected 3 candidates, got %d", candidates)
	}
	a.SetToolFilter(governance.NewToolFilter(governance.WithAllowlist([]string{"math"})))
	if _, err := a.Run(context.Background(), Task{Goal: "hi"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if candidates != 1 {
		t.Fatalf("expected 1 candidate after reload, got %d", candidates)
	}
}
