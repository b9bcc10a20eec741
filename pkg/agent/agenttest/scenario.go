// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package agenttest provides declarative scenarios for testing agent runs.
//
// Example usage:
//
//	agenttest.NewScenario("arithmetic").
//	    WithGoal("Calculate (100 + 50) * 2").
//	    WithTools("math").
//	    ExpectStatus(agent.StatusSuccess).
//	    ExpectToolCall("math").
//	    ExpectOutput(agenttest.Contains("300")).
//	    Run(t, a)
package agenttest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jllopis/agentcore/pkg/agent"
	"github.com/jllopis/agentcore/pkg/errors"
)

// Runner is the interface scenarios run against. *agent.Agent implements it.
type Runner interface {
	Run(ctx context.Context, task agent.Task) (agent.Result, error)
}

// Scenario describes one task and the expectations on its outcome.
type Scenario struct {
	name         string
	task         agent.Task
	timeout      time.Duration
	expectations []Expectation
}

// Expectation is a condition verified after a scenario runs.
type Expectation interface {
	Check(result *ScenarioResult) error
	Description() string
}

// ScenarioResult is the outcome of a scenario.
type ScenarioResult struct {
	Result   agent.Result
	Err      error
	Duration time.Duration
}

// NewScenario creates a scenario with a 30s timeout.
func NewScenario(name string) *Scenario {
	return &Scenario{name: name, timeout: 30 * time.Second}
}

// WithGoal sets the goal of the task.
func (s *Scenario) WithGoal(goal string) *Scenario {
	s.task.Goal = goal
	return s
}

// WithContext sets the context text of the task.
func (s *Scenario) WithContext(text string) *Scenario {
	s.task.Context = text
	return s
}

// WithTools restricts the task to the named capabilities.
func (s *Scenario) WithTools(names ...string) *Scenario {
	s.task.Tools = append(s.task.Tools, names...)
	return s
}

// WithTimeout bounds the run.
func (s *Scenario) WithTimeout(d time.Duration) *Scenario {
	s.timeout = d
	return s
}

// Expect adds an expectation.
func (s *Scenario) Expect(exp Expectation) *Scenario {
	s.expectations = append(s.expectations, exp)
	return s
}

// ExpectStatus expects the run to finish with status.
func (s *Scenario) ExpectStatus(status agent.Status) *Scenario {
	return s.Expect(checkFunc(fmt.Sprintf("status is %s", status), func(r *ScenarioResult) error {
		if r.Err != nil {
			return fmt.Errorf("run returned error: %v", r.Err)
		}
		if r.Result.Status != status {
			return fmt.Errorf("status is %s (output %q)", r.Result.Status, r.Result.Output)
		}
		return nil
	}))
}

// ExpectOutput expects the output to match.
func (s *Scenario) ExpectOutput(matcher StringMatcher) *Scenario {
	return s.Expect(checkFunc("output "+matcher.Description(), func(r *ScenarioResult) error {
		if !matcher.Match(r.Result.Output) {
			return fmt.Errorf("output %q does not match", r.Result.Output)
		}
		return nil
	}))
}

// ExpectErrorCode expects Run itself to fail with code.
func (s *Scenario) ExpectErrorCode(code errors.ErrorCode) *Scenario {
	return s.Expect(checkFunc(fmt.Sprintf("run fails with %s", code), func(r *ScenarioResult) error {
		if !errors.Is(r.Err, code) {
			return fmt.Errorf("got error %v", r.Err)
		}
		return nil
	}))
}

// ExpectToolCall expects at least one step for tool.
func (s *Scenario) ExpectToolCall(tool string) *Scenario {
	return s.Expect(checkFunc(fmt.Sprintf("calls %s", tool), func(r *ScenarioResult) error {
		for _, step := range r.Result.Trace {
			if step.Tool == tool {
				return nil
			}
		}
		return fmt.Errorf("no step for %s in %s", tool, toolNames(r))
	}))
}

// ExpectNoToolCalls expects an empty trace.
func (s *Scenario) ExpectNoToolCalls() *Scenario {
	return s.ExpectTraceLen(0)
}

// ExpectTraceLen expects exactly n steps.
func (s *Scenario) ExpectTraceLen(n int) *Scenario {
	return s.Expect(checkFunc(fmt.Sprintf("trace has %d steps", n), func(r *ScenarioResult) error {
		if len(r.Result.Trace) != n {
			return fmt.Errorf("trace has %d steps: %s", len(r.Result.Trace), toolNames(r))
		}
		return nil
	}))
}

// ExpectStepError expects step n (1-based) to have failed with an error matching.
func (s *Scenario) ExpectStepError(n int, matcher StringMatcher) *Scenario {
	return s.Expect(checkFunc(fmt.Sprintf("step %d error %s", n, matcher.Description()), func(r *ScenarioResult) error {
		if n < 1 || n > len(r.Result.Trace) {
			return fmt.Errorf("trace has %d steps", len(r.Result.Trace))
		}
		step := r.Result.Trace[n-1]
		if !step.Failed() || step.Output != nil {
			return fmt.Errorf("step %d did not fail cleanly: %+v", n, step)
		}
		if !matcher.Match(step.ErrorText()) {
			return fmt.Errorf("step error %q does not match", step.ErrorText())
		}
		return nil
	}))
}

// ExpectSequentialSteps expects trace[i].step == i+1.
func (s *Scenario) ExpectSequentialSteps() *Scenario {
	return s.Expect(checkFunc("steps are numbered 1..n", func(r *ScenarioResult) error {
		for i, step := range r.Result.Trace {
			if step.Step != i+1 {
				return fmt.Errorf("trace[%d].step = %d", i, step.Step)
			}
		}
		return nil
	}))
}

// Run executes the scenario and reports every failed expectation to t.
func (s *Scenario) Run(t *testing.T, runner Runner) *ScenarioResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	result, err := runner.Run(ctx, s.task)
	r := &ScenarioResult{Result: result, Err: err, Duration: time.Since(start)}

	for _, exp := range s.expectations {
		if err := exp.Check(r); err != nil {
			t.Errorf("scenario %q: expectation %q failed: %v", s.name, exp.Description(), err)
		}
	}
	return r
}

func toolNames(r *ScenarioResult) string {
	names := make([]string, 0, len(r.Result.Trace))
	for _, step := range r.Result.Trace {
		names = append(names, step.Tool)
	}
	return "[" + strings.Join(names, " ") + "]"
}

type funcExpectation struct {
	desc  string
	check func(*ScenarioResult) error
}

func checkFunc(desc string, check func(*ScenarioResult) error) Expectation {
	return funcExpectation{desc: desc, check: check}
}

func (e funcExpectation) Check(r *ScenarioResult) error { return e.check(r) }
func (e funcExpectation) Description() string          { return e.desc }

// StringMatcher matches output or error text.
type StringMatcher interface {
	Match(s string) bool
	Description() string
}

type matcher struct {
	desc  string
	match func(string) bool
}

func (m matcher) Match(s string) bool  { return m.match(s) }
func (m matcher) Description() string { return m.desc }

// Contains matches strings containing substr.
func Contains(substr string) StringMatcher {
	return matcher{fmt.Sprintf("contains %q", substr), func(s string) bool { return strings.Contains(s, substr) }}
}

// Equals matches exactly expected.
func Equals(expected string) StringMatcher {
	return matcher{fmt.Sprintf("equals %q", expected), func(s string) bool { return s == expected }}
}

// HasPrefix matches strings starting with prefix.
func HasPrefix(prefix string) StringMatcher {
	return matcher{fmt.Sprintf("has prefix %q", prefix), func(s string) bool { return strings.HasPrefix(s, prefix) }}
}

// Regex matches strings against pattern. An invalid pattern never matches.
func Regex(pattern string) StringMatcher {
	re, err := regexp.Compile(pattern)
	return matcher{fmt.Sprintf("matches regex %q", pattern), func(s string) bool { return err == nil && re.MatchString(s) }}
}
