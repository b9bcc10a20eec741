// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements the goal-driven execution loop: ask the planner for
// a decision, run the chosen capability, record the step and repeat until the
// planner answers or the step cap is reached.
package agent

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/governance"
	"github.com/jllopis/agentcore/pkg/planner"
	"github.com/jllopis/agentcore/pkg/registry"
	"github.com/jllopis/agentcore/pkg/runstore"
	"github.com/jllopis/agentcore/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxSteps bounds the capability calls of a run.
const DefaultMaxSteps = 10

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Task is one unit of work submitted to the agent.
type Task struct {
	Goal    string   `json:"goal"`
	Context string   `json:"context,omitempty"`
	Tools   []string `json:"tools,omitempty"`
}

// Result is the final outcome of a run. Trace is a copy of the recorded steps.
type Result struct {
	RunID  string      `json:"run_id"`
	Status Status      `json:"status"`
	Output string      `json:"output"`
	Trace  []core.Step `json:"trace"`
}

// Agent drives runs against a registry with a planner. It is safe for
// concurrent use; every run owns its own state.
type Agent struct {
	registry *registry.Registry
	planner  planner.Planner
	filter   atomic.Pointer[governance.ToolFilter]
	runs     runstore.Store
	logger   *slog.Logger
	metrics  *telemetry.AgentMetrics
	tracer   trace.Tracer
	now      func() time.Time
	maxSteps int
}

var (
	ErrMissingRegistry = errors.New("agent registry is required")
	ErrMissingPlanner  = errors.New("agent planner is required")
)

// Option configures an Agent instance.
type Option func(*Agent) error

// New creates an Agent bound to reg and p.
func New(reg *registry.Registry, p planner.Planner, opts ...Option) (*Agent, error) {
	a := &Agent{
		registry: reg,
		planner:  p,
		tracer:   otel.Tracer("agentcore/agent"),
		now:      time.Now,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.registry == nil {
		return nil, ErrMissingRegistry
	}
	if a.planner == nil {
		return nil, ErrMissingPlanner
	}
	if a.metrics == nil {
		if m, err := telemetry.NewAgentMetrics(); err == nil {
			a.metrics = m
		}
	}
	return a, nil
}

// WithMaxSteps sets the step cap. It must be at least 1.
func WithMaxSteps(n int) Option {
	return func(a *Agent) error {
		if n < 1 {
			return errors.New("max steps must be at least 1")
		}
		a.maxSteps = n
		return nil
	}
}

// WithToolFilter applies a process-level allow/deny policy to every run.
func WithToolFilter(filter *governance.ToolFilter) Option {
	return func(a *Agent) error {
		a.filter.Store(filter)
		return nil
	}
}

// SetToolFilter replaces the tool filter. Runs already in progress keep the
// candidates they started with.
func (a *Agent) SetToolFilter(filter *governance.ToolFilter) {
	a.filter.Store(filter)
}

// WithRunStore records every finished run in store.
func WithRunStore(store runstore.Store) Option {
	return func(a *Agent) error {
		a.runs = store
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default at run time.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		a.logger = logger
		return nil
	}
}

// WithClock overrides the time source used for step timestamps and run times.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		a.now = now
		return nil
	}
}

// WithMetrics sets the run metrics recorder.
func WithMetrics(m *telemetry.AgentMetrics) Option {
	return func(a *Agent) error {
		a.metrics = m
		return nil
	}
}

// WithTracerProvider sets the provider used for run spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Agent) error {
		a.tracer = tp.Tracer("agentcore/agent")
		return nil
	}
}

// MaxSteps returns the configured step cap.
func (a *Agent) MaxSteps() int { return a.maxSteps }

// Registry returns the capability registry.
func (a *Agent) Registry() *registry.Registry { return a.registry }

func (a *Agent) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}
