// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/jllopis/agentcore/pkg/planner"
	"github.com/jllopis/agentcore/pkg/runstore"
	"github.com/jllopis/agentcore/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Output texts of runs stopped by the agent.
const (
	plannerFailureOutput = "Planning failed; the run was stopped."
	canceledOutput       = "The run was canceled before the goal was completed."
)

// Memory keys written after every successful step.
const (
	MemoryLastOutput = "last_output"
	memoryStepOutput = "step.%d.output"
)

func stepCapOutput(n int) string {
	return fmt.Sprintf("Step limit of %d reached before the goal was completed.", n)
}

// Run executes task until the planner answers or the step cap is reached.
// The only returned error is an INVALID_GOAL rejection; every other failure is
// reported through Result.Status and the trace.
func (a *Agent) Run(ctx context.Context, task Task) (Result, error) {
	goal := strings.TrimSpace(task.Goal)
	if goal == "" {
		return Result{}, errors.New(errors.CodeInvalidGoal, "goal must not be empty", nil)
	}
	task.Goal = goal

	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := a.tracer.Start(ctx, "Agent.Run")
	defer span.End()
	log := a.log()
	started := a.now()

	candidates := a.filter.Load().Filter(a.registry.List(task.Tools...))
	span.SetAttributes(telemetry.RunAttributes(runID, a.maxSteps, len(candidates))...)
	log.InfoContext(ctx, "agent.run.start",
		slog.String("run_id", runID),
		slog.String("goal", goal),
		slog.Int("candidates", len(candidates)),
		slog.Int("max_steps", a.maxSteps),
	)
	if missing := a.registry.Missing(task.Tools...); len(missing) > 0 {
		log.WarnContext(ctx, "agent.run.unknown_tools",
			slog.String("run_id", runID),
			slog.String("tools", strings.Join(missing, ",")),
		)
	}

	state := core.NewState(a.now)
	status, output := a.loop(ctx, runID, task, candidates, state)

	result := Result{
		RunID:  runID,
		Status: status,
		Output: output,
		Trace:  state.Steps(),
	}
	finished := a.now()

	span.SetAttributes(telemetry.RunResultAttributes(string(status), len(result.Trace))...)
	if status == StatusError {
		span.SetStatus(codes.Error, output)
	}
	a.metrics.RecordRun(ctx, string(status), finished.Sub(started))
	log.InfoContext(ctx, "agent.run.complete",
		slog.String("run_id", runID),
		slog.String("status", string(status)),
		slog.Int("steps", len(result.Trace)),
		slog.Duration("elapsed", finished.Sub(started)),
	)

	a.record(ctx, task, result, started, finished)
	return result, nil
}

func (a *Agent) loop(ctx context.Context, runID string, task Task, candidates []core.Descriptor, state *core.State) (Status, string) {
	log := a.log()
	for {
		if err := ctx.Err(); err != nil {
			log.WarnContext(ctx, "agent.run.canceled",
				slog.String("run_id", runID),
				slog.String("error", err.Error()),
			)
			return StatusError, canceledOutput
		}

		decision, err := a.plan(ctx, planner.Request{
			Goal:    task.Goal,
			Context: task.Context,
			Tools:   candidates,
			History: state.Steps(),
		})
		if err != nil {
			log.ErrorContext(ctx, "agent.planner.error",
				slog.String("run_id", runID),
				slog.String("error", err.Error()),
				slog.String("error_code", string(errors.CodeOf(err))),
			)
			return StatusError, plannerFailureOutput
		}

		if decision.Kind == planner.KindAnswer {
			return StatusSuccess, decision.Text
		}

		if state.Len() >= a.maxSteps {
			log.WarnContext(ctx, "agent.run.step_cap",
				slog.String("run_id", runID),
				slog.Int("max_steps", a.maxSteps),
				slog.String("error_code", string(errors.CodeStepCapExceeded)),
			)
			return StatusError, stepCapOutput(a.maxSteps)
		}

		a.step(ctx, runID, decision, candidates, state)
	}
}

// plan asks the planner for the next decision and validates it.
func (a *Agent) plan(ctx context.Context, req planner.Request) (planner.Decision, error) {
	ctx, span := a.tracer.Start(ctx, "Agent.Plan", trace.WithAttributes(
		attribute.Int(telemetry.AttrRunSteps, len(req.History)),
	))
	defer span.End()

	decision, err := a.decide(ctx, req)
	if err == nil {
		err = decision.Validate()
	}
	if err != nil {
		err = errors.Wrap(err, errors.CodePlannerFailure, "planner failed")
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(err)...)
		span.SetStatus(codes.Error, err.Error())
		return planner.Decision{}, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrDecision, string(decision.Kind)))
	if decision.Kind == planner.KindInvoke {
		span.SetAttributes(attribute.String(telemetry.AttrToolName, decision.Tool))
	}
	return decision, nil
}

// record saves the finished run. Store failures are logged and otherwise ignored.
func (a *Agent) record(ctx context.Context, task Task, result Result, started, finished time.Time) {
	if a.runs == nil {
		return
	}
	err := a.runs.Save(ctx, runstore.Run{
		RunID:      result.RunID,
		Goal:       task.Goal,
		Context:    task.Context,
		Tools:      task.Tools,
		Status:     string(result.Status),
		Output:     result.Output,
		Trace:      result.Trace,
		StartedAt:  started,
		FinishedAt: finished,
	})
	if err != nil {
		a.log().WarnContext(ctx, "agent.runstore.error",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()),
		)
	}
}

// decide calls the planner and turns a panic into a PLANNER_FAILURE error.
func (a *Agent) decide(ctx context.Context, req planner.Request) (decision planner.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			decision = planner.Decision{}
			err = errors.Newf(errors.CodePlannerFailure, "planner panicked: %v", r)
		}
	}()
	return a.planner.Decide(ctx, req)
}
