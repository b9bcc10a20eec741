// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/jllopis/agentcore/pkg/planner"
	"github.com/jllopis/agentcore/pkg/telemetry"
	"go.opentelemetry.io/otel/codes"
)

// step executes one invoke decision and records it. Failures never leave the
// step: they become the step's error.
func (a *Agent) step(ctx context.Context, runID string, decision planner.Decision, candidates []core.Descriptor, state *core.State) core.Step {
	ctx, span := a.tracer.Start(ctx, "Agent.Tool.Call")
	defer span.End()

	output, err := a.invoke(ctx, decision, candidates)
	step := state.Record(decision.Tool, decision.Args, output, err)

	span.SetAttributes(telemetry.StepAttributes(step.Step, step.Tool, err == nil)...)
	a.metrics.RecordStep(ctx, step.Tool, err)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(err)...)
		span.SetStatus(codes.Error, err.Error())
		a.log().WarnContext(ctx, "agent.step.error",
			slog.String("run_id", runID),
			slog.Int("step", step.Step),
			slog.String("tool", step.Tool),
			slog.String("error", err.Error()),
			slog.String("error_code", string(errors.CodeOf(err))),
		)
		return step
	}

	state.Remember(MemoryLastOutput, step.Output)
	state.Remember(fmt.Sprintf(memoryStepOutput, step.Step), step.Output)
	a.log().InfoContext(ctx, "agent.step.complete",
		slog.String("run_id", runID),
		slog.Int("step", step.Step),
		slog.String("tool", step.Tool),
	)
	return step
}

func (a *Agent) invoke(ctx context.Context, decision planner.Decision, candidates []core.Descriptor) (map[string]any, error) {
	if !isCandidate(decision.Tool, candidates) {
		return nil, errors.Newf(errors.CodeCapabilityNotFound, "capability %q is not available to this run", decision.Tool).
			WithContext("capability", decision.Tool)
	}
	capability, err := a.registry.Resolve(decision.Tool)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateInput(capability.InputSchema(), decision.Args); err != nil {
		return nil, err
	}
	return safeRun(ctx, capability, decision.Args)
}

// safeRun calls the capability and turns a panic into a TOOL_FAILURE error.
func safeRun(ctx context.Context, capability core.Capability, input map[string]any) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = errors.Newf(errors.CodeToolFailure, "capability %q panicked: %v", capability.Name(), r).
				WithContext("capability", capability.Name())
		}
	}()
	return capability.Run(ctx, input)
}

func isCandidate(name string, candidates []core.Descriptor) bool {
	for _, d := range candidates {
		if d.Name == name {
			return true
		}
	}
	return false
}
