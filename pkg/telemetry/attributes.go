// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/jllopis/agentcore/pkg/errors"
)

// Attribute keys for agent spans and metrics.
const (
	AttrRunID      = "agentcore.run.id"
	AttrRunStatus  = "agentcore.run.status"
	AttrRunSteps   = "agentcore.run.steps"
	AttrMaxSteps   = "agentcore.run.max_steps"
	AttrToolsCount = "agentcore.tools.count"

	AttrStep        = "agentcore.step.number"
	AttrToolName    = "agentcore.tool.name"
	AttrToolSuccess = "agentcore.tool.success"

	AttrDecision = "agentcore.planner.decision"

	AttrErrorCode        = "error.code"
	AttrErrorRecoverable = "error.recoverable"
)

// RunAttributes describes a run at start.
func RunAttributes(runID string, maxSteps, toolsCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.Int(AttrMaxSteps, maxSteps),
		attribute.Int(AttrToolsCount, toolsCount),
	}
}

// RunResultAttributes describes a finished run.
func RunResultAttributes(status string, steps int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunStatus, status),
		attribute.Int(AttrRunSteps, steps),
	}
}

// StepAttributes describes one capability call.
func StepAttributes(step int, tool string, success bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrStep, step),
		attribute.String(AttrToolName, tool),
		attribute.Bool(AttrToolSuccess, success),
	}
}

// ErrorAttributes describes err with its code, or nothing when err is nil.
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	attrs := []attribute.KeyValue{attribute.String(AttrErrorCode, string(errors.CodeOf(err)))}
	if e, ok := errors.As(err); ok {
		attrs = append(attrs, attribute.String(AttrErrorRecoverable, e.RecoverableString()))
	}
	return attrs
}
