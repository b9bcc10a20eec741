// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/agentcore/pkg/errors"
)

// MeterName is the instrumentation scope of agent metrics.
const MeterName = "agentcore/agent"

// AgentMetrics records run and step counters. A nil *AgentMetrics is a no-op.
type AgentMetrics struct {
	runs       metric.Int64Counter
	steps      metric.Int64Counter
	stepErrors metric.Int64Counter
	latency    metric.Float64Histogram
}

// NewAgentMetrics registers the agent instruments on the global meter provider.
func NewAgentMetrics() (*AgentMetrics, error) {
	return NewAgentMetricsWithMeter(otel.Meter(MeterName))
}

// NewAgentMetricsWithMeter registers the agent instruments on meter.
func NewAgentMetricsWithMeter(meter metric.Meter) (*AgentMetrics, error) {
	runs, err := meter.Int64Counter(
		"agentcore.runs.total",
		metric.WithDescription("Finished agent runs by status"),
	)
	if err != nil {
		return nil, err
	}
	steps, err := meter.Int64Counter(
		"agentcore.steps.total",
		metric.WithDescription("Executed steps by capability"),
	)
	if err != nil {
		return nil, err
	}
	stepErrors, err := meter.Int64Counter(
		"agentcore.steps.errors",
		metric.WithDescription("Failed steps by capability and error code"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"agentcore.run.latency_ms",
		metric.WithDescription("Run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &AgentMetrics{runs: runs, steps: steps, stepErrors: stepErrors, latency: latency}, nil
}

// RecordStep counts a step and, when err is set, a step error.
func (m *AgentMetrics) RecordStep(ctx context.Context, tool string, err error) {
	if m == nil {
		return
	}
	m.steps.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrToolName, tool),
		attribute.Bool(AttrToolSuccess, err == nil),
	))
	if err != nil {
		m.stepErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String(AttrToolName, tool),
			attribute.String(AttrErrorCode, string(errors.CodeOf(err))),
		))
	}
}

// RecordRun counts a finished run and its duration.
func (m *AgentMetrics) RecordRun(ctx context.Context, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrRunStatus, status))
	m.runs.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
