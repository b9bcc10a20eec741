// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"sync"
	"time"

	"github.com/jllopis/agentcore/pkg/core"
)

// HealthChecker reports whether the agent can serve runs. Results are cached
// for a short interval so readiness probes do not hammer dependencies.
type HealthChecker struct {
	agent       *Agent
	minInterval time.Duration
	mu          sync.Mutex
	lastResult  core.HealthResult
}

// NewHealthChecker creates a health checker for a.
func NewHealthChecker(a *Agent) *HealthChecker {
	return &HealthChecker{agent: a, minInterval: 5 * time.Second}
}

// Check implements core.HealthChecker.
func (h *HealthChecker) Check(_ context.Context) core.HealthResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.agent.now()
	if !h.lastResult.LastCheck.IsZero() && now.Sub(h.lastResult.LastCheck) < h.minInterval {
		return h.lastResult
	}

	result := core.HealthResult{Component: "agent", LastCheck: now}
	available := len(h.agent.filter.Load().Filter(h.agent.registry.List()))
	switch {
	case h.agent.registry.Len() == 0:
		result.Status = core.HealthDegraded
		result.Message = "no capabilities registered"
	case available == 0:
		result.Status = core.HealthDegraded
		result.Message = "all capabilities are denied by the tool filter"
	default:
		result.Status = core.HealthHealthy
		result.Message = "agent operational"
	}
	h.lastResult = result
	return result
}
