// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"testing"
)

func TestHealthChecksOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]HealthStatus
		expected HealthStatus
	}{
		{"empty", map[string]HealthStatus{}, HealthHealthy},
		{"all healthy", map[string]HealthStatus{"a": HealthHealthy, "b": HealthHealthy}, HealthHealthy},
		{"one degraded", map[string]HealthStatus{"a": HealthHealthy, "b": HealthDegraded}, HealthDegraded},
		{"unhealthy wins", map[string]HealthStatus{"a": HealthDegraded, "b": HealthUnhealthy}, HealthUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := NewHealthChecks()
			for name, status := range tt.statuses {
				status := status
				checks.Register(name, HealthCheckFunc(func(context.Context) HealthResult {
					return HealthResult{Status: status}
				}))
			}
			results, overall := checks.CheckAll(context.Background())
			if overall != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, overall)
			}
			if len(results) != len(tt.statuses) {
				t.Fatalf("expected %d results, got %d", len(tt.statuses), len(results))
			}
			for _, r := range results {
				if r.Component == "" {
					t.Errorf("expected component name to be set")
				}
				if r.LastCheck.IsZero() {
					t.Errorf("expected LastCheck to be set")
				}
			}
		})
	}
}

func TestPingChecker(t *testing.T) {
	ok := PingChecker(func(context.Context) error { return nil }).Check(context.Background())
	if ok.Status != HealthHealthy {
		t.Fatalf("expected healthy, got %v", ok.Status)
	}
	bad := PingChecker(func(context.Context) error { return errors.New("connection refused") }).Check(context.Background())
	if bad.Status != HealthUnhealthy || bad.Message != "connection refused" {
		t.Fatalf("unexpected result %+v", bad)
	}
}
