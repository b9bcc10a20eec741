// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/agentcore/pkg/agent"
	"github.com/jllopis/agentcore/pkg/config"
	"github.com/jllopis/agentcore/pkg/core"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, args, err := parseGlobalFlags([]string{
		"--config", "c.yaml", "--profile=dev", "--set", "llm.provider=rules", "--output", "yaml", "run", "--tools", "math", "2 + 2",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if flags.ConfigPath != "c.yaml" || flags.Profile != "dev" || flags.Output != "yaml" {
		t.Fatalf("unexpected flags %+v", flags)
	}
	want := []string{"--config", "c.yaml", "--profile", "dev", "--set", "llm.provider=rules"}
	if strings.Join(flags.ConfigArgs, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected config args %v", flags.ConfigArgs)
	}
	if strings.Join(args, " ") != "run --tools math 2 + 2" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestParseGlobalFlagsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--config"},
		{"--output", "xml", "run"},
		{"--verbose", "run"},
	} {
		if _, _, err := parseGlobalFlags(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
	flags, _, err := parseGlobalFlags([]string{"--json", "tools"})
	if err != nil || flags.Output != "json" {
		t.Fatalf("expected json output, got %+v %v", flags, err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithCLI([]string{
		"--set", "runstore.backend=memory",
		"--set", "telemetry.exporter=none",
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestNewAppRunsGoal(t *testing.T) {
	var logs bytes.Buffer
	a, err := newApp(context.Background(), testConfig(t), &logs)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if a.registry.Len() != 3 {
		t.Fatalf("expected 3 capabilities, got %d", a.registry.Len())
	}
	result, err := a.agent.Run(context.Background(), agent.Task{Goal: "Calculate (100 + 50) * 2", Tools: []string{"math"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != agent.StatusSuccess || result.Trace[0].Output["result"] != float64(300) {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(logs.String(), "capability.registered") {
		t.Fatalf("expected startup log, got %s", logs.String())
	}
	if _, overall := a.health.CheckAll(context.Background()); overall != core.HealthHealthy {
		t.Fatalf("expected healthy app, got %s", overall)
	}
}

func TestNewAppRejectsUnknownBackends(t *testing.T) {
	tests := []string{
		"notes.backend=etcd",
		"runstore.backend=postgres",
		"llm.provider=openai",
		"telemetry.exporter=zipkin",
	}
	for _, set := range tests {
		t.Run(set, func(t *testing.T) {
			cfg, err := config.LoadWithCLI([]string{"--set", "runstore.backend=memory", "--set", set})
			if err != nil {
				t.Fatalf("config: %v", err)
			}
			if _, err := newApp(context.Background(), cfg, &bytes.Buffer{}); err == nil {
				t.Fatalf("expected error for %s", set)
			}
		})
	}
}

func TestNewPlanner(t *testing.T) {
	for _, provider := range []string{"rules", "ollama", "mock"} {
		if _, err := newPlanner(config.LLMConfig{Provider: provider, Model: "m", BaseURL: "http://localhost:11434"}); err != nil {
			t.Fatalf("%s: %v", provider, err)
		}
	}
}

func sampleResult() agent.Result {
	msg := "[DIVISION_BY_ZERO] division by zero"
	return agent.Result{
		RunID:  "run-1",
		Status: agent.StatusSuccess,
		Output: "Task failed: " + msg,
		Trace: []core.Step{{
			Step:      1,
			Tool:      "math",
			Input:     map[string]any{"expression": "1 / 0"},
			Error:     &msg,
			Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	}
}

func TestPrintResult(t *testing.T) {
	var text bytes.Buffer
	if err := printResult(&text, "text", sampleResult()); err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(text.String(), "Status: success") || !strings.Contains(text.String(), "error: [DIVISION_BY_ZERO]") {
		t.Fatalf("unexpected text output %s", text.String())
	}

	var js bytes.Buffer
	if err := printResult(&js, "json", sampleResult()); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil || decoded["run_id"] != "run-1" {
		t.Fatalf("unexpected json output %s (%v)", js.String(), err)
	}

	var ym bytes.Buffer
	if err := printResult(&ym, "yaml", sampleResult()); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(ym.Bytes(), &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if fromYAML["run_id"] != "run-1" || fromYAML["status"] != "success" {
		t.Fatalf("unexpected yaml output %s", ym.String())
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(" math, ,web_search "); strings.Join(got, "|") != "math|web_search" {
		t.Fatalf("unexpected list %v", got)
	}
	if splitList("") != nil {
		t.Fatal("expected nil for empty list")
	}
}
