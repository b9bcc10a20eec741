// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"
)

func TestLoadWithCLIOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
llm:
  provider: ollama
  model: model-a
telemetry:
  exporter: stdout
`)
	t.Setenv("AGENTCORE_LLM_PROVIDER", "mock")

	cfg, err := LoadWithCLI([]string{
		"serve",
		"--config", path,
		"--set", "llm.provider=rules",
		"--set=agent.max_steps=7",
		"--set", "agent.allow_tools=math,web_search",
		"--set", `mcp.servers=[{"name":"demo","transport":"http","url":"http://localhost:8080"}]`,
	})
	if err != nil {
		t.Fatalf("LoadWithCLI failed: %v", err)
	}
	if cfg.LLM.Provider != "rules" {
		t.Fatalf("expected cli override provider, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "model-a" || cfg.Telemetry.Exporter != "stdout" {
		t.Fatalf("expected file values, got %+v %+v", cfg.LLM, cfg.Telemetry)
	}
	if cfg.Agent.MaxSteps != 7 {
		t.Fatalf("expected max steps override, got %d", cfg.Agent.MaxSteps)
	}
	if len(cfg.Agent.AllowTools) != 2 || cfg.Agent.AllowTools[1] != "web_search" {
		t.Fatalf("unexpected allow tools %v", cfg.Agent.AllowTools)
	}
	if len(cfg.MCP.Servers) != 1 || cfg.MCP.Servers[0].URL != "http://localhost:8080" {
		t.Fatalf("unexpected MCP servers %+v", cfg.MCP.Servers)
	}
}

func TestLoadWithCLIProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "log:\n  level: info\n")
	writeFile(t, filepath.Join(dir, "config.dev.yaml"), "log:\n  level: debug\n")

	tests := []struct {
		name string
		args []string
		env  string
		want string
	}{
		{"flag", []string{"--config", path, "--profile", "dev"}, "", "debug"},
		{"env", []string{"--config", path}, "dev", "debug"},
		{"none", []string{"--config", path}, "", "info"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(ProfileEnv, tc.env)
			cfg, err := LoadWithCLI(tc.args)
			if err != nil {
				t.Fatalf("LoadWithCLI failed: %v", err)
			}
			if cfg.Log.Level != tc.want {
				t.Fatalf("log level = %s, want %s", cfg.Log.Level, tc.want)
			}
		})
	}
}

func TestParseCLIOverridesErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--config"},
		{"--set"},
		{"--set", "invalid"},
		{"--set", "=value"},
	} {
		if _, err := parseCLIOverrides(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestParseCLIOverridesIgnoresOtherArgs(t *testing.T) {
	opts, err := parseCLIOverrides([]string{"run", "--output", "yaml", "-config=c.yaml", "goal text"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.configPath != "c.yaml" || len(opts.sets) != 0 {
		t.Fatalf("unexpected options %+v", opts)
	}
}
