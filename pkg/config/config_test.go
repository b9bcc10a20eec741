// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ProfileEnv, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "rules" {
		t.Errorf("expected default provider rules, got %s", cfg.LLM.Provider)
	}
	if cfg.HTTP.Addr != ":8000" {
		t.Errorf("unexpected default addr %s", cfg.HTTP.Addr)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected default cors origins %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Agent.MaxSteps != 10 {
		t.Errorf("expected max steps 10, got %d", cfg.Agent.MaxSteps)
	}
	if cfg.Search.Timeout != 5*time.Second {
		t.Errorf("expected 5s search timeout, got %v", cfg.Search.Timeout)
	}
	if cfg.Notes.Backend != "memory" || cfg.RunStore.Backend != "sqlite" || cfg.Telemetry.Exporter != "none" {
		t.Errorf("unexpected backends %+v %+v %+v", cfg.Notes, cfg.RunStore, cfg.Telemetry)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("AGENTCORE_LLM_PROVIDER", "ollama")
	t.Setenv("AGENTCORE_HTTP_ADDR", ":9090")
	t.Setenv("AGENTCORE_AGENT_MAX_STEPS", "4")
	t.Setenv("AGENTCORE_SEARCH_TIMEOUT", "250ms")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected provider ollama from env, got %s", cfg.LLM.Provider)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected addr from env, got %s", cfg.HTTP.Addr)
	}
	if cfg.Agent.MaxSteps != 4 {
		t.Errorf("expected max steps from env, got %d", cfg.Agent.MaxSteps)
	}
	if cfg.Search.Timeout != 250*time.Millisecond {
		t.Errorf("expected search timeout from env, got %v", cfg.Search.Timeout)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
agent:
  max_steps: 3
  deny_tools: ["web_search"]
notes:
  backend: redis
  redis_url: redis://cache:6379/1
mcp:
  servers:
    - name: calc
      transport: stdio
      command: calc-server
      args: ["--quiet"]
`)
	cfg, err := LoadWithProfile(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Agent.MaxSteps != 3 || len(cfg.Agent.DenyTools) != 1 || cfg.Agent.DenyTools[0] != "web_search" {
		t.Errorf("unexpected agent config %+v", cfg.Agent)
	}
	if cfg.Notes.Backend != "redis" || cfg.Notes.RedisURL != "redis://cache:6379/1" {
		t.Errorf("unexpected notes config %+v", cfg.Notes)
	}
	if len(cfg.MCP.Servers) != 1 || cfg.MCP.Servers[0].Command != "calc-server" || cfg.MCP.Servers[0].Args[0] != "--quiet" {
		t.Errorf("unexpected mcp config %+v", cfg.MCP)
	}
	if cfg.LLM.Provider != "rules" {
		t.Errorf("expected defaults to survive, got %s", cfg.LLM.Provider)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadWithProfile(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithProfile(t *testing.T) {
	tmpDir := t.TempDir()
	basePath := filepath.Join(tmpDir, "config.yaml")
	writeFile(t, basePath, `
llm:
  provider: "ollama"
  model: "llama3.1"
log:
  level: "info"
`)
	writeFile(t, filepath.Join(tmpDir, "config.dev.yaml"), `
llm:
  provider: "mock"
log:
  level: "debug"
`)

	tests := []struct {
		name         string
		profile      string
		wantProvider string
		wantLogLevel string
	}{
		{"no profile", "", "ollama", "info"},
		{"dev profile", "dev", "mock", "debug"},
		{"missing profile falls back to base", "staging", "ollama", "info"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadWithProfile(basePath, tc.profile)
			if err != nil {
				t.Fatalf("LoadWithProfile failed: %v", err)
			}
			if cfg.LLM.Provider != tc.wantProvider {
				t.Errorf("provider = %s, want %s", cfg.LLM.Provider, tc.wantProvider)
			}
			if cfg.Log.Level != tc.wantLogLevel {
				t.Errorf("log level = %s, want %s", cfg.Log.Level, tc.wantLogLevel)
			}
			if cfg.LLM.Model != "llama3.1" {
				t.Errorf("expected model from base, got %s", cfg.LLM.Model)
			}
		})
	}
}

func TestProfileConfigPath(t *testing.T) {
	tests := []struct {
		path, profile, want string
	}{
		{"config.yaml", "dev", "config.dev.yaml"},
		{"/etc/agentcore/config.yml", "prod", "/etc/agentcore/config.prod.yml"},
		{"settings", "local", "settings.local"},
	}
	for _, tt := range tests {
		if got := profileConfigPath(tt.path, tt.profile); got != tt.want {
			t.Errorf("profileConfigPath(%q, %q) = %q, want %q", tt.path, tt.profile, got, tt.want)
		}
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"AGENTCORE_HTTP_ADDR":         "http.addr",
		"AGENTCORE_HTTP_CORS_ORIGINS": "http.cors_origins",
		"AGENTCORE_AGENT_MAX_STEPS":   "agent.max_steps",
		"AGENTCORE_PROFILE":           "",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
