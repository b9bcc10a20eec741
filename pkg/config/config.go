// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads agentcore settings from defaults, YAML files,
// AGENTCORE_* environment variables and --set command line overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides: AGENTCORE_HTTP_ADDR -> http.addr.
const EnvPrefix = "AGENTCORE_"

// ProfileEnv selects a profile overlay when no --profile flag is given.
const ProfileEnv = "AGENTCORE_PROFILE"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	Agent     AgentConfig     `koanf:"agent"`
	LLM       LLMConfig       `koanf:"llm"`
	Notes     NotesConfig     `koanf:"notes"`
	RunStore  RunStoreConfig  `koanf:"runstore"`
	Search    SearchConfig    `koanf:"search"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	MCP       MCPConfig       `koanf:"mcp"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type HTTPConfig struct {
	Addr        string   `koanf:"addr"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type AgentConfig struct {
	MaxSteps   int      `koanf:"max_steps"`
	AllowTools []string `koanf:"allow_tools"`
	DenyTools  []string `koanf:"deny_tools"`
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // rules, ollama, mock
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	Temperature float64 `koanf:"temperature"`
	Retries     int     `koanf:"retries"`
}

type NotesConfig struct {
	Backend  string `koanf:"backend"` // memory, redis
	RedisURL string `koanf:"redis_url"`
}

type RunStoreConfig struct {
	Backend string `koanf:"backend"` // memory, sqlite
	DSN     string `koanf:"dsn"`
}

type SearchConfig struct {
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type MCPConfig struct {
	Servers []MCPServerConfig `koanf:"servers"`
}

// MCPServerConfig describes a remote MCP server whose tools become capabilities.
type MCPServerConfig struct {
	Name      string   `koanf:"name"`
	Transport string   `koanf:"transport"` // stdio, http
	Command   string   `koanf:"command"`
	Args      []string `koanf:"args"`
	Env       []string `koanf:"env"`
	URL       string   `koanf:"url"`
	Prefix    string   `koanf:"prefix"`
}

var defaults = map[string]any{
	"log.level":  "info",
	"log.format": "text",

	"http.addr":         ":8000",
	"http.cors_origins": []string{"http://localhost:3000", "http://localhost:8000"},

	"agent.max_steps": 10,

	"llm.provider":    "rules",
	"llm.model":       "qwen2.5-coder:7b-instruct-q5_K_M",
	"llm.base_url":    "http://localhost:11434",
	"llm.temperature": 0.1,
	"llm.retries":     3,

	"notes.backend":   "memory",
	"notes.redis_url": "redis://localhost:6379/0",

	"runstore.backend": "sqlite",
	"runstore.dsn":     "file:agentcore?mode=memory&cache=shared",

	"search.timeout":         "5s",
	"search.rate_per_second": 5.0,
	"search.burst":           5,

	"telemetry.exporter":      "none",
	"telemetry.otlp_endpoint": "localhost:4317",
	"telemetry.otlp_insecure": true,
}

// Load reads defaults, the YAML file at path (if any) and the environment.
func Load(path string) (*Config, error) {
	return LoadWithProfile(path, os.Getenv(ProfileEnv))
}

// LoadWithProfile is Load plus the overlay config.<profile>.yaml next to path.
// A missing overlay is ignored.
func LoadWithProfile(path, profile string) (*Config, error) {
	k, err := load(path, profile)
	if err != nil {
		return nil, err
	}
	return unmarshal(k)
}

// LoadWithCLI parses --config, --profile and repeated --set key=value flags out
// of args and applies the overrides last.
func LoadWithCLI(args []string) (*Config, error) {
	opts, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	profile := opts.profile
	if profile == "" {
		profile = os.Getenv(ProfileEnv)
	}
	k, err := load(opts.configPath, profile)
	if err != nil {
		return nil, err
	}
	for key, value := range opts.sets {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("apply --set %s: %w", key, err)
		}
	}
	return unmarshal(k)
}

func load(path, profile string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if profile != "" {
			overlay := profileConfigPath(path, profile)
			if _, err := os.Stat(overlay); err == nil {
				if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
					return nil, fmt.Errorf("load profile %s: %w", overlay, err)
				}
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	return k, nil
}

// envKey maps AGENTCORE_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "profile" {
		return ""
	}
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + key
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// profileConfigPath returns dir/name.<profile>.ext for dir/name.ext.
func profileConfigPath(path, profile string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + profile + ext
}

type cliOptions struct {
	configPath string
	profile    string
	sets       map[string]any
}

func parseCLIOverrides(args []string) (cliOptions, error) {
	opts := cliOptions{sets: make(map[string]any)}
	for i := 0; i < len(args); i++ {
		name, value, inline := strings.Cut(args[i], "=")
		flag := strings.TrimLeft(name, "-")
		if flag == name || (flag != "config" && flag != "profile" && flag != "set") {
			continue
		}
		if !inline {
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing value for %s", name)
			}
			i++
			value = args[i]
		}
		switch flag {
		case "config":
			opts.configPath = value
		case "profile":
			opts.profile = value
		case "set":
			key, raw, ok := strings.Cut(value, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return opts, fmt.Errorf("invalid --set value %q, expected key=value", value)
			}
			opts.sets[key] = parseValue(raw)
		}
	}
	return opts, nil
}

// parseValue decodes JSON objects and arrays; everything else stays a string
// and is converted by the decoder.
func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return raw
}
