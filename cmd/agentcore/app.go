// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jllopis/agentcore/pkg/agent"
	"github.com/jllopis/agentcore/pkg/config"
	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/governance"
	"github.com/jllopis/agentcore/pkg/llm"
	"github.com/jllopis/agentcore/pkg/mcp"
	"github.com/jllopis/agentcore/pkg/notes"
	"github.com/jllopis/agentcore/pkg/planner"
	"github.com/jllopis/agentcore/pkg/registry"
	"github.com/jllopis/agentcore/pkg/resilience"
	"github.com/jllopis/agentcore/pkg/runstore"
	"github.com/jllopis/agentcore/pkg/telemetry"
	"github.com/jllopis/agentcore/pkg/tools/mathtool"
	"github.com/jllopis/agentcore/pkg/tools/proposalnote"
	"github.com/jllopis/agentcore/pkg/tools/search"
)

// app holds the wired components of one process.
type app struct {
	logger   *slog.Logger
	registry *registry.Registry
	notes    notes.Store
	runs     runstore.Store
	agent    *agent.Agent
	health   *core.HealthChecks
	closers  []func() error
}

// newApp wires the components described by cfg. Logs go to logOut.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	a := &app{
		logger: telemetry.ConfigureSlog(logOut, cfg.Log.Level, cfg.Log.Format),
		health: core.NewHealthChecks(),
	}

	shutdown, err := telemetry.InitWithConfig("agentcore", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		Writer:       logOut,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return shutdown(context.Background()) })

	if err := a.openNotes(cfg.Notes); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openRunStore(cfg.RunStore); err != nil {
		a.Close()
		return nil, err
	}

	searchOpts := []search.Option{search.WithTimeout(cfg.Search.Timeout)}
	if cfg.Search.RatePerSecond > 0 {
		searchOpts = append(searchOpts, search.WithRateLimit(cfg.Search.RatePerSecond, cfg.Search.Burst))
	}
	a.registry, err = registry.New(
		mathtool.New(),
		proposalnote.New(a.notes),
		search.New(searchOpts...),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.connectMCPServers(ctx, cfg.MCP.Servers)

	p, err := newPlanner(cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.agent, err = agent.New(a.registry, p,
		agent.WithMaxSteps(cfg.Agent.MaxSteps),
		agent.WithToolFilter(toolFilter(cfg.Agent)),
		agent.WithRunStore(a.runs),
		agent.WithLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.health.Register("agent", agent.NewHealthChecker(a.agent))

	for _, d := range a.registry.List() {
		a.logger.Info("capability.registered", slog.String("name", d.Name))
	}
	return a, nil
}

func (a *app) openNotes(cfg config.NotesConfig) error {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		a.notes = notes.NewInMemory()
	case "redis":
		store, err := notes.OpenRedis(cfg.RedisURL)
		if err != nil {
			return err
		}
		a.notes = store
		a.health.Register("notes", core.PingChecker(store.Ping))
		a.closers = append(a.closers, store.Close)
	default:
		return fmt.Errorf("unknown notes backend %q", cfg.Backend)
	}
	return nil
}

func (a *app) openRunStore(cfg config.RunStoreConfig) error {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		a.runs = runstore.NewMemory()
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = runstore.DefaultDSN
		}
		store, err := runstore.OpenSQLite(dsn)
		if err != nil {
			return err
		}
		a.runs = store
		a.health.Register("runstore", core.PingChecker(store.Ping))
		a.closers = append(a.closers, store.Close)
	default:
		return fmt.Errorf("unknown runstore backend %q", cfg.Backend)
	}
	return nil
}

// connectMCPServers registers the tools of every reachable MCP server.
// An unreachable server is logged and skipped.
func (a *app) connectMCPServers(ctx context.Context, servers []config.MCPServerConfig) {
	for _, srv := range servers {
		var (
			c   *mcp.Client
			err error
		)
		switch strings.ToLower(srv.Transport) {
		case "", "stdio":
			c, err = mcp.ConnectStdio(ctx, srv.Command, srv.Env, srv.Args)
		case "http":
			c, err = mcp.ConnectHTTP(ctx, srv.URL)
		default:
			err = fmt.Errorf("unknown transport %q", srv.Transport)
		}
		if err != nil {
			a.logger.Warn("mcp.connect.error", slog.String("server", srv.Name), slog.String("error", err.Error()))
			continue
		}
		a.closers = append(a.closers, c.Close)
		prefix := srv.Prefix
		if prefix == "" {
			prefix = srv.Name
		}
		names, err := mcp.RegisterServerTools(ctx, a.registry, c, prefix)
		if err != nil {
			a.logger.Warn("mcp.tools.error", slog.String("server", srv.Name), slog.String("error", err.Error()))
			continue
		}
		a.health.Register("mcp:"+srv.Name, core.PingChecker(c.Ping))
		a.logger.Info("mcp.connect.complete", slog.String("server", srv.Name), slog.Int("tools", len(names)))
	}
}

func newPlanner(cfg config.LLMConfig) (planner.Planner, error) {
	var provider llm.Provider
	switch strings.ToLower(cfg.Provider) {
	case "", "rules":
		return planner.NewRuleBased(), nil
	case "ollama":
		provider = llm.NewOllama(cfg.BaseURL)
	case "mock":
		provider = &llm.MockProvider{Response: `{"action":"answer","final_answer":"Mock planner: no model is configured."}`}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.Retries > 0 {
		retry = retry.WithMaxAttempts(cfg.Retries)
	}
	return planner.NewLLM(provider, cfg.Model,
		planner.WithRetry(retry),
		planner.WithTemperature(cfg.Temperature),
		planner.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			Name:             "llm:" + cfg.Provider,
		})),
	), nil
}

func toolFilter(cfg config.AgentConfig) *governance.ToolFilter {
	return governance.NewToolFilter(
		governance.WithAllowlist(cfg.AllowTools),
		governance.WithDenylist(cfg.DenyTools),
	)
}

// Close releases every opened resource in reverse order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

// logOutput is where the process logs: stderr, so stdout stays clean for results.
func logOutput() io.Writer { return os.Stderr }
