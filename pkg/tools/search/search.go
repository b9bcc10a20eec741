// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package search provides the web_search capability.
package search

import (
	"context"
	"time"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/jllopis/agentcore/pkg/resilience"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/time/rate"
)

// Name is the registry key of the capability.
const Name = "web_search"

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 5 * time.Second

// Tool runs queries against a Backend with its own timeout and rate limit.
type Tool struct {
	backend Backend
	timeout time.Duration
	limiter *rate.Limiter
}

// Option configures the Tool.
type Option func(*Tool)

// WithBackend replaces the default StaticBackend.
func WithBackend(b Backend) Option {
	return func(t *Tool) {
		if b != nil {
			t.backend = b
		}
	}
}

// WithTimeout sets the per-call timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(t *Tool) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithRateLimit allows perSecond calls with the given burst.
// A non-positive perSecond disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(t *Tool) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New returns the capability. Without options it uses StaticBackend, a 5s
// timeout and no throttling.
func New(opts ...Option) *Tool {
	t := &Tool{backend: StaticBackend{}, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (*Tool) Name() string { return Name }

func (*Tool) Description() string {
	return "Searches the web for information. Input: {'query': 'search terms'}. " +
		"Returns: list of search results with titles, URLs, and snippets."
}

func (*Tool) InputSchema() mcp.ToolInputSchema {
	return core.ObjectSchema([]string{"query"}, map[string][2]string{
		"query": {"string", "Search terms"},
	})
}

// Run queries the backend. Exceeding the rate limit or the timeout yields a
// RATE_LIMITED or TIMEOUT error.
func (t *Tool) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, err := core.StringArg(input, "query")
	if err != nil {
		return nil, err
	}
	if t.limiter != nil && !t.limiter.Allow() {
		return nil, errors.Newf(errors.CodeRateLimit, "search rate limit exceeded").
			WithContext("query", query).
			WithRecoverable(true)
	}

	results, err := resilience.WithTimeoutResult(ctx, resilience.TimeoutConfig{Duration: t.timeout},
		func(ctx context.Context) ([]Result, error) {
			return t.backend.Search(ctx, query)
		})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.New(errors.CodeToolFailure, "search backend failed", err).
			WithContext("query", query)
	}

	items := make([]any, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}
	return map[string]any{
		"query":   query,
		"results": items,
	}, nil
}

var _ core.Capability = (*Tool)(nil)
