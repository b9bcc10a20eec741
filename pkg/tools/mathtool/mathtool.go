// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package mathtool provides the arithmetic capability.
package mathtool

import (
	"context"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/mark3labs/mcp-go/mcp"
)

// Name is the registry key of the arithmetic capability.
const Name = "math"

// Tool evaluates arithmetic expressions without executing arbitrary code.
type Tool struct{}

// New returns the arithmetic capability.
func New() *Tool { return &Tool{} }

func (*Tool) Name() string { return Name }

func (*Tool) Description() string {
	return "Evaluates arithmetic expressions safely. Supports: +, -, *, /, parentheses. " +
		"Input: {'expression': '2 + 2'}. Returns: numeric result."
}

func (*Tool) InputSchema() mcp.ToolInputSchema {
	return core.ObjectSchema([]string{"expression"}, map[string][2]string{
		"expression": {"string", "Arithmetic expression to evaluate"},
	})
}

// Run evaluates input["expression"] and returns {result, expression}.
func (*Tool) Run(_ context.Context, input map[string]any) (map[string]any, error) {
	expr, err := core.StringArg(input, "expression")
	if err != nil {
		return nil, err
	}
	result, err := Evaluate(expr)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"result":     result,
		"expression": expr,
	}, nil
}

var _ core.Capability = (*Tool)(nil)
