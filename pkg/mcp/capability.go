// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/jllopis/agentcore/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolCaller abstracts MCP tool execution for adapters.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// Capability exposes a remote MCP tool as a core.Capability.
type Capability struct {
	name   string
	tool   mcp.Tool
	caller ToolCaller
}

// NewCapability wraps tool. The capability name defaults to the tool name.
func NewCapability(tool mcp.Tool, caller ToolCaller) (*Capability, error) {
	return NewPrefixedCapability("", tool, caller)
}

// NewPrefixedCapability wraps tool under prefix+tool.Name.
func NewPrefixedCapability(prefix string, tool mcp.Tool, caller ToolCaller) (*Capability, error) {
	if strings.TrimSpace(tool.Name) == "" {
		return nil, errors.Newf(errors.CodeInvalidInput, "mcp tool name is required")
	}
	if caller == nil {
		return nil, errors.Newf(errors.CodeInvalidInput, "mcp tool caller is required")
	}
	return &Capability{name: prefix + tool.Name, tool: tool, caller: caller}, nil
}

func (c *Capability) Name() string { return c.name }

func (c *Capability) Description() string { return c.tool.Description }

func (c *Capability) InputSchema() mcp.ToolInputSchema {
	schema := c.tool.InputSchema
	if schema.Type == "" {
		schema.Type = "object"
	}
	return schema
}

// Run calls the remote tool. A result flagged IsError becomes a TOOL_FAILURE.
func (c *Capability) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if input == nil {
		input = map[string]any{}
	}
	result, err := c.caller.CallTool(ctx, c.tool.Name, input)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeToolFailure, "mcp tool call failed")
	}
	return resultToOutput(c.tool.Name, result)
}

func resultToOutput(tool string, result *mcp.CallToolResult) (map[string]any, error) {
	if result == nil {
		return nil, errors.Newf(errors.CodeToolFailure, "mcp tool %s returned no result", tool)
	}
	text := extractTextContent(result.Content)
	if result.IsError {
		return nil, errors.Newf(errors.CodeToolFailure, "mcp tool %s returned error: %s", tool, text).
			WithContext("tool", tool)
	}
	if structured, ok := result.StructuredContent.(map[string]any); ok {
		return structured, nil
	}
	if strings.HasPrefix(strings.TrimSpace(text), "{") {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(text), &decoded); err == nil {
			return decoded, nil
		}
	}
	return map[string]any{"text": text}, nil
}

func extractTextContent(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolLister lists the tools of an MCP server.
type ToolLister interface {
	ToolCaller
	ListTools(ctx context.Context) ([]mcp.Tool, error)
}

// RegisterServerTools registers every tool of c in reg under prefix and
// returns the registered capability names.
func RegisterServerTools(ctx context.Context, reg *registry.Registry, c ToolLister, prefix string) ([]string, error) {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		capability, err := NewPrefixedCapability(prefix, tool, c)
		if err != nil {
			return names, err
		}
		if err := reg.Register(capability); err != nil {
			return names, err
		}
		names = append(names, capability.Name())
	}
	return names, nil
}

var _ core.Capability = (*Capability)(nil)
