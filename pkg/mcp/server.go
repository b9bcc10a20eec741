// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes registered capabilities as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server publishing every capability in reg.
func NewServer(name, version string, reg *registry.Registry) *Server {
	s := &Server{mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false))}
	for _, d := range reg.List() {
		s.addCapability(d)
	}
	return s
}

func (s *Server) addCapability(d core.Descriptor) {
	tool := mcp.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.InputSchema,
	}
	capability := d.Capability
	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if err := core.ValidateInput(capability.InputSchema(), args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := capability.Run(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{mcp.NewTextContent(string(text))},
			StructuredContent: out,
		}, nil
	})
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
