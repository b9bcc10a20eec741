// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package core defines the capability contract, the descriptor handed to planners,
// and the per-run execution state shared by the agent loop and its collaborators.
package core

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Capability is a named unit of work with a declared input shape.
// Run executes synchronously; failures are returned, never panicked.
type Capability interface {
	Name() string
	Description() string
	InputSchema() mcp.ToolInputSchema
	Run(ctx context.Context, input map[string]any) (map[string]any, error)
}

// Descriptor is the registry entry a planner sees for a capability.
type Descriptor struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	InputSchema mcp.ToolInputSchema `json:"input_schema"`
	Capability  Capability          `json:"-"`
}

// Describe builds the descriptor for c.
func Describe(c Capability) Descriptor {
	return Descriptor{
		Name:        c.Name(),
		Description: c.Description(),
		InputSchema: c.InputSchema(),
		Capability:  c,
	}
}

// ObjectSchema is a helper for building object schemas with typed properties.
// props maps a property name to its JSON type and description.
func ObjectSchema(required []string, props map[string][2]string) mcp.ToolInputSchema {
	properties := make(map[string]any, len(props))
	for name, p := range props {
		properties[name] = map[string]any{
			"type":        p[0],
			"description": p[1],
		}
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
