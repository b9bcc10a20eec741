// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package planner decides the next action of an agent run: answer the goal or
// invoke one of the candidate capabilities.
package planner

import (
	"context"
	"strings"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
)

// Kind identifies the decision variant.
type Kind string

const (
	// KindAnswer ends the run with Text as output.
	KindAnswer Kind = "answer"
	// KindInvoke runs Tool with Args.
	KindInvoke Kind = "invoke"
)

// Decision is the outcome of one planning call.
type Decision struct {
	Kind Kind
	Text string
	Tool string
	Args map[string]any
}

// Answer returns a decision that ends the run with text.
func Answer(text string) Decision {
	return Decision{Kind: KindAnswer, Text: text}
}

// Invoke returns a decision that runs tool with args.
func Invoke(tool string, args map[string]any) Decision {
	if args == nil {
		args = map[string]any{}
	}
	return Decision{Kind: KindInvoke, Tool: tool, Args: args}
}

// Validate rejects decisions the agent cannot act on.
func (d Decision) Validate() error {
	switch d.Kind {
	case KindAnswer:
		return nil
	case KindInvoke:
		if strings.TrimSpace(d.Tool) == "" {
			return errors.Newf(errors.CodePlannerFailure, "invoke decision without a tool name")
		}
		return nil
	default:
		return errors.Newf(errors.CodePlannerFailure, "unknown decision kind %q", d.Kind)
	}
}

// Request carries what a planner may look at.
type Request struct {
	Goal    string
	Context string
	// Tools are the candidate descriptors, already filtered by the caller.
	Tools []core.Descriptor
	// History holds the steps taken so far, in order.
	History []core.Step
}

// HasTool reports whether name is among the candidates.
func (r Request) HasTool(name string) bool {
	for _, d := range r.Tools {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Planner produces one decision per call.
type Planner interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// Func adapts a function to Planner.
type Func func(ctx context.Context, req Request) (Decision, error)

// Decide calls f.
func (f Func) Decide(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}
