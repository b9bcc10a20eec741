// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jllopis/agentcore/pkg/core"
)

const responseContract = `Respond with a single JSON object and nothing else.
To use a tool: {"action": "use_tool", "tool_name": "<name>", "tool_input": {...}, "reasoning": "<why>"}
To answer directly: {"action": "answer", "final_answer": "<answer for the user>", "reasoning": "<why>"}
Use at most one tool per response. When the execution history already contains what the goal asks for, answer.`

func systemPrompt(tools []core.Descriptor) string {
	var b strings.Builder
	b.WriteString("You are an AI agent that can use tools to accomplish tasks.\n\n")
	if len(tools) == 0 {
		b.WriteString("No tools are available; answer directly.\n")
	} else {
		b.WriteString("Available tools:\n")
		for _, t := range tools {
			schema, _ := json.Marshal(t.InputSchema)
			fmt.Fprintf(&b, "- %s: %s\n  Input schema: %s\n", t.Name, t.Description, schema)
		}
	}
	b.WriteString("\n")
	b.WriteString(responseContract)
	return b.String()
}

func userPrompt(req Request) string {
	lines := []string{"Goal: " + req.Goal}
	if strings.TrimSpace(req.Context) != "" {
		lines = append(lines, "Context: "+req.Context)
	}
	if len(req.History) > 0 {
		lines = append(lines, "", "Execution history:")
		for _, step := range req.History {
			input, _ := json.Marshal(step.Input)
			if step.Failed() {
				lines = append(lines, fmt.Sprintf("  Step %d: Used %s with input %s -> ERROR: %s",
					step.Step, step.Tool, input, step.ErrorText()))
				continue
			}
			output, _ := json.Marshal(step.Output)
			lines = append(lines, fmt.Sprintf("  Step %d: Used %s with input %s -> %s",
				step.Step, step.Tool, input, output))
		}
	}
	lines = append(lines, "", "What should be the next step?")
	return strings.Join(lines, "\n")
}
