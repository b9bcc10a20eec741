// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jllopis/agentcore/pkg/core"
)

// Summarize renders a user-facing sentence for a finished step.
func Summarize(step core.Step) string {
	if step.Failed() {
		return "Task failed: " + step.ErrorText()
	}
	out := step.Output
	switch step.Tool {
	case "math":
		return fmt.Sprintf("Calculation result: %s (from %v)", formatNumber(out["result"]), out["expression"])
	case "web_search":
		return fmt.Sprintf("Found %d search results for '%v'", countResults(out["results"]), out["query"])
	case "governance_note":
		return fmt.Sprintf("Added note to proposal %v (total notes: %s)", out["proposal_id"], formatNumber(out["total_notes"]))
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf("Tool %s completed: %v", step.Tool, out)
	}
	return fmt.Sprintf("Tool %s completed: %s", step.Tool, raw)
}

func formatNumber(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case nil:
		return "?"
	default:
		return fmt.Sprint(n)
	}
}

func countResults(v any) int {
	switch r := v.(type) {
	case []any:
		return len(r)
	case []map[string]any:
		return len(r)
	}
	return 0
}
