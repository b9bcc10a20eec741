// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const defaultNote = "Note added via agent"

var (
	proposalIDPattern = regexp.MustCompile(`(?i)(PROP-[\w\-]+)`)
	noteVerbPattern   = regexp.MustCompile(`(?i)\b(note|notes|record|document|log|append|add)\b`)
	noteLabelPattern  = regexp.MustCompile(`(?i)note[:\s]+"?([^"\n]+)"?`)
	followUpPattern   = regexp.MustCompile(`(?i)\s*what should.*$`)

	digitPattern      = regexp.MustCompile(`\d`)
	operatorPattern   = regexp.MustCompile(`\d\s*[-+*/]\s*[\d(]`)
	whatIsPattern     = regexp.MustCompile(`(?i)what\s+is\s+[-(\d]`)
	mathWordPattern   = regexp.MustCompile(`(?i)\b(calculate|compute|solve|evaluate|sum|product|result of|multiply|divide|add|subtract)\b`)
	mathStripPattern  = regexp.MustCompile(`(?i)\b(calculate|compute|what is|evaluate|solve|result of|the)\b`)
	expressionPattern = regexp.MustCompile(`[\d\s+\-*/().]+`)
	leadingOpPattern  = regexp.MustCompile(`^[+*/\s]+`)
	trailingOpPattern = regexp.MustCompile(`[+\-*/\s]+$`)

	searchStripPattern = regexp.MustCompile(`(?i)\b(search for|search|find|look up|information about|who is|where is|what is|research|learn about)\b`)
	spacePattern       = regexp.MustCompile(`\s+`)
)

// RuleBased is a deterministic planner driven by surface patterns of the goal.
// It invokes at most one capability per run and then answers with a summary of
// that step.
type RuleBased struct{}

// NewRuleBased returns the default planner.
func NewRuleBased() *RuleBased { return &RuleBased{} }

// Decide implements Planner.
func (*RuleBased) Decide(_ context.Context, req Request) (Decision, error) {
	if n := len(req.History); n > 0 {
		return Answer(Summarize(req.History[n-1])), nil
	}

	goal := strings.TrimSpace(req.Goal)
	if req.HasTool("governance_note") {
		if id, note, ok := governanceArgs(goal); ok {
			return Invoke("governance_note", map[string]any{"proposal_id": id, "note": note}), nil
		}
	}
	if req.HasTool("math") && isMath(goal) {
		return Invoke("math", map[string]any{"expression": extractExpression(goal)}), nil
	}
	if req.HasTool("web_search") {
		return Invoke("web_search", map[string]any{"query": extractQuery(goal)}), nil
	}
	return Answer(fmt.Sprintf("I understand your query about '%s'. No tool was needed to answer it.", goal)), nil
}

func governanceArgs(goal string) (id, note string, ok bool) {
	m := proposalIDPattern.FindStringSubmatch(goal)
	if m == nil || !noteVerbPattern.MatchString(goal) {
		return "", "", false
	}
	id = strings.ToUpper(m[1])

	after := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(id) + `[:\s]+(.+?)(?:\n|$)`)
	if nm := after.FindStringSubmatch(goal); nm != nil {
		note = strings.TrimSpace(nm[1])
	} else if nm := noteLabelPattern.FindStringSubmatch(goal); nm != nil {
		note = strings.TrimSpace(nm[1])
	}
	note = followUpPattern.ReplaceAllString(note, "")
	note = strings.Trim(strings.TrimSpace(note), "?. ")
	if note == "" {
		note = defaultNote
	}
	return id, note, true
}

func isMath(goal string) bool {
	if !digitPattern.MatchString(goal) {
		return false
	}
	return operatorPattern.MatchString(goal) || whatIsPattern.MatchString(goal) || mathWordPattern.MatchString(goal)
}

func extractExpression(goal string) string {
	cleaned := strings.TrimSpace(mathStripPattern.ReplaceAllString(goal, ""))
	for _, candidate := range expressionPattern.FindAllString(cleaned, -1) {
		if !digitPattern.MatchString(candidate) {
			continue
		}
		expr := leadingOpPattern.ReplaceAllString(candidate, "")
		expr = strings.TrimRight(trailingOpPattern.ReplaceAllString(expr, ""), ".")
		expr = strings.TrimSpace(expr)
		if expr != "" {
			return expr
		}
	}
	return strings.Trim(cleaned, "?. ")
}

func extractQuery(goal string) string {
	cleaned := searchStripPattern.ReplaceAllString(goal, "")
	cleaned = strings.Trim(strings.TrimSpace(spacePattern.ReplaceAllString(cleaned, " ")), "?. ")
	if cleaned == "" {
		return goal
	}
	return cleaned
}

var _ Planner = (*RuleBased)(nil)
