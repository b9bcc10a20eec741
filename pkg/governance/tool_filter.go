// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package governance applies process-level access rules to the capabilities a run may use.
package governance

import (
	"path"
	"strings"

	"github.com/jllopis/agentcore/pkg/core"
)

// DecisionStatus captures the filter outcome.
type DecisionStatus string

const (
	DecisionStatusAllow DecisionStatus = "allow"
	DecisionStatusDeny  DecisionStatus = "deny"
)

// Decision captures the outcome of a filter evaluation.
type Decision struct {
	Allowed bool
	Status  DecisionStatus
	Reason  string
}

// IsAllowed returns true if the decision permits the capability.
func (d Decision) IsAllowed() bool { return d.Allowed }

// ToolFilter restricts capabilities by allowlist and denylist. Entries are exact names
// or path.Match globs (e.g. "mcp_*").
type ToolFilter struct {
	allowlist map[string]bool
	denylist  map[string]bool
}

// ToolFilterOption configures a ToolFilter.
type ToolFilterOption func(*ToolFilter)

// NewToolFilter creates a new ToolFilter with the given options.
func NewToolFilter(opts ...ToolFilterOption) *ToolFilter {
	tf := &ToolFilter{
		allowlist: make(map[string]bool),
		denylist:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// WithAllowlist sets the permitted capability names/patterns.
func WithAllowlist(tools []string) ToolFilterOption {
	return func(tf *ToolFilter) { addAll(tf.allowlist, tools) }
}

// WithDenylist sets the forbidden capability names/patterns.
func WithDenylist(tools []string) ToolFilterOption {
	return func(tf *ToolFilter) { addAll(tf.denylist, tools) }
}

// IsAllowed checks a capability name. The denylist takes precedence; a non-empty
// allowlist must contain the name.
func (tf *ToolFilter) IsAllowed(name string) Decision {
	if tf == nil {
		return Decision{Allowed: true, Status: DecisionStatusAllow}
	}
	if matches(name, tf.denylist) {
		return Decision{Status: DecisionStatusDeny, Reason: "capability is in denylist"}
	}
	if len(tf.allowlist) > 0 && !matches(name, tf.allowlist) {
		return Decision{Status: DecisionStatusDeny, Reason: "capability is not in allowlist"}
	}
	return Decision{Allowed: true, Status: DecisionStatusAllow}
}

// Filter returns the descriptors that pass the filter, preserving order.
func (tf *ToolFilter) Filter(descs []core.Descriptor) []core.Descriptor {
	if tf == nil || (len(tf.allowlist) == 0 && len(tf.denylist) == 0) {
		return descs
	}
	out := make([]core.Descriptor, 0, len(descs))
	for _, d := range descs {
		if tf.IsAllowed(d.Name).IsAllowed() {
			out = append(out, d)
		}
	}
	return out
}

func matches(name string, list map[string]bool) bool {
	if list[name] {
		return true
	}
	for pattern := range list {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func addAll(dst map[string]bool, tools []string) {
	for _, tool := range tools {
		tool = strings.TrimSpace(tool)
		if tool != "" {
			dst[tool] = true
		}
	}
}
