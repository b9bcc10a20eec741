// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package proposalnote provides the governance_note capability, which appends
// free-text notes to governance proposals.
package proposalnote

import (
	"context"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/notes"
	"github.com/mark3labs/mcp-go/mcp"
)

// Name is the registry key of the capability.
const Name = "governance_note"

// Tool appends notes to a notes.Store.
type Tool struct {
	store notes.Store
}

// New returns the capability backed by store.
func New(store notes.Store) *Tool {
	return &Tool{store: store}
}

func (*Tool) Name() string { return Name }

func (*Tool) Description() string {
	return "Adds a note to a governance proposal. " +
		"Input: {'proposal_id': 'PROP-123', 'note': 'text'}. Returns: confirmation and total note count."
}

func (*Tool) InputSchema() mcp.ToolInputSchema {
	return core.ObjectSchema([]string{"proposal_id", "note"}, map[string][2]string{
		"proposal_id": {"string", "Identifier of the governance proposal"},
		"note":        {"string", "Note to attach to the proposal"},
	})
}

// Run appends input["note"] to input["proposal_id"].
func (t *Tool) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	id, err := core.StringArg(input, "proposal_id")
	if err != nil {
		return nil, err
	}
	note, err := core.StringArg(input, "note")
	if err != nil {
		return nil, err
	}
	total, err := t.store.AddNote(ctx, id, note)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"proposal_id": id,
		"note_added":  note,
		"total_notes": total,
	}, nil
}

var _ core.Capability = (*Tool)(nil)
