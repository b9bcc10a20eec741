// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package notes stores free-text notes attached to governance proposals.
package notes

import (
	"context"
	"strings"

	"github.com/jllopis/agentcore/pkg/errors"
)

// Store keeps an ordered list of notes per proposal id.
// Appends to the same id serialize and preserve arrival order.
type Store interface {
	// AddNote appends note to proposalID, creating the list on first use,
	// and returns the total number of notes after the append.
	AddNote(ctx context.Context, proposalID, note string) (int, error)
	// Notes returns a copy of the notes for proposalID, or an empty slice.
	Notes(ctx context.Context, proposalID string) ([]string, error)
	// Clear removes every note. Intended for tests.
	Clear(ctx context.Context) error
}

func validate(proposalID, note string) error {
	if strings.TrimSpace(proposalID) == "" {
		return errors.Newf(errors.CodeInvalidInput, "proposal id must not be empty")
	}
	if strings.TrimSpace(note) == "" {
		return errors.Newf(errors.CodeInvalidInput, "note must not be empty")
	}
	return nil
}
