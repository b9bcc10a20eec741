// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package notes

import (
	"context"
	"sync"
)

// InMemory is an in-process note store. Contents are lost on restart.
type InMemory struct {
	mu    sync.RWMutex
	notes map[string][]string
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{notes: make(map[string][]string)}
}

// AddNote appends note under the store lock.
func (m *InMemory) AddNote(_ context.Context, proposalID, note string) (int, error) {
	if err := validate(proposalID, note); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[proposalID] = append(m.notes[proposalID], note)
	return len(m.notes[proposalID]), nil
}

// Notes returns a copy of the notes for proposalID.
func (m *InMemory) Notes(_ context.Context, proposalID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.notes[proposalID]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// Clear removes every note.
func (m *InMemory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = make(map[string][]string)
	return nil
}

var _ Store = (*InMemory)(nil)
