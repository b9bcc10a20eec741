// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package runstore keeps an audit record of finished agent runs.
package runstore

import (
	"context"
	"sync"
	"time"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
)

// Run is the audit record of one finished run.
type Run struct {
	RunID      string      `json:"run_id"`
	Goal       string      `json:"goal"`
	Context    string      `json:"context,omitempty"`
	Tools      []string    `json:"tools,omitempty"`
	Status     string      `json:"status"`
	Output     string      `json:"output"`
	Trace      []core.Step `json:"trace"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Filter limits List queries.
type Filter struct {
	Status string
	Limit  int
}

// Store persists finished runs.
type Store interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, runID string) (Run, error)
	List(ctx context.Context, filter Filter) ([]Run, error)
}

// Memory keeps runs in process memory, in insertion order.
type Memory struct {
	mu    sync.RWMutex
	runs  []Run
	index map[string]int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{index: make(map[string]int)}
}

// Save stores run, replacing an earlier record with the same id.
func (s *Memory) Save(_ context.Context, run Run) error {
	if run.RunID == "" {
		return errors.Newf(errors.CodeInvalidInput, "run id must not be empty")
	}
	run = normalize(run)
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[run.RunID]; ok {
		s.runs[i] = run
		return nil
	}
	s.index[run.RunID] = len(s.runs)
	s.runs = append(s.runs, run)
	return nil
}

// Get returns the run with runID or a NOT_FOUND error.
func (s *Memory) Get(_ context.Context, runID string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[runID]
	if !ok {
		return Run{}, notFound(runID)
	}
	return s.runs[i], nil
}

// List returns runs matching filter, oldest first.
func (s *Memory) List(_ context.Context, filter Filter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		out = append(out, run)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func notFound(runID string) error {
	return errors.Newf(errors.CodeNotFound, "run %q not found", runID).WithContext("run_id", runID)
}

func normalize(run Run) Run {
	run.StartedAt = utc(run.StartedAt)
	run.FinishedAt = utc(run.FinishedAt)
	trace := make([]core.Step, len(run.Trace))
	copy(trace, run.Trace)
	run.Trace = trace
	return run
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

var _ Store = (*Memory)(nil)
