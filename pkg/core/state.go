// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"maps"
	"sync"
	"time"
)

// Step is one completed or failed attempt to run a capability.
// Output and Error are mutually exclusive.
type Step struct {
	Step      int            `json:"step"`
	Tool      string         `json:"tool"`
	Input     map[string]any `json:"input"`
	Output    map[string]any `json:"output"`
	Error     *string        `json:"error"`
	Timestamp time.Time      `json:"timestamp"`
}

// Failed reports whether the step recorded an error.
func (s Step) Failed() bool { return s.Error != nil }

// ErrorText returns the recorded error, or "".
func (s Step) ErrorText() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// State is the mutable record of a single run: the ordered steps plus a scratch memory.
// Steps are append-only and numbered from 1 in execution order.
type State struct {
	mu     sync.Mutex
	steps  []Step
	memory map[string]any
	now    func() time.Time
}

// NewState creates an empty state. now defaults to time.Now.
func NewState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		memory: make(map[string]any),
		now:    now,
	}
}

// Record appends a step for tool with the next sequence number.
// A non-nil err wins over output.
func (s *State) Record(tool string, input, output map[string]any, err error) Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := Step{
		Step:      len(s.steps) + 1,
		Tool:      tool,
		Input:     maps.Clone(input),
		Timestamp: s.now().UTC(),
	}
	if step.Input == nil {
		step.Input = map[string]any{}
	}
	if err != nil {
		msg := err.Error()
		step.Error = &msg
	} else {
		step.Output = maps.Clone(output)
		if step.Output == nil {
			step.Output = map[string]any{}
		}
	}
	s.steps = append(s.steps, step)
	return step
}

// Steps returns a copy of the recorded steps.
func (s *State) Steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Len returns the number of recorded steps.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Last returns the most recent step.
func (s *State) Last() (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return Step{}, false
	}
	return s.steps[len(s.steps)-1], true
}

// LastSuccessful returns the most recent step without an error.
func (s *State) LastSuccessful() (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.steps) - 1; i >= 0; i-- {
		if !s.steps[i].Failed() {
			return s.steps[i], true
		}
	}
	return Step{}, false
}

// Remember stores value under key in the run memory.
func (s *State) Remember(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory[key] = value
}

// Recall returns the value stored under key.
func (s *State) Recall(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.memory[key]
	return v, ok
}

// Memory returns a shallow copy of the run memory.
func (s *State) Memory() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.memory)
}
