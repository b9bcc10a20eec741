// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"sync"

	"github.com/jllopis/agentcore/pkg/errors"
)

// ScriptedMockProvider returns a pre-defined sequence of responses, one per call.
// Useful for driving multi-step runs in tests.
type ScriptedMockProvider struct {
	mu        sync.Mutex
	responses []ChatResponse
	requests  []ChatRequest
	Err       error
}

// NewScriptedMockProvider queues each content string as a response.
func NewScriptedMockProvider(responses ...string) *ScriptedMockProvider {
	s := &ScriptedMockProvider{}
	for _, r := range responses {
		s.AddResponse(r)
	}
	return s
}

// Chat pops the next scripted response or returns the configured error.
func (s *ScriptedMockProvider) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.responses) == 0 {
		return nil, errors.Newf(errors.CodeLLMError, "scripted mock: no more responses available")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return &resp, nil
}

// AddResponse appends a content response to the queue.
func (s *ScriptedMockProvider) AddResponse(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, ChatResponse{Content: content, Usage: mockUsage()})
}

// AddToolCall appends a native tool call response to the queue.
func (s *ScriptedMockProvider) AddToolCall(name string, args map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, ChatResponse{
		ToolCalls: []ToolCall{{
			Type:     ToolTypeFunction,
			Function: FunctionCall{Name: name, Arguments: args},
		}},
		Usage: mockUsage(),
	})
}

// CallCount returns how many times Chat has been called.
func (s *ScriptedMockProvider) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every request received.
func (s *ScriptedMockProvider) Requests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatRequest, len(s.requests))
	copy(out, s.requests)
	return out
}
