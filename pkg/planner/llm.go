// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/jllopis/agentcore/pkg/llm"
	"github.com/jllopis/agentcore/pkg/resilience"
)

// LLM asks a chat model for the next decision. Native tool calls are preferred;
// otherwise the reply is parsed as the JSON action contract, and plain text is
// taken as the answer. The model's reasoning is never surfaced.
type LLM struct {
	provider    llm.Provider
	model       string
	temperature float64
	retry       resilience.RetryConfig
	breaker     *resilience.CircuitBreaker
}

// LLMOption configures the LLM planner.
type LLMOption func(*LLM)

// WithRetry sets the retry policy for provider calls.
func WithRetry(rc resilience.RetryConfig) LLMOption {
	return func(p *LLM) {
		p.retry = rc
	}
}

// WithCircuitBreaker guards provider calls with cb.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) LLMOption {
	return func(p *LLM) {
		p.breaker = cb
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) LLMOption {
	return func(p *LLM) {
		p.temperature = t
	}
}

// NewLLM returns a planner backed by provider and model.
func NewLLM(provider llm.Provider, model string, opts ...LLMOption) *LLM {
	p := &LLM{
		provider: provider,
		model:    model,
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decide implements Planner.
func (p *LLM) Decide(ctx context.Context, req Request) (Decision, error) {
	chatReq := llm.ChatRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt(req.Tools)},
			{Role: llm.RoleUser, Content: userPrompt(req)},
		},
		Tools:       toolDefinitions(req.Tools),
		Temperature: p.temperature,
		JSON:        len(req.Tools) == 0,
	}

	resp, err := resilience.Retry(ctx, p.retry, func(ctx context.Context) (*llm.ChatResponse, error) {
		if p.breaker == nil {
			return p.provider.Chat(ctx, chatReq)
		}
		return resilience.Execute(ctx, p.breaker, func(ctx context.Context) (*llm.ChatResponse, error) {
			return p.provider.Chat(ctx, chatReq)
		})
	})
	if err != nil {
		return Decision{}, errors.New(errors.CodePlannerFailure, "llm provider call failed", err).
			WithContext("model", p.model)
	}
	if resp == nil {
		return Decision{}, errors.Newf(errors.CodePlannerFailure, "llm provider returned no response")
	}
	return parseResponse(resp)
}

func toolDefinitions(tools []core.Descriptor) []llm.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]llm.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llm.FunctionTool(t.Name, t.Description, t.InputSchema))
	}
	return out
}

type actionReply struct {
	Action      string         `json:"action"`
	ToolName    string         `json:"tool_name"`
	ToolInput   map[string]any `json:"tool_input"`
	FinalAnswer string         `json:"final_answer"`
	Reasoning   string         `json:"reasoning"`
}

func parseResponse(resp *llm.ChatResponse) (Decision, error) {
	if len(resp.ToolCalls) > 0 {
		call := resp.ToolCalls[0].Function
		args, err := decodeArguments(call.Arguments)
		if err != nil {
			return Decision{}, errors.New(errors.CodePlannerFailure, "decode tool call arguments", err).
				WithContext("tool", call.Name)
		}
		return Invoke(call.Name, args), nil
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return Decision{}, errors.Newf(errors.CodePlannerFailure, "llm returned an empty reply")
	}
	raw, ok := extractJSONObject(content)
	if !ok {
		return Answer(content), nil
	}
	// Content carrying a JSON object is never surfaced verbatim.
	var reply actionReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return Decision{}, errors.New(errors.CodePlannerFailure, "malformed json reply", err)
	}
	switch reply.Action {
	case "use_tool":
		return Invoke(reply.ToolName, reply.ToolInput), nil
	case "answer":
		if strings.TrimSpace(reply.FinalAnswer) == "" {
			return Answer("Task completed"), nil
		}
		return Answer(reply.FinalAnswer), nil
	default:
		return Decision{}, errors.Newf(errors.CodePlannerFailure, "unknown action %q", reply.Action)
	}
}

func decodeArguments(v any) (map[string]any, error) {
	switch args := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return args, nil
	case string:
		if strings.TrimSpace(args) == "" {
			return map[string]any{}, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(args), &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		data, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// extractJSONObject returns the outermost {...} span, tolerating code fences
// and surrounding prose.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

var _ Planner = (*LLM)(nil)
