// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm defines the chat provider contract used by the LLM-backed planner.
package llm

import "context"

// Provider is a chat-completion backend.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Role is the author of a message.
type Role string

// Roles used by the planner prompts.
const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	// JSON constrains the reply to a JSON object on providers that support it.
	JSON bool `json:"-"`
}

// ChatResponse carries either free-form content or native tool calls.
type ChatResponse struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
}

// Usage reports token counts for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolType is the kind of tool offered to the model. Only functions exist.
type ToolType string

// ToolTypeFunction marks a function tool.
const ToolTypeFunction ToolType = "function"

// Tool is a capability offered to the model in function-calling format.
type Tool struct {
	Type     ToolType    `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef names a function tool and its JSON Schema parameters.
type FunctionDef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"`
}

// FunctionTool builds a function tool.
func FunctionTool(name, description string, parameters any) Tool {
	return Tool{Type: ToolTypeFunction, Function: FunctionDef{Name: name, Description: description, Parameters: parameters}}
}

// ToolCall is a model request to invoke a tool.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     ToolType     `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the function and its arguments. OpenAI-style APIs encode
// arguments as a JSON string and Ollama as an object; either is kept as received.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}
