package providers

import (
	"context"
	"encoding/json"
)

// Conversation roles understood by chat backends
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one entry in a model conversation
type ChatMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolInvocation `json:"tool_calls,omitempty"`
}

// ToolInvocation is a tool call requested by the model. Arguments is the raw
// JSON the model produced; callers decode it into a typed record before
// dispatch.
type ToolInvocation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec declares one callable tool to the model
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// ChatTurn is the model's reply for one completion: either assistant text,
// tool calls to execute, or both
type ChatTurn struct {
	Content   string           `json:"content"`
	ToolCalls []ToolInvocation `json:"tool_calls,omitempty"`
}

// ChatCompleter defines the interface for one model completion in the agent
// loop
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (*ChatTurn, error)
}
