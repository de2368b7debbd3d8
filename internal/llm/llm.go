package llm

import (
	"context"
	"encoding/json"
)

// Provider is the interface for any LLM backend.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Model names the model requests are sent to.
	Model() string
}

// Role of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single conversation turn. Assistant messages may carry tool
// calls; tool messages answer exactly one call via ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDef describes a callable tool. Parameters is a JSON schema object.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the input to a single completion.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDef
	// JSONOutput asks the backend to constrain the final answer to a JSON
	// object.
	JSONOutput bool
}

// Response is the output of a single completion. A response with tool
// calls expects the caller to run them and continue the conversation.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// Add accumulates u into a running total.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// UserMessage is a convenience constructor.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolResult answers the call with the given ID.
func ToolResult(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
