package provider

import "context"

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation sent to the LLM.
//
// An assistant message that requests a tool has an empty Content and a
// non-nil Call. A tool message answers that request: its ToolCallID equals
// Call.ID and Content holds the JSON-encoded result.
type Message struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	Call       *FunctionCall `json:"tool_call,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// FunctionCall is a tool invocation recorded in the conversation.
type FunctionCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID     string
	Name   string
	Params map[string]any
}

// Step is the outcome of one Generate call: either a final message
// (Call == nil) or exactly one tool call.
type Step struct {
	Text string
	Call *ToolCall
}

// IsToolCall reports whether the step asks for a tool invocation.
func (s Step) IsToolCall() bool { return s.Call != nil }

// MessageStep returns a terminal step.
func MessageStep(text string) Step { return Step{Text: text} }

// ToolCallStep returns a step requesting one tool invocation.
func ToolCallStep(id, name string, params map[string]any) Step {
	if params == nil {
		params = map[string]any{}
	}
	return Step{Call: &ToolCall{ID: id, Name: name, Params: params}}
}

// ToolDefinition is an OpenAI-compatible function tool schema.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a callable function for the LLM.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Provider is the interface for LLM backends.
// Generate must not modify conv.
type Provider interface {
	Generate(ctx context.Context, conv []Message, tools []ToolDefinition) (Step, error)
}
