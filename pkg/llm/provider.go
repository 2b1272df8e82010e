package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message in a provider-agnostic format.
type Message struct {
	Role    string // "user", "assistant", "system", "tool"
	Content string

	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolCall

	// ToolCallId links a "tool" role message back to the call it answers.
	ToolCallId string
	// Name is the tool name for "tool" role messages.
	Name string
}

// ToolCall is a structured request from the model to invoke a named tool.
type ToolCall struct {
	Id        string
	Name      string
	Arguments json.RawMessage
}

// ToolSpec describes a callable tool advertised to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON schema for the arguments object
}

// Usage carries token accounting for one completion call.
// Providers that do not report counts leave both fields at zero.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Completion is the provider-agnostic result of one model call.
// Either Content is a final answer, or ToolCalls is non-empty.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend.
type LLMProvider interface {
	// Complete sends a chat history (and optionally a tool catalog) to the
	// model. When tools are offered the model may answer with tool calls
	// instead of content; callers must handle both.
	Complete(ctx context.Context, history []Message, tools []ToolSpec, options ...Option) (*Completion, error)

	// Generate sends a single prompt to the model (convenience method).
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
