// Package llm abstracts the hosted language model behind a single-turn
// completion interface.
package llm

import "context"

// Role identifies the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a completion request.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest carries a prompt and its sampling configuration.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the model's reply plus usage accounting.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Provider is a hosted language model endpoint.
type Provider interface {
	// Complete sends a completion request and returns the generated text.
	// The context bounds the call; callers set a timeout.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the provider identifier.
	Name() string
}
