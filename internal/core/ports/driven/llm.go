package driven

import (
	"context"
	"encoding/json"
)

// LLMService provides language model operations for the analysis pipeline
// and question answering. Calls are blocking, potentially high-latency
// network operations; callers impose deadlines through ctx. The service
// never retries internally.
//
// Implementations may include:
//   - OpenAI (GPT-4 family)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a conversation from an ordered role-tagged message list.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ChatStructured conducts a conversation whose reply must conform to
	// the given JSON schema. The returned bytes are validated against the
	// schema before being handed to the caller; violations are reported
	// as an error, never as partially-valid output.
	ChatStructured(ctx context.Context, messages []ChatMessage, schema Schema) (json.RawMessage, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Schema declares the shape a structured completion must satisfy.
type Schema struct {
	// Name identifies the schema to the provider.
	Name string

	// Definition is the JSON Schema document as raw JSON.
	Definition json.RawMessage
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
