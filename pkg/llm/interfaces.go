// Package llm provides the narrow text-generation capability used by the
// question-answering pipeline, with OpenAI-compatible and Anthropic backends.
package llm

import (
	"context"
)

// Generator is the single capability the pipeline needs from a
// text-generation service: a (imperfect) pure function from prompt to text.
// Temperature is pinned to the most deterministic setting by implementations.
// Use this interface for dependency injection to enable scripted stubs in tests.
type Generator interface {
	// Generate produces a text completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure implementations satisfy Generator at compile time.
var (
	_ Generator = (*Client)(nil)
	_ Generator = (*AnthropicClient)(nil)
	_ Generator = (*MockGenerator)(nil)
)
