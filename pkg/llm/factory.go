package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names accepted by NewGenerator.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// FactoryConfig selects and configures a Generator backend.
type FactoryConfig struct {
	Provider string // "openai" (any OpenAI-compatible endpoint) or "anthropic"
	Endpoint string // Base URL for OpenAI-compatible endpoints
	Model    string
	APIKey   string
}

// NewGenerator creates a Generator for the configured provider.
// Returns Generator so callers can inject mocks in tests.
func NewGenerator(cfg *FactoryConfig, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(&Config{
			Model:  cfg.Model,
			APIKey: cfg.APIKey,
		}, logger)
	case ProviderOpenAI, "":
		return NewClient(&Config{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
