package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a new LLM provider based on the given provider type and
// model. Supported provider types: "anthropic", "openai", "ollama", "none".
// A missing API key yields the unavailable sentinel rather than an error so
// the engine can run with its documented low-confidence fallbacks.
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return Unavailable(), nil
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return Unavailable(), nil
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	case "none", "":
		return Unavailable(), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
