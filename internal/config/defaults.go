package config

// defaultModels maps each provider to its default model.
var defaultModels = map[ProviderType]string{
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderAnthropic,
		Model:             defaultModels[ProviderAnthropic],
		DataDir:           "data",
		Port:              8080,
		RequestsPerMinute: 60,
		Engine: EngineConfig{
			RuleCacheTTLSeconds:  300,
			JudgeCacheTTLSeconds: 600,
			CacheMaxEntries:      10000,
		},
	}
}

// DefaultModel returns the default model for the given provider.
// Falls back to the Anthropic default for unknown providers.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderAnthropic]
}
