package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
	ProviderNone      ProviderType = "none"
)

// EngineConfig holds tunables for the rule evaluation engine.
type EngineConfig struct {
	// RuleCacheTTLSeconds bounds how long a (rule, comment) evaluation is reused.
	RuleCacheTTLSeconds int `yaml:"rule_cache_ttl_seconds" koanf:"rule_cache_ttl_seconds"`
	// JudgeCacheTTLSeconds bounds how long an AI condition judgment is reused.
	JudgeCacheTTLSeconds int `yaml:"judge_cache_ttl_seconds" koanf:"judge_cache_ttl_seconds"`
	CacheMaxEntries      int `yaml:"cache_max_entries" koanf:"cache_max_entries"`
}

// Config is the top-level revu configuration, corresponding to .revu.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	Port              int          `yaml:"port" koanf:"port"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Engine            EngineConfig `yaml:"engine" koanf:"engine"`
}
