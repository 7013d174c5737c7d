package config

// Config holds tome configuration.
// Stored at: ~/.tome/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Defra        DefraConfig               `mapstructure:"defra" yaml:"defra"`
	Ingest       IngestCfg                 `mapstructure:"ingest" yaml:"ingest"`
	Extract      ExtractCfg                `mapstructure:"extract" yaml:"extract"`
	Enrich       EnrichCfg                 `mapstructure:"enrich" yaml:"enrich"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`             // "deepseek", "ollama"
	Model     string  `mapstructure:"model" yaml:"model"`           // Model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax, unused for ollama)
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url"`     // Endpoint override
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Default LLM provider
	MaxWorkers  int    `mapstructure:"max_workers" yaml:"max_workers"`   // Max concurrent workers
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	// ContainerName is the Docker container name (default derived from home path)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
}

// IngestCfg holds XML ingestion settings.
type IngestCfg struct {
	// ConflictBehavior is the default when a section already exists:
	// "append", "replace", or "skip". Per-type policies take precedence.
	ConflictBehavior string `mapstructure:"conflict_behavior" yaml:"conflict_behavior"`
	// Recover enables lenient re-parsing of malformed XML.
	Recover bool `mapstructure:"recover" yaml:"recover"`
}

// ExtractCfg holds vocabulary extraction settings.
type ExtractCfg struct {
	MaxRetries     int `mapstructure:"max_retries" yaml:"max_retries"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// EnrichCfg holds vocabulary enrichment settings.
type EnrichCfg struct {
	DelaySeconds float64 `mapstructure:"delay_seconds" yaml:"delay_seconds"`
	SkipExisting bool    `mapstructure:"skip_existing" yaml:"skip_existing"`
	MaxTerms     int     `mapstructure:"max_terms" yaml:"max_terms"` // 0 = no limit
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"deepseek": {
				Type:      "deepseek",
				Model:     "deepseek-chat",
				APIKey:    "${DEEPSEEK_API_KEY}",
				RateLimit: 60.0,
				Enabled:   true,
			},
			"ollama": {
				Type:      "ollama",
				Model:     "llama3.1",
				BaseURL:   "http://localhost:11434",
				RateLimit: 600.0,
				Enabled:   false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "deepseek",
			MaxWorkers:  10,
		},
		Defra: DefraConfig{
			Image: "sourcenetwork/defradb:latest",
			Port:  "9181",
		},
		Ingest: IngestCfg{
			ConflictBehavior: "append",
			Recover:          true,
		},
		Extract: ExtractCfg{
			MaxRetries:     5,
			TimeoutSeconds: 120,
		},
		Enrich: EnrichCfg{
			DelaySeconds: 0.5,
			SkipExisting: true,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
