package model

import "time"

// Config is the full adpulse configuration tree. Defaults come from
// DefaultConfig; viper overlays the config file, environment, and flags.
type Config struct {
	Perception  PerceptionConfig  `yaml:"perception"`
	Creative    CreativeConfig    `yaml:"creative"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Decision    DecisionConfig    `yaml:"decision"`
	Store       StoreConfig       `yaml:"store"`
	Server      ServerConfig      `yaml:"server"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Output      OutputConfig      `yaml:"output"`
}

// PerceptionConfig configures the perception collaborator.
type PerceptionConfig struct {
	Provider string `yaml:"provider"` // "openai" or "" (disabled)
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Timeout  int    `yaml:"timeout"` // seconds

	// ConfidenceThreshold is the soft-failure cutoff: parsed events with a
	// confidence below it are discarded before scoring.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// CreativeConfig configures the creative collaborator.
type CreativeConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama" or "" (disabled)
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// ScoringConfig carries the tunable parts of the scoring engine. The lookup
// tables themselves are fixed data in the score package.
type ScoringConfig struct {
	ConfidencePenaltyThreshold float64 `yaml:"confidence_penalty_threshold"`
	ConfidencePenalty          float64 `yaml:"confidence_penalty"`
}

// DecisionConfig holds the two decision thresholds. The entire decision
// surface is these two constants.
type DecisionConfig struct {
	IgnoreThreshold     float64 `yaml:"ignore_threshold"`
	AggressiveThreshold float64 `yaml:"aggressive_threshold"`
}

// StoreConfig configures the sqlite persistence store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// CacheConfig configures the in-memory TTL cache backing the media registry.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// ConcurrencyConfig configures batch processing.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig throttles calls to the external providers.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Perception: PerceptionConfig{
			Provider:            "openai",
			Model:               "",
			Timeout:             60,
			ConfidenceThreshold: 0.4,
		},
		Creative: CreativeConfig{
			Provider:  "openai",
			Model:     "",
			Timeout:   30,
			MaxTokens: 200,
		},
		Scoring: ScoringConfig{
			ConfidencePenaltyThreshold: 0.5,
			ConfidencePenalty:          -3,
		},
		Decision: DecisionConfig{
			IgnoreThreshold:     4.0,
			AggressiveThreshold: 7.0,
		},
		Store: StoreConfig{
			Path: "adpulse.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     2 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
