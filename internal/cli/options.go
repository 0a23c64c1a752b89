package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"adpulse/internal/model"
)

// Flags shared by the analyze, batch, and serve commands.
var (
	dbPath              string
	perceptionProvider  string
	perceptionModel     string
	perceptionBaseURL   string
	creativeProvider    string
	creativeModel       string
	creativeBaseURL     string
	confidenceThreshold float64
	ignoreThreshold     float64
	aggressiveThreshold float64
	noAds               bool
)

// addPipelineFlags registers the pipeline flags shared by analyze, batch,
// and serve on a command's flag set.
func addPipelineFlags(cmd *cobra.Command) {
	defaults := model.DefaultConfig()

	cmd.Flags().StringVar(&dbPath, "db", defaults.Store.Path, "SQLite database path")
	cmd.Flags().StringVar(&perceptionProvider, "perception-provider", defaults.Perception.Provider, "perception provider (openai)")
	cmd.Flags().StringVar(&perceptionModel, "perception-model", "", "perception model override")
	cmd.Flags().StringVar(&perceptionBaseURL, "perception-base-url", "", "perception API base URL override")
	cmd.Flags().StringVar(&creativeProvider, "creative-provider", defaults.Creative.Provider, "creative provider (openai, ollama, or empty to disable)")
	cmd.Flags().StringVar(&creativeModel, "creative-model", "", "creative model override")
	cmd.Flags().StringVar(&creativeBaseURL, "creative-base-url", "", "creative API base URL override")
	cmd.Flags().Float64Var(&confidenceThreshold, "confidence-threshold", defaults.Perception.ConfidenceThreshold, "discard events below this confidence")
	cmd.Flags().Float64Var(&ignoreThreshold, "ignore-threshold", defaults.Decision.IgnoreThreshold, "scores below this never trigger an ad")
	cmd.Flags().Float64Var(&aggressiveThreshold, "aggressive-threshold", defaults.Decision.AggressiveThreshold, "scores at or above this get an aggressive ad")
	cmd.Flags().BoolVar(&noAds, "no-ads", false, "score and decide only, never call the creative provider")
}

// buildConfig assembles the effective configuration from defaults, viper, and
// command flags, then resolves API keys from the environment.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	cfg.Store.Path = dbPath
	cfg.Perception.Provider = perceptionProvider
	cfg.Perception.Model = perceptionModel
	cfg.Perception.BaseURL = perceptionBaseURL
	cfg.Perception.ConfidenceThreshold = confidenceThreshold
	cfg.Creative.Provider = creativeProvider
	cfg.Creative.Model = creativeModel
	cfg.Creative.BaseURL = creativeBaseURL
	cfg.Decision.IgnoreThreshold = ignoreThreshold
	cfg.Decision.AggressiveThreshold = aggressiveThreshold
	cfg.Output.Verbose = verbose

	if noAds {
		cfg.Creative.Provider = ""
	}

	if err := resolveAPIKeys(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveAPIKeys pulls provider credentials from the environment.
func resolveAPIKeys(cfg *model.Config) error {
	switch cfg.Perception.Provider {
	case "openai":
		cfg.Perception.APIKey = firstEnv("ADPULSE_PERCEPTION_API_KEY", "OPENAI_API_KEY")
		if cfg.Perception.APIKey == "" {
			return fmt.Errorf("ADPULSE_PERCEPTION_API_KEY or OPENAI_API_KEY environment variable not set")
		}
	}

	switch cfg.Creative.Provider {
	case "openai":
		cfg.Creative.APIKey = firstEnv("ADPULSE_CREATIVE_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY")
		if cfg.Creative.APIKey == "" {
			return fmt.Errorf("ADPULSE_CREATIVE_API_KEY, GROQ_API_KEY or OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.Creative.BaseURL == "" {
			cfg.Creative.BaseURL = baseURL
		}
	}

	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
