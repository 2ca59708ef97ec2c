package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/llm"
	"github.com/spf13/viper"
)

// LoadLLMConfig assembles the synthesizer configuration.
// It follows this precedence:
// 1. Viper configuration (from config file or NAMES_ env vars)
// 2. Provider-native environment variables (ANTHROPIC_API_KEY, ...)
// 3. Default values
func LoadLLMConfig() (llm.Config, error) {
	cfg := llm.Config{
		Provider:    viper.GetString("llm.provider"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		Timeout:     viper.GetDuration("llm.timeout"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	}

	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}

	if cfg.APIKey == "" {
		cfg.APIKey = apiKeyFromEnv(cfg.Provider)
	}
	if cfg.APIKey == "" {
		return llm.Config{}, fmt.Errorf("%w: no API key configured for LLM provider %q", common.ErrMissingConfig, cfg.Provider)
	}

	return cfg, nil
}

// apiKeyFromEnv falls back to the provider's conventional variable.
func apiKeyFromEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}
