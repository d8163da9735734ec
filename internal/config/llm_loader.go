package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/llm"
)

// LoadLLMConfig loads LLM configuration from Viper and Environment variables.
// It handles precedence: Explicit Viper Config > Environment Variables > Defaults.
// A missing API key for a provider that needs one is a *audit.ConfigurationError.
func LoadLLMConfig() (llm.Config, error) {
	// 1. Provider
	provider := strings.ToLower(strings.TrimSpace(viper.GetString("llm.provider")))
	if provider == "" {
		provider = string(llm.DefaultProvider)
	}
	llmProvider, err := llm.ValidateProvider(provider)
	if err != nil {
		return llm.Config{}, &audit.ConfigurationError{Key: "llm.provider", Reason: err.Error()}
	}

	// 2. Model. GEMINI_MODEL is honored for the gemini provider.
	model := strings.TrimSpace(viper.GetString("llm.model"))
	if model == "" && llmProvider == llm.ProviderGemini {
		model = strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	}
	if model == "" {
		model = llm.DefaultModelForProvider(llmProvider)
	}

	// 3. API Key
	apiKey := ResolveAPIKey(llmProvider)
	if apiKey == "" && llm.RequiresAPIKey(llmProvider) {
		return llm.Config{}, &audit.ConfigurationError{
			Key:    fmt.Sprintf("llm.apiKeys.%s", llmProvider),
			Reason: fmt.Sprintf("no API key found; set %s or add it to %s.yaml", envKeyNames(llmProvider), ConfigName),
		}
	}

	// 4. Base URL (Ollama or Custom)
	baseURL := strings.TrimSpace(viper.GetString("llm.baseURL"))
	if baseURL == "" && llmProvider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}

	temperature := float32(viper.GetFloat64("llm.temperature"))

	return llm.Config{
		Provider:    llmProvider,
		Model:       model,
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Temperature: &temperature,
	}, nil
}

// ResolveAPIKey returns the best API key for the given provider using
// per-provider config keys, provider-specific env vars, then the shared
// llm.apiKey setting.
func ResolveAPIKey(provider llm.Provider) string {
	keyFromViper := func(path string) string {
		if viper.IsSet(path) {
			return strings.TrimSpace(viper.GetString(path))
		}
		return ""
	}

	// 1) Per-provider config key (llm.apiKeys.<provider>)
	if key := keyFromViper(fmt.Sprintf("llm.apiKeys.%s", provider)); key != "" {
		return key
	}

	// 2) Provider-specific env vars
	if key := providerEnvKey(provider); key != "" {
		return key
	}

	// 3) Shared key, for single-provider setups
	if !llm.RequiresAPIKey(provider) {
		return ""
	}
	return keyFromViper("llm.apiKey")
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}

func envKeyNames(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY (or GOOGLE_API_KEY)"
	default:
		return EnvPrefix + "_LLM_APIKEY"
	}
}
