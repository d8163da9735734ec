package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/llm"
)

func resetViperForTest(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_MODEL", "XDG_STATE_HOME"} {
		t.Setenv(k, "")
	}
}

func TestLoadLLMConfig_GeminiDefaults(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := LoadLLMConfig()
	if err != nil {
		t.Fatalf("LoadLLMConfig() error = %v", err)
	}
	if cfg.Provider != llm.ProviderGemini {
		t.Errorf("provider = %q, want gemini", cfg.Provider)
	}
	if cfg.Model != "gemini-flash-lite-latest" {
		t.Errorf("model = %q, want gemini-flash-lite-latest", cfg.Model)
	}
	if cfg.APIKey != "gem-key" {
		t.Errorf("apiKey mismatch")
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", cfg.Temperature)
	}
}

func TestLoadLLMConfig_GeminiModelEnvAlias(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")

	cfg, err := LoadLLMConfig()
	if err != nil {
		t.Fatalf("LoadLLMConfig() error = %v", err)
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q, want GEMINI_MODEL value", cfg.Model)
	}
	if cfg.APIKey != "google-key" {
		t.Errorf("GOOGLE_API_KEY should be used when GEMINI_API_KEY is empty")
	}

	viper.Set("llm.model", "gemini-flash-latest")
	cfg, _ = LoadLLMConfig()
	if cfg.Model != "gemini-flash-latest" {
		t.Errorf("explicit llm.model should win over GEMINI_MODEL, got %q", cfg.Model)
	}
}

func TestLoadLLMConfig_MissingKeyIsConfigurationError(t *testing.T) {
	for _, provider := range []string{"gemini", "openai", "anthropic"} {
		t.Run(provider, func(t *testing.T) {
			resetViperForTest(t)
			viper.Set("llm.provider", provider)

			_, err := LoadLLMConfig()
			var cfgErr *audit.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want *audit.ConfigurationError", err)
			}
			if cfgErr.Key != "llm.apiKeys."+provider {
				t.Errorf("Key = %q", cfgErr.Key)
			}
		})
	}
}

func TestLoadLLMConfig_OllamaNeedsNoKey(t *testing.T) {
	resetViperForTest(t)
	viper.Set("llm.provider", "ollama")

	cfg, err := LoadLLMConfig()
	if err != nil {
		t.Fatalf("LoadLLMConfig() error = %v", err)
	}
	if cfg.BaseURL != llm.DefaultOllamaURL {
		t.Errorf("baseURL = %q, want %q", cfg.BaseURL, llm.DefaultOllamaURL)
	}
	if cfg.Model != "llama3.2" {
		t.Errorf("model = %q", cfg.Model)
	}
}

func TestLoadLLMConfig_InvalidProvider(t *testing.T) {
	resetViperForTest(t)
	viper.Set("llm.provider", "bedrock")

	_, err := LoadLLMConfig()
	var cfgErr *audit.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "llm.provider" {
		t.Fatalf("err = %v, want ConfigurationError for llm.provider", err)
	}
}

func TestResolveAPIKey_Precedence(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("OPENAI_API_KEY", "env-key")
	viper.Set("llm.apiKey", "shared-key")

	if got := ResolveAPIKey(llm.ProviderOpenAI); got != "env-key" {
		t.Errorf("env should beat shared key, got %q", got)
	}

	viper.Set("llm.apiKeys.openai", "  config-key  ")
	if got := ResolveAPIKey(llm.ProviderOpenAI); got != "config-key" {
		t.Errorf("per-provider key should win, got %q", got)
	}

	if got := ResolveAPIKey(llm.ProviderAnthropic); got != "shared-key" {
		t.Errorf("shared key fallback, got %q", got)
	}
	if got := ResolveAPIKey(llm.ProviderOllama); got != "" {
		t.Errorf("ollama should resolve no key, got %q", got)
	}
}

func TestLoadLLMConfig_ErrorMentionsEnvVar(t *testing.T) {
	resetViperForTest(t)
	_, err := LoadLLMConfig()
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error should name GEMINI_API_KEY: %v", err)
	}
}
