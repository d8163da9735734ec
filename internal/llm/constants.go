package llm

import "time"

// Provider constants
const (
	// DefaultProvider is the default LLM provider
	DefaultProvider = ProviderGemini

	// ProviderGemini represents the Google Gemini provider
	ProviderGemini Provider = "gemini"

	// ProviderOpenAI represents the OpenAI provider (and OpenAI-compatible servers via BaseURL)
	ProviderOpenAI Provider = "openai"

	// ProviderAnthropic represents the Anthropic provider
	ProviderAnthropic Provider = "anthropic"

	// ProviderOllama represents a local Ollama server
	ProviderOllama Provider = "ollama"
)

// DefaultOllamaURL is the default URL for Ollama server
const DefaultOllamaURL = "http://localhost:11434"

// DefaultRequestTimeout bounds a single model call.
const DefaultRequestTimeout = 90 * time.Second

// DefaultAnthropicMaxTokens is the output budget sent to Anthropic, which
// requires one. A full audit report fits well inside it.
const DefaultAnthropicMaxTokens = 8192

// DefaultModelForProvider returns the default model ID for a given provider.
// This is a convenience wrapper around GetDefaultModelID in models.go.
func DefaultModelForProvider(provider Provider) string {
	return GetDefaultModelID(provider)
}
