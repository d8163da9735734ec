package llm

import (
	"fmt"
	"sort"
	"strings"
)

// Model describes a chat model the auditor knows how to price.
type Model struct {
	ID          string   // Canonical model ID (e.g., "gemini-2.5-flash")
	Provider    string   // Provider display name (e.g., "Google")
	ProviderID  Provider // Internal provider ID (e.g., "gemini")
	Aliases     []string // Alternative IDs including dated versions
	InputPer1M  float64  // $ per 1M input tokens
	OutputPer1M float64  // $ per 1M output tokens
	IsDefault   bool     // Whether this is the default model for its provider
}

// ModelRegistry lists the supported models. Prices last updated: 2025-12
var ModelRegistry = []Model{
	// Google Gemini
	{
		ID:          "gemini-flash-lite-latest",
		Provider:    "Google",
		ProviderID:  ProviderGemini,
		Aliases:     []string{"gemini-2.5-flash-lite"},
		InputPer1M:  0.10,
		OutputPer1M: 0.40,
		IsDefault:   true,
	},
	{
		ID:          "gemini-flash-latest",
		Provider:    "Google",
		ProviderID:  ProviderGemini,
		Aliases:     []string{"gemini-2.5-flash"},
		InputPer1M:  0.30,
		OutputPer1M: 2.50,
	},
	{
		ID:          "gemini-2.5-pro",
		Provider:    "Google",
		ProviderID:  ProviderGemini,
		InputPer1M:  1.25,
		OutputPer1M: 10.00,
	},
	{
		ID:          "gemini-2.0-flash",
		Provider:    "Google",
		ProviderID:  ProviderGemini,
		InputPer1M:  0.10,
		OutputPer1M: 0.40,
	},

	// OpenAI
	{
		ID:          "gpt-5-mini",
		Provider:    "OpenAI",
		ProviderID:  ProviderOpenAI,
		Aliases:     []string{"gpt-5-mini-2025-08-07"},
		InputPer1M:  0.22,
		OutputPer1M: 1.80,
		IsDefault:   true,
	},
	{
		ID:          "gpt-4.1-mini",
		Provider:    "OpenAI",
		ProviderID:  ProviderOpenAI,
		Aliases:     []string{"gpt-4.1-mini-2025-04-14"},
		InputPer1M:  0.15,
		OutputPer1M: 0.60,
	},
	{
		ID:          "gpt-4o-mini",
		Provider:    "OpenAI",
		ProviderID:  ProviderOpenAI,
		Aliases:     []string{"gpt-4o-mini-2024-07-18"},
		InputPer1M:  0.15,
		OutputPer1M: 0.60,
	},

	// Anthropic
	{
		ID:          "claude-3-5-haiku-latest",
		Provider:    "Anthropic",
		ProviderID:  ProviderAnthropic,
		Aliases:     []string{"claude-3-5-haiku-20241022"},
		InputPer1M:  0.80,
		OutputPer1M: 4.00,
		IsDefault:   true,
	},
	{
		ID:          "claude-3-5-sonnet-latest",
		Provider:    "Anthropic",
		ProviderID:  ProviderAnthropic,
		Aliases:     []string{"claude-3-5-sonnet-20241022"},
		InputPer1M:  3.00,
		OutputPer1M: 15.00,
	},

	// Ollama (local, no pricing)
	{
		ID:         "llama3.2",
		Provider:   "Ollama",
		ProviderID: ProviderOllama,
		IsDefault:  true,
	},
}

// modelIndex is built at init time for fast lookups
var modelIndex map[string]*Model

func init() {
	modelIndex = make(map[string]*Model)
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		modelIndex[m.ID] = m
		for _, alias := range m.Aliases {
			modelIndex[alias] = m
		}
	}
}

// GetModel returns the model definition for a given model ID or alias.
// Returns nil if the model is not found.
func GetModel(modelID string) *Model {
	return modelIndex[modelID]
}

// GetDefaultModelID returns the default model ID for a provider.
func GetDefaultModelID(providerID Provider) string {
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		if m.ProviderID == providerID && m.IsDefault {
			return m.ID
		}
	}
	return ""
}

// InferProvider attempts to determine the provider from a model name.
func InferProvider(modelID string) (Provider, bool) {
	if m := GetModel(modelID); m != nil {
		return m.ProviderID, true
	}

	switch {
	case strings.HasPrefix(modelID, "gpt-"), strings.HasPrefix(modelID, "o1-"), strings.HasPrefix(modelID, "o3-"):
		return ProviderOpenAI, true
	case strings.HasPrefix(modelID, "claude-"):
		return ProviderAnthropic, true
	case strings.HasPrefix(modelID, "gemini-"):
		return ProviderGemini, true
	case strings.HasPrefix(modelID, "llama"), strings.HasPrefix(modelID, "mistral"), strings.HasPrefix(modelID, "phi"):
		return ProviderOllama, true
	}
	return "", false
}

// ModelOption is one row of the model listing printed by the CLI.
type ModelOption struct {
	ID        string
	PriceInfo string
	IsDefault bool
}

// GetModelsForProvider returns the known models for a provider, default
// first, then alphabetically.
func GetModelsForProvider(providerID Provider) []ModelOption {
	var options []ModelOption
	for _, m := range ModelRegistry {
		if m.ProviderID != providerID {
			continue
		}
		options = append(options, ModelOption{
			ID:        m.ID,
			PriceInfo: formatPriceInfo(m.InputPer1M, m.OutputPer1M),
			IsDefault: m.IsDefault,
		})
	}

	sort.Slice(options, func(i, j int) bool {
		if options[i].IsDefault != options[j].IsDefault {
			return options[i].IsDefault
		}
		return options[i].ID < options[j].ID
	})
	return options
}

func formatPriceInfo(input, output float64) string {
	if input == 0 && output == 0 {
		return "local/free"
	}
	return fmt.Sprintf("$%.2f/$%.2f per 1M tokens", input, output)
}

// CalculateCost calculates cost in USD for token usage. Unknown models cost 0.
func CalculateCost(modelID string, inputTokens, outputTokens int) float64 {
	m := GetModel(modelID)
	if m == nil {
		return 0
	}
	inputCost := float64(inputTokens) / 1_000_000 * m.InputPer1M
	outputCost := float64(outputTokens) / 1_000_000 * m.OutputPer1M
	return inputCost + outputCost
}
