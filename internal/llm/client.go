// Package llm provides a unified interface for LLM providers using CloudWeGo Eino.
package llm

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider    Provider
	Model       string   // Chat model; empty selects the provider default
	APIKey      string   // Required for every provider except Ollama
	BaseURL     string   // Optional for OpenAI and Anthropic; Ollama defaults to http://localhost:11434
	Temperature *float32 // nil leaves the provider default
}

// ModelName returns the configured model or the provider default.
func (c Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModelForProvider(c.Provider)
}

// CloseableChatModel is a chat model that may own a client needing release.
type CloseableChatModel struct {
	model.BaseChatModel
	closer io.Closer
	once   sync.Once
}

// Close releases the underlying client. Safe to call more than once.
func (m *CloseableChatModel) Close() error {
	var err error
	m.once.Do(func() {
		if m.closer != nil {
			err = m.closer.Close()
		}
	})
	return err
}

// genaiClientCloser drops the reference to a genai client; the SDK has no
// explicit shutdown.
type genaiClientCloser struct {
	client *genai.Client
}

func (c *genaiClientCloser) Close() error {
	c.client = nil
	return nil
}

// NewCloseableChatModel creates a chat model for the configured provider.
func NewCloseableChatModel(ctx context.Context, cfg Config) (*CloseableChatModel, error) {
	modelName := cfg.ModelName()

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       modelName,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini chat model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm, closer: &genaiClientCloser{client: client}}, nil

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:       modelName,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		claudeCfg := &claude.Config{
			APIKey:      cfg.APIKey,
			Model:       modelName,
			MaxTokens:   DefaultAnthropicMaxTokens,
			Temperature: cfg.Temperature,
		}
		if cfg.BaseURL != "" {
			baseURL := cfg.BaseURL
			claudeCfg.BaseURL = &baseURL
		}
		cm, err := claude.NewChatModel(ctx, claudeCfg)
		if err != nil {
			return nil, fmt.Errorf("create anthropic chat model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama chat model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: gemini, openai, anthropic, ollama)", cfg.Provider)
	}
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(p) {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		return Provider(p), nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", p)
	}
}

// RequiresAPIKey reports whether the provider needs an API key.
func RequiresAPIKey(p Provider) bool {
	return p != ProviderOllama
}
