package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

// Usage accumulates token counts over the calls made by a ChatGenerator.
// Counts come from the provider when it reports them and are estimated
// otherwise.
type Usage struct {
	Calls        int
	InputTokens  int
	OutputTokens int
	Estimated    bool
}

// ChatGenerator adapts an Eino chat model to audit.TextGenerator. Each call
// sends the prompt as a single user message and runs under its own timeout.
type ChatGenerator struct {
	chat      model.BaseChatModel
	modelName string
	timeout   time.Duration
	limiter   timeoutExecutor

	mu    sync.Mutex
	usage Usage
}

var _ audit.TextGenerator = (*ChatGenerator)(nil)

// timeoutExecutor is the part of fortify's timeout we use.
type timeoutExecutor interface {
	Execute(ctx context.Context, d time.Duration, fn func(context.Context) (*schema.Message, error)) (*schema.Message, error)
}

// NewChatGenerator wraps chat. A non-positive requestTimeout selects
// DefaultRequestTimeout.
func NewChatGenerator(chat model.BaseChatModel, modelName string, requestTimeout time.Duration) *ChatGenerator {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &ChatGenerator{
		chat:      chat,
		modelName: modelName,
		timeout:   requestTimeout,
		limiter: timeout.New[*schema.Message](timeout.Config{
			DefaultTimeout: requestTimeout,
		}),
	}
}

// Generate sends prompt to the model and returns the reply text. Failures,
// timeouts included, come back as *audit.TransportError.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		schema.UserMessage(prompt),
	}

	resp, err := g.limiter.Execute(ctx, g.timeout, func(ctx context.Context) (*schema.Message, error) {
		return g.chat.Generate(ctx, messages)
	})
	if err != nil {
		return "", &audit.TransportError{Err: fmt.Errorf("LLM generate (%s): %w", g.modelName, err)}
	}
	if resp == nil {
		return "", &audit.TransportError{Err: fmt.Errorf("LLM generate (%s): empty response", g.modelName)}
	}

	g.record(prompt, resp)
	return resp.Content, nil
}

func (g *ChatGenerator) record(prompt string, resp *schema.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.usage.Calls++
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		g.usage.InputTokens += resp.ResponseMeta.Usage.PromptTokens
		g.usage.OutputTokens += resp.ResponseMeta.Usage.CompletionTokens
		return
	}
	g.usage.InputTokens += EstimateTokens(prompt)
	g.usage.OutputTokens += EstimateTokens(resp.Content)
	g.usage.Estimated = true
}

// Usage returns the token usage so far.
func (g *ChatGenerator) Usage() Usage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}

// Cost returns the USD cost of the usage so far, or 0 for unpriced models.
func (g *ChatGenerator) Cost() float64 {
	u := g.Usage()
	return CalculateCost(g.modelName, u.InputTokens, u.OutputTokens)
}

// Model returns the model name used for pricing and error messages.
func (g *ChatGenerator) Model() string { return g.modelName }
