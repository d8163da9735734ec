package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose  bool        `mapstructure:"verbose"`
	Config   string      `mapstructure:"config"`
	StateDir string      `mapstructure:"stateDir" validate:"required"`
	LLM      LLMConfig   `mapstructure:"llm"`
	Audit    AuditConfig `mapstructure:"audit"`
}

// LLMConfig holds configuration for the model backend. API keys are resolved
// separately by ResolveAPIKey so they never land in a printed config.
type LLMConfig struct {
	Provider              string  `mapstructure:"provider" validate:"required,oneof=gemini openai anthropic ollama"`
	Model                 string  `mapstructure:"model"`
	BaseURL               string  `mapstructure:"baseURL" validate:"omitempty,url"`
	RequestTimeoutSeconds int     `mapstructure:"requestTimeoutSeconds" validate:"min=5,max=600"`
	Temperature           float64 `mapstructure:"temperature" validate:"min=0,max=2"`
}

// AuditConfig holds the retry and scoring policy.
type AuditConfig struct {
	MaxAttempts  int    `mapstructure:"maxAttempts" validate:"min=1,max=5"`
	RetryDelayMs int    `mapstructure:"retryDelayMs" validate:"min=0"`
	Scoring      string `mapstructure:"scoring" validate:"oneof=local model"`
	Strict       bool   `mapstructure:"strict"`
}

// validate is a single instance of Validate, it caches struct info
var validate = validator.New()

// Load unmarshals the current viper state into an AppConfig and validates it.
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Audit.Scoring = strings.ToLower(strings.TrimSpace(cfg.Audit.Scoring))

	if err := Validate(&cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags and reports every failing
// field as a ConfigurationError naming the config key.
func Validate(cfg *AppConfig) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	return &audit.ConfigurationError{
		Key:    configKey(fe.Namespace()),
		Reason: fmt.Sprintf("value %v fails %q", fe.Value(), tagWithParam(fe)),
	}
}

// configKey turns a validator namespace (AppConfig.LLM.RequestTimeoutSeconds)
// into the config key (llm.requestTimeoutSeconds).
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		switch p {
		case "LLM":
			parts[i] = "llm"
		case "":
		default:
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func tagWithParam(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// AuditOptions converts the audit section into audit.Options.
func (c AppConfig) AuditOptions(logger *slog.Logger) audit.Options {
	delay := time.Duration(c.Audit.RetryDelayMs) * time.Millisecond
	if c.Audit.RetryDelayMs == 0 {
		delay = -1
	}
	return audit.Options{
		MaxAttempts: c.Audit.MaxAttempts,
		RetryDelay:  delay,
		Scoring:     audit.ScoringMode(c.Audit.Scoring),
		Logger:      logger,
	}
}

// RequestTimeout returns the per-attempt model timeout.
func (c AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.LLM.RequestTimeoutSeconds) * time.Second
}
