// Package config provides centralized configuration for the clarity auditor.
// All default values are defined here to ensure a single source of truth.
package config

import (
	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/llm"
)

const (
	// EnvPrefix prefixes environment overrides: CLARITY_LLM_PROVIDER, ...
	EnvPrefix = "CLARITY"

	// ConfigName is the config file base name (.clarity.yaml).
	ConfigName = ".clarity"

	// DefaultStateDir holds crash logs.
	DefaultStateDir = ".clarity"

	DefaultRequestTimeoutSeconds = 90
	DefaultRetryDelayMs          = 500
)

// SetDefaults registers every default with viper.
func SetDefaults() {
	viper.SetDefault("verbose", false)
	viper.SetDefault("stateDir", DefaultStateDir)

	viper.SetDefault("llm.provider", string(llm.DefaultProvider))
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.baseURL", "")
	viper.SetDefault("llm.requestTimeoutSeconds", DefaultRequestTimeoutSeconds)
	viper.SetDefault("llm.temperature", 0.0)

	viper.SetDefault("audit.maxAttempts", audit.DefaultMaxAttempts)
	viper.SetDefault("audit.retryDelayMs", DefaultRetryDelayMs)
	viper.SetDefault("audit.scoring", string(audit.ScoreLocally))
	viper.SetDefault("audit.strict", false)
}
