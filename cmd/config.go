package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/config"
)

// bindFlags binds command flags to their config keys. It runs on every
// execution so the bindings survive viper.Reset.
func bindFlags() {
	pf := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", pf.Lookup("config"))
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("llm.provider", pf.Lookup("provider"))
	_ = viper.BindPFlag("llm.model", pf.Lookup("model"))

	af := auditCmd.Flags()
	_ = viper.BindPFlag("audit.maxAttempts", af.Lookup("attempts"))
	_ = viper.BindPFlag("audit.scoring", af.Lookup("scoring"))
	_ = viper.BindPFlag("audit.strict", af.Lookup("strict"))
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	bindFlags()

	// Load .env file first if present. A missing .env is fine.
	_ = godotenv.Load()

	// Environment variable handling must be set up before reading the config
	// file: CLARITY_LLM_PROVIDER overrides llm.provider.
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults()

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		// ./.clarity.yaml wins over $HOME/.clarity.yaml
		viper.AddConfigPath(".")
		if home, err := config.GetGlobalConfigDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(config.ConfigName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		case cfgFileFlag != "" && os.IsNotExist(err):
			fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
		default:
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}
}
