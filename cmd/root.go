package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/config"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/logger"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clarity",
	Short: "AI Requirement Clarity Auditor",
	Long: `clarity audits a software requirement for clarity and execution readiness.

It asks an LLM to review the requirement against a contract-completeness
checklist, measurability and edge-case expectations, then scores the result
and reports gaps, ambiguity, risks and derived acceptance criteria.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(cmd.ErrOrStderr(), viper.GetBool("verbose"))
		logger.SetVersion(version)
		logger.SetCommand(cmd.CommandPath())
		logger.SetBasePath(config.StateDir())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		HandleFatalError(userMessage(err), err)
	}
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.clarity.yaml or $HOME/.clarity.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider: gemini, openai, anthropic or ollama")
	rootCmd.PersistentFlags().String("model", "", "model name (default depends on provider)")

	rootCmd.SetErr(os.Stderr)
}
