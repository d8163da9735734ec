package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

var promptSelfScored bool

var promptCmd = &cobra.Command{
	Use:   "prompt [file|-]",
	Short: "Print the exact prompt an audit would send to the model",
	Long: `Print the audit prompt for a requirement without calling any model.

Useful for reviewing the rubric or pasting the prompt into another tool.
With --self-scored the prompt also asks the model for clarity_score and
risk_level, as used by --scoring model.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readRequirement(cmd, args)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return audit.ErrEmptyRequirement
		}

		p := audit.BuildPrompt(text)
		if promptSelfScored {
			p = audit.BuildSelfScoredPrompt(text)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
		return err
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().BoolVar(&promptSelfScored, "self-scored", false, "include clarity_score and risk_level in the requested JSON")
}
