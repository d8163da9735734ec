package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/config"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/export"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/llm"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/logger"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/ui"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/utils"
)

var (
	auditFormat  string
	auditOutputs []string

	// fileSystem backs requirement input and report output.
	fileSystem afero.Fs = afero.NewOsFs()

	// newGenerator builds the model client. Tests replace it with a fake.
	newGenerator = defaultGenerator
)

// usageReporter is implemented by generators that track token spend.
type usageReporter interface {
	Usage() llm.Usage
	Cost() float64
	Model() string
}

var auditCmd = &cobra.Command{
	Use:   "audit [file|-]",
	Short: "Audit a requirement and print the clarity report",
	Long: `Audit a requirement document for clarity and execution readiness.

The requirement is read from the given file, or from stdin when the argument
is "-" or omitted. The report is printed in the chosen --format and can also
be saved with one or more --output files; each file's format follows its
extension (.json, .yaml, .pdf, .txt).

Examples:
  clarity audit requirement.md
  clarity sample | clarity audit --format json
  clarity audit checkout.md -o report.json -o report.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVarP(&auditFormat, "format", "f", string(export.FormatText), "output format: text, json or yaml")
	auditCmd.Flags().StringArrayVarP(&auditOutputs, "output", "o", nil, "also write the report to this file (repeatable)")
	auditCmd.Flags().Int("attempts", 0, "maximum model attempts (default from config)")
	auditCmd.Flags().String("scoring", "", "score authority: local or model")
	auditCmd.Flags().Bool("strict", false, "fail instead of returning a fallback report, and reject responses missing keys")
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	format, err := export.ParseFormat(auditFormat)
	if err != nil {
		return err
	}
	if format == export.FormatPDF && ui.IsTerminal(stdout) {
		return errors.New("refusing to print a PDF to the terminal; use --output report.pdf")
	}

	text, err := readRequirement(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := loadAuditConfig(cmd)
	if err != nil {
		return err
	}

	gen, closer, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			slog.Debug("close model client", "error", cerr)
		}
	}()

	logger.SetLastInput(text)
	traced := audit.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		logger.SetLastPrompt(prompt)
		return gen.Generate(ctx, prompt)
	})
	auditor := audit.New(traced, cfg.AuditOptions(slog.Default()))

	spin := ui.NewSpinner(stderr, "Auditing requirement...")
	if ui.IsTerminal(stderr) {
		spin.Start()
	}

	var report *audit.Report
	if cfg.Audit.Strict {
		report, err = auditor.RunStrict(ctx, text)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("audit failed: %w", err)
		}
	} else {
		out := auditor.Run(ctx, text)
		spin.Stop()
		logger.SetAuditID(out.AuditID)
		report = out.Report
		slog.Debug("audit finished",
			"audit_id", out.AuditID,
			"attempts", out.Attempts,
			"duration", out.Duration,
			"fallback", out.Fallback(),
			"breakdown", out.Breakdown.Total)
		if out.Fallback() && !errors.Is(out.Err, audit.ErrEmptyRequirement) {
			fmt.Fprintln(stderr, ui.StyleWarning.Render(fmt.Sprintf(
				"⚠️  The model response could not be used; showing a fallback report (audit %s, rerun with --verbose for details).",
				utils.ShortID(out.AuditID, 0))))
		}
	}

	logUsage(gen)

	styled := format == export.FormatText && ui.IsTerminal(stdout)
	if err := export.Render(stdout, format, report, styled); err != nil {
		return err
	}

	w := export.NewWriter(fileSystem)
	for _, path := range auditOutputs {
		if err := w.WriteFile(path, "", report); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "%s Saved %s\n", ui.Icon("✓", ui.StyleSuccess), path)
	}
	return nil
}

// loadAuditConfig loads and validates the app config.
func loadAuditConfig(cmd *cobra.Command) (config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.AppConfig{}, err
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(cmd.ErrOrStderr(), "Using %s (%s), scoring=%s, attempts=%d\n",
			cfg.LLM.Provider, orDefault(cfg.LLM.Model, "default model"), cfg.Audit.Scoring, cfg.Audit.MaxAttempts)
	}
	return cfg, nil
}

// readRequirement returns the requirement from the file argument or stdin.
func readRequirement(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := afero.ReadFile(fileSystem, args[0])
		if err != nil {
			return "", fmt.Errorf("read requirement: %w", err)
		}
		return string(data), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && ui.IsTerminal(f) {
		return "", errors.New("no requirement given: pass a file or pipe text on stdin (try `clarity sample | clarity audit`)")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read requirement from stdin: %w", err)
	}
	return string(data), nil
}

// defaultGenerator builds a ChatGenerator for the configured provider.
func defaultGenerator(ctx context.Context, cfg config.AppConfig) (audit.TextGenerator, io.Closer, error) {
	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, nil, err
	}
	chat, err := llm.NewCloseableChatModel(ctx, llmCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s client: %w", llmCfg.Provider, err)
	}
	slog.Debug("model client ready", "provider", llmCfg.Provider, "model", llmCfg.ModelName())
	return llm.NewChatGenerator(chat, llmCfg.ModelName(), cfg.RequestTimeout()), chat, nil
}

func logUsage(gen audit.TextGenerator) {
	u, ok := gen.(usageReporter)
	if !ok {
		return
	}
	usage := u.Usage()
	slog.Info("model usage",
		"model", u.Model(),
		"calls", usage.Calls,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"estimated", usage.Estimated,
		"cost_usd", fmt.Sprintf("%.6f", u.Cost()))
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
