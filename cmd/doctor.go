package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/config"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/llm"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/ui"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/utils"
)

// smokePrompt is sent by doctor to confirm the model answers.
const smokePrompt = "Reply with exactly: connected"

var doctorOffline bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and model connectivity",
	Long: `Validate your clarity configuration and confirm the model answers.

Checks:
  • Configuration values (.clarity.yaml, CLARITY_* env)
  • Provider, model and API key resolution
  • A one-line round trip to the model (skipped with --offline)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "skip the model round trip")
}

// DoctorCheck represents a single diagnostic check
type DoctorCheck struct {
	Name    string
	Status  string // "ok", "warn", "fail"
	Message string
	Hint    string
}

func runDoctor(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out, "🩺 clarity doctor")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(out)

	var checks []DoctorCheck
	cfg, cfgCheck := checkConfig()
	checks = append(checks, cfgCheck)

	llmCfg, llmCheck := checkLLMConfig()
	checks = append(checks, llmCheck)

	if cfgCheck.Status != "fail" && llmCheck.Status != "fail" {
		checks = append(checks, checkModelKnown(llmCfg))
		if doctorOffline {
			checks = append(checks, DoctorCheck{Name: "Model round trip", Status: "warn", Message: "skipped (--offline)"})
		} else {
			checks = append(checks, checkRoundTrip(ctx, cfg))
		}
	}

	failed := false
	for _, c := range checks {
		printCheck(out, c)
		if c.Status == "fail" {
			failed = true
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if failed {
		fmt.Fprintln(out, "❌ Issues found. Fix the errors above before running an audit.")
		return fmt.Errorf("doctor found problems")
	}
	fmt.Fprintln(out, "✅ Everything looks good! Try: clarity sample | clarity audit")
	return nil
}

func checkConfig() (config.AppConfig, DoctorCheck) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, DoctorCheck{
			Name:    "Configuration",
			Status:  "fail",
			Message: err.Error(),
			Hint:    "Fix the value in .clarity.yaml or the matching CLARITY_* variable",
		}
	}
	return cfg, DoctorCheck{
		Name:    "Configuration",
		Status:  "ok",
		Message: fmt.Sprintf("scoring=%s, attempts=%d, timeout=%s", cfg.Audit.Scoring, cfg.Audit.MaxAttempts, cfg.RequestTimeout()),
	}
}

func checkLLMConfig() (llm.Config, DoctorCheck) {
	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return llmCfg, DoctorCheck{
			Name:    "LLM provider",
			Status:  "fail",
			Message: err.Error(),
			Hint:    "Export the provider's API key or add llm.apiKeys.<provider> to .clarity.yaml",
		}
	}
	msg := fmt.Sprintf("%s / %s", llmCfg.Provider, llmCfg.ModelName())
	if llmCfg.BaseURL != "" {
		msg += " @ " + llmCfg.BaseURL
	}
	return llmCfg, DoctorCheck{Name: "LLM provider", Status: "ok", Message: msg}
}

func checkModelKnown(llmCfg llm.Config) DoctorCheck {
	name := llmCfg.ModelName()
	m := llm.GetModel(name)
	if m == nil {
		var known []string
		for _, opt := range llm.GetModelsForProvider(llmCfg.Provider) {
			known = append(known, opt.ID)
		}
		return DoctorCheck{
			Name:    "Model",
			Status:  "warn",
			Message: fmt.Sprintf("%q is not in the built-in catalog; cost reporting is disabled", name),
			Hint:    "Known models: " + strings.Join(known, ", "),
		}
	}
	if m.ProviderID != llmCfg.Provider {
		return DoctorCheck{
			Name:    "Model",
			Status:  "warn",
			Message: fmt.Sprintf("%s belongs to %s, not %s", m.ID, m.ProviderID, llmCfg.Provider),
			Hint:    "Pass --provider " + string(m.ProviderID),
		}
	}
	return DoctorCheck{Name: "Model", Status: "ok", Message: fmt.Sprintf("%s (%s)", m.ID, m.Provider)}
}

func checkRoundTrip(ctx context.Context, cfg config.AppConfig) DoctorCheck {
	gen, closer, err := newGenerator(ctx, cfg)
	if err != nil {
		return DoctorCheck{Name: "Model round trip", Status: "fail", Message: err.Error()}
	}
	defer func() { _ = closer.Close() }()

	start := time.Now()
	reply, err := gen.Generate(ctx, smokePrompt)
	if err != nil {
		return DoctorCheck{
			Name:    "Model round trip",
			Status:  "fail",
			Message: err.Error(),
			Hint:    "Check network access, the API key and the model name",
		}
	}

	reply = strings.TrimSpace(reply)
	elapsed := time.Since(start).Round(time.Millisecond)
	if !strings.Contains(strings.ToLower(reply), "connected") {
		return DoctorCheck{
			Name:    "Model round trip",
			Status:  "warn",
			Message: fmt.Sprintf("unexpected reply after %s: %q", elapsed, utils.Truncate(reply, 80)),
		}
	}
	return DoctorCheck{Name: "Model round trip", Status: "ok", Message: fmt.Sprintf("replied %q in %s", utils.Truncate(reply, 80), elapsed)}
}

func printCheck(out io.Writer, c DoctorCheck) {
	var icon string
	switch c.Status {
	case "ok":
		icon = "✅"
	case "warn":
		icon = "⚠️ "
	case "fail":
		icon = "❌"
	}
	fmt.Fprintf(out, "%s %s: %s\n", icon, c.Name, c.Message)
	if c.Hint != "" {
		fmt.Fprintf(out, "   %s\n", ui.StyleSubtle.Render("→ "+c.Hint))
	}
}
