package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/config"
)

// fakeGenerator replays canned replies and records prompts.
type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeGenerator) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// testEnv isolates one command execution: fresh viper state, an in-memory
// filesystem, no ambient API keys and default flag values.
type testEnv struct {
	t   *testing.T
	fs  afero.Fs
	gen *fakeGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	for _, key := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"GEMINI_MODEL", "CLARITY_LLM_PROVIDER", "CLARITY_LLM_MODEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	home := t.TempDir()
	origHome := config.GetGlobalConfigDir
	config.GetGlobalConfigDir = func() (string, error) { return home, nil }

	viper.Reset()
	viper.Set("audit.retryDelayMs", 0)

	env := &testEnv{t: t, fs: afero.NewMemMapFs(), gen: &fakeGenerator{}}

	origFS, origGen := fileSystem, newGenerator
	fileSystem = env.fs
	newGenerator = func(context.Context, config.AppConfig) (audit.TextGenerator, io.Closer, error) {
		return env.gen, nopCloser{}, nil
	}

	resetFlags(rootCmd)

	t.Cleanup(func() {
		fileSystem, newGenerator = origFS, origGen
		config.GetGlobalConfigDir = origHome
		resetFlags(rootCmd)
		viper.Reset()
	})
	return env
}

// resetFlags restores every flag on cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() != "stringArray" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
	auditOutputs = nil
}

// run executes the root command with args and stdin, returning stdout,
// stderr and the command error.
func (e *testEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	e.t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// completeReply is a fenced model response carrying every report key.
const completeReply = "Here is the audit:\n```json\n" + `{
  "executive_summary": {"top_gaps": ["No pagination rules"], "top_quick_fixes": ["Define page size limits"]},
  "contract_completeness": {"checklist": [
    {"item": "Endpoint and HTTP method defined", "status": "Yes", "notes": "POST /v1/customers"},
    {"item": "Authentication defined", "status": "Yes", "notes": "OAuth 2.0"}
  ]},
  "measurability_audit": {"missing_metrics": ["Error budget"], "suggested_metrics": ["5xx rate < 0.1%"]},
  "ambiguity_flags": [{"phrase": "unexpected server errors", "issue": "open ended", "suggested_rewrite": "list the 5xx cases"}],
  "edge_case_coverage": {"missing_edge_cases": ["Duplicate email"], "clarifying_questions": ["Is email unique?"]},
  "risk_flags": [{"risk": "Undefined retention", "severity": "Medium", "mitigation": "Define retention"}],
  "acceptance_criteria": [{"given": "a valid token", "when": "POST /v1/customers", "then": "201 Created"}]
}` + "\n```"
