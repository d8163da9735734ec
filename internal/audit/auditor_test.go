package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// fakeGenerator replays scripted responses and records the prompts it saw.
type fakeGenerator struct {
	responses []string
	errs      []error
	prompts   []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func testOptions() Options {
	return Options{
		RetryDelay: -1,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestAuditor_Success(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"Here you go:\n```json\n" + sampleResponse + "\n```"}}
	out := New(gen, testOptions()).Run(context.Background(), "Create Customer API")

	if out.Err != nil {
		t.Fatalf("Err = %v", out.Err)
	}
	if out.Attempts != 1 || len(gen.prompts) != 1 {
		t.Errorf("attempts = %d, calls = %d; want 1, 1", out.Attempts, len(gen.prompts))
	}
	if out.Report.ClarityScore != 66 {
		t.Errorf("score = %d, want 66", out.Report.ClarityScore)
	}
	if out.Report.RiskLevel != RiskMedium {
		t.Errorf("risk = %q, want Medium", out.Report.RiskLevel)
	}
	if out.Breakdown.Total != out.Report.ClarityScore {
		t.Errorf("breakdown total %d != score %d", out.Breakdown.Total, out.Report.ClarityScore)
	}
	if out.AuditID == "" {
		t.Error("AuditID is empty")
	}
	if out.Fallback() {
		t.Error("Fallback() = true for a successful audit")
	}
}

func TestAuditor_IgnoresModelScoreLocally(t *testing.T) {
	resp := strings.Replace(sampleResponse, "{", `{"clarity_score": 99, "risk_level": "Low",`, 1)
	out := New(&fakeGenerator{responses: []string{resp}}, testOptions()).Run(context.Background(), "req")

	if out.Report.ClarityScore != 66 || out.Report.RiskLevel != RiskMedium {
		t.Errorf("got %d/%s, want locally computed 66/Medium", out.Report.ClarityScore, out.Report.RiskLevel)
	}
}

func TestAuditor_ModelScoring(t *testing.T) {
	tests := []struct {
		name      string
		score     string
		severity  string
		wantScore int
		wantRisk  RiskLevel
	}{
		{"trusted score, no high flags", `"92"`, "low", 92, RiskLow},
		{"fractional score", `84.5`, "medium", 84, RiskLow},
		{"high flag caps tier", `90`, "HIGH", 90, RiskMedium},
		{"out of range", `250`, "low", 100, RiskLow},
		{"unreadable score", `"great"`, "low", DefaultScore, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := `{"clarity_score": ` + tt.score + `, "risk_level": "whatever",
				"risk_flags": [{"risk": "r", "severity": "` + tt.severity + `", "mitigation": "m"}]}`
			opts := testOptions()
			opts.Scoring = ScoreFromModel
			gen := &fakeGenerator{responses: []string{resp}}
			r := New(gen, opts).Audit(context.Background(), "req")

			if r.ClarityScore != tt.wantScore || r.RiskLevel != tt.wantRisk {
				t.Errorf("got %d/%s, want %d/%s", r.ClarityScore, r.RiskLevel, tt.wantScore, tt.wantRisk)
			}
			if !strings.Contains(gen.prompts[0], `"clarity_score": 0`) {
				t.Error("model scoring should use the self-scored prompt")
			}
		})
	}
}

func TestAuditor_RetryAppendsReminder(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"not json at all", sampleResponse}}
	out := New(gen, testOptions()).Run(context.Background(), "req")

	if out.Err != nil {
		t.Fatalf("Err = %v", out.Err)
	}
	if out.Attempts != 2 {
		t.Fatalf("Attempts = %d, want 2", out.Attempts)
	}
	base := gen.prompts[0]
	if base != BuildPrompt("req") {
		t.Error("first attempt should send the plain prompt")
	}
	retry := gen.prompts[1]
	if !strings.HasPrefix(retry, base) {
		t.Error("retry prompt must keep the original prompt as prefix")
	}
	if !strings.Contains(retry, "JSON Parse Error") || !strings.Contains(retry, "not json at all") {
		t.Errorf("retry prompt missing feedback:\n%s", strings.TrimPrefix(retry, base))
	}
}

func TestAuditor_RemindersDoNotStack(t *testing.T) {
	opts := testOptions()
	opts.MaxAttempts = 4
	gen := &fakeGenerator{responses: []string{"bad 1", "bad 2", "bad 3", "bad 4"}}
	New(gen, opts).Run(context.Background(), "req")

	if len(gen.prompts) != 4 {
		t.Fatalf("calls = %d, want 4", len(gen.prompts))
	}
	last := gen.prompts[3]
	if n := strings.Count(last, "REMINDER - PREVIOUS ATTEMPT FAILED"); n != 1 {
		t.Errorf("reminder appears %d times, want 1", n)
	}
	if !strings.Contains(last, "bad 3") || strings.Contains(last, "bad 2") {
		t.Error("reminder should quote only the previous attempt")
	}
}

func TestAuditor_FallbackAfterExhaustion(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"nope", "still nope"}}
	out := New(gen, testOptions()).Run(context.Background(), "req")

	if !out.Fallback() {
		t.Fatal("expected a fallback outcome")
	}
	var malformed *MalformedResponseError
	if !errors.As(out.Err, &malformed) {
		t.Errorf("Err = %T, want *MalformedResponseError", out.Err)
	}
	gap := out.Report.ExecutiveSummary.TopGaps[0]
	if !strings.HasPrefix(gap, "Audit failed after 2 attempt(s): malformed model response") {
		t.Errorf("top gap = %q", gap)
	}
	if out.Report.ClarityScore != DefaultScore || out.Report.RiskLevel != RiskHigh {
		t.Errorf("fallback = %d/%s, want %d/High", out.Report.ClarityScore, out.Report.RiskLevel, DefaultScore)
	}
	if err := out.Report.Validate(); err != nil {
		t.Errorf("fallback invalid: %v", err)
	}
}

func TestAuditor_TransportErrorsAreRetried(t *testing.T) {
	gen := &fakeGenerator{
		errs:      []error{errors.New("connection reset by peer")},
		responses: []string{"", sampleResponse},
	}
	out := New(gen, testOptions()).Run(context.Background(), "req")
	if out.Err != nil || out.Attempts != 2 {
		t.Fatalf("Err = %v, Attempts = %d; want success on attempt 2", out.Err, out.Attempts)
	}
	if !strings.Contains(gen.prompts[1], "Transport Error") {
		t.Error("retry prompt should name the transport error")
	}

	gen = &fakeGenerator{errs: []error{errors.New("boom"), errors.New("boom again")}}
	out = New(gen, testOptions()).Run(context.Background(), "req")
	var transport *TransportError
	if !errors.As(out.Err, &transport) {
		t.Fatalf("Err = %T, want *TransportError", out.Err)
	}
	if !strings.Contains(out.Report.ExecutiveSummary.TopGaps[0], "boom again") {
		t.Errorf("diagnostic should name the last error: %q", out.Report.ExecutiveSummary.TopGaps[0])
	}
}

func TestAuditor_EmptyInputSkipsModel(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		gen := &fakeGenerator{}
		out := New(gen, testOptions()).Run(context.Background(), in)

		if len(gen.prompts) != 0 {
			t.Errorf("input %q: generator called %d times", in, len(gen.prompts))
		}
		if !errors.Is(out.Err, ErrEmptyRequirement) {
			t.Errorf("input %q: Err = %v, want ErrEmptyRequirement", in, out.Err)
		}
		if out.Report.RiskLevel != RiskHigh {
			t.Errorf("input %q: risk = %q, want High", in, out.Report.RiskLevel)
		}
	}
}

func TestAuditor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{responses: []string{sampleResponse}}
	out := New(gen, testOptions()).Run(ctx, "req")

	if len(gen.prompts) != 0 {
		t.Errorf("generator called %d times after cancel", len(gen.prompts))
	}
	if !errors.Is(out.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", out.Err)
	}
	if out.Report.RiskLevel != RiskHigh {
		t.Errorf("risk = %q, want High", out.Report.RiskLevel)
	}
	gap := out.Report.ExecutiveSummary.TopGaps[0]
	if !strings.HasPrefix(gap, "Audit cancelled before the model was called: context canceled") {
		t.Errorf("diagnostic = %q", gap)
	}
}

func TestAuditor_TextlessHighFlagsForceHighRisk(t *testing.T) {
	resp := `{"contract_completeness": {"checklist": [{"item": "Auth", "status": "Yes"}]},
		"risk_flags": [{"severity": "High"}, {"severity": "high"}]}`
	gen := &fakeGenerator{responses: []string{resp}}
	out := New(gen, testOptions()).Run(context.Background(), "req")

	if out.Err != nil {
		t.Fatalf("Err = %v", out.Err)
	}
	if n := len(out.Report.RiskFlags); n != 2 {
		t.Fatalf("risk flags = %d, want 2", n)
	}
	if out.Report.ClarityScore < 80 {
		t.Fatalf("score = %d, want >= 80 so only the flags decide the tier", out.Report.ClarityScore)
	}
	if out.Report.RiskLevel != RiskHigh {
		t.Errorf("risk = %q, want High", out.Report.RiskLevel)
	}
}

func TestAuditor_NeverFailsOnGarbage(t *testing.T) {
	garbage := []string{
		"", "null", "[]", "{", "}{", "42", `"just a string"`,
		`{"clarity_score": {"x": 1}, "risk_level": ["High"]}`,
		`{"risk_flags": "oops", "contract_completeness": []}`,
		"```json\n{\"executive_summary\": {\"top_gaps\": \"one\"}}\n```",
		strings.Repeat("{", 500),
	}

	for _, raw := range garbage {
		gen := &fakeGenerator{responses: []string{raw, raw}}
		r := New(gen, testOptions()).Audit(context.Background(), "req")
		if r == nil {
			t.Fatalf("nil report for %q", raw)
		}
		if err := r.Validate(); err != nil {
			t.Errorf("raw %q: %v", raw, err)
		}

		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("raw %q: marshal: %v", raw, err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("raw %q: unmarshal: %v", raw, err)
		}
		for _, k := range ReportKeys {
			if _, ok := m[k]; !ok {
				t.Errorf("raw %q: key %s missing", raw, k)
			}
		}
	}
}

func TestAuditor_RunStrict(t *testing.T) {
	partial := `{"executive_summary": {"top_gaps": [], "top_quick_fixes": []}}`

	_, err := New(&fakeGenerator{responses: []string{partial, partial}}, testOptions()).
		RunStrict(context.Background(), "req")
	var violation *SchemaViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("err = %v, want *SchemaViolationError", err)
	}
	if len(violation.Missing) != 6 {
		t.Errorf("Missing = %v, want 6 keys", violation.Missing)
	}

	gen := &fakeGenerator{responses: []string{partial, sampleResponse}}
	r, err := New(gen, testOptions()).RunStrict(context.Background(), "req")
	if err != nil {
		t.Fatalf("RunStrict: %v", err)
	}
	if r.ClarityScore != 66 {
		t.Errorf("score = %d, want 66", r.ClarityScore)
	}
	if !strings.Contains(gen.prompts[1], "Schema Violation") {
		t.Error("retry prompt should name the schema violation")
	}

	// The lenient path accepts the same partial response.
	out := New(&fakeGenerator{responses: []string{partial}}, testOptions()).Run(context.Background(), "req")
	if out.Err != nil {
		t.Errorf("Run(partial) Err = %v, want nil", out.Err)
	}

	if _, err := New(&fakeGenerator{}, testOptions()).RunStrict(context.Background(), " "); !errors.Is(err, ErrEmptyRequirement) {
		t.Errorf("RunStrict(blank) err = %v, want ErrEmptyRequirement", err)
	}
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.MaxAttempts != DefaultMaxAttempts || o.RetryDelay != DefaultRetryDelay || o.Scoring != ScoreLocally || o.Logger == nil {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if o := (Options{RetryDelay: -1}).withDefaults(); o.RetryDelay != 0 {
		t.Errorf("negative RetryDelay = %v, want 0", o.RetryDelay)
	}
}
