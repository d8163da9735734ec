package audit

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Retry defaults.
const (
	DefaultMaxAttempts = 2
	DefaultRetryDelay  = 500 * time.Millisecond
)

// TextGenerator is the model backend: one prompt in, generated text out.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to TextGenerator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Options configures an Auditor. Zero values select the defaults.
type Options struct {
	MaxAttempts int
	// RetryDelay is the pause between attempts. Negative disables it.
	RetryDelay time.Duration
	Scoring    ScoringMode
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.Scoring == "" {
		o.Scoring = ScoreLocally
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Auditor runs audits against one TextGenerator. It holds no per-audit
// state, so a single Auditor may serve sequential or concurrent calls.
type Auditor struct {
	gen  TextGenerator
	opts Options
}

// New creates an Auditor.
func New(gen TextGenerator, opts Options) *Auditor {
	return &Auditor{gen: gen, opts: opts.withDefaults()}
}

// Outcome describes one audit run.
type Outcome struct {
	AuditID   string
	Report    *Report
	Breakdown Breakdown
	Attempts  int
	Duration  time.Duration
	// Err is the error of the last failed attempt when the report is a
	// fallback, ErrEmptyRequirement for blank input, and nil on success.
	Err error
}

// Fallback reports whether the report is a fallback rather than a model
// result.
func (o *Outcome) Fallback() bool { return o.Err != nil }

// Audit returns the report for text. It never fails: any error degrades to
// a fallback report carrying the diagnostic in its first top gap.
func (a *Auditor) Audit(ctx context.Context, text string) *Report {
	return a.Run(ctx, text).Report
}

// Run is Audit with the run details attached.
func (a *Auditor) Run(ctx context.Context, text string) *Outcome {
	return a.run(ctx, text, false)
}

// RunStrict audits text with the schema check enabled: a response missing
// required top-level keys is an attempt failure. When every attempt fails
// the last error is returned instead of a fallback report.
func (a *Auditor) RunStrict(ctx context.Context, text string) (*Report, error) {
	out := a.run(ctx, text, true)
	if out.Err != nil {
		return nil, out.Err
	}
	return out.Report, nil
}

func (a *Auditor) run(ctx context.Context, text string, strict bool) *Outcome {
	start := time.Now()
	out := &Outcome{AuditID: uuid.NewString()}
	log := a.opts.Logger.With("audit_id", out.AuditID)

	defer func() {
		out.Duration = time.Since(start)
		out.Breakdown = Score(out.Report)
	}()

	if strings.TrimSpace(text) == "" {
		log.Debug("empty requirement, skipping model call")
		out.Report = FallbackReport("No requirement text was provided.")
		out.Err = ErrEmptyRequirement
		return out
	}

	base := BuildPrompt(text)
	if a.opts.Scoring == ScoreFromModel {
		base = BuildSelfScoredPrompt(text)
	}

	var (
		lastErr error
		lastRaw string
	)
	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		if attempt > 1 && !a.sleep(ctx) {
			lastErr = ctx.Err()
			break
		}
		out.Attempts = attempt

		prompt := base
		if lastErr != nil {
			prompt = withFeedback(base, lastErr, lastRaw)
		}

		report, raw, err := a.attempt(ctx, prompt, strict)
		if err == nil {
			out.Report = report
			log.Debug("audit complete",
				"attempt", attempt,
				"score", report.ClarityScore,
				"risk", report.RiskLevel)
			return out
		}
		lastErr, lastRaw = err, raw
		log.Warn("audit attempt failed",
			"attempt", attempt,
			"max_attempts", a.opts.MaxAttempts,
			"kind", errorKind(err),
			"error", err)
	}

	out.Report = FallbackReport(diagnostic(out.Attempts, lastErr))
	out.Err = lastErr
	return out
}

func (a *Auditor) attempt(ctx context.Context, prompt string, strict bool) (*Report, string, error) {
	raw, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		var transport *TransportError
		if !errors.As(err, &transport) {
			err = &TransportError{Err: err}
		}
		return nil, "", err
	}

	parsed, err := ExtractJSON(raw)
	if err != nil {
		return nil, raw, err
	}
	if strict {
		if err := CheckSchema(parsed, a.opts.Scoring); err != nil {
			return nil, raw, err
		}
	}

	report := Normalize(parsed)
	finalize(report, a.opts.Scoring)
	return report, raw, nil
}

// sleep waits RetryDelay, returning false if ctx ends first.
func (a *Auditor) sleep(ctx context.Context) bool {
	if a.opts.RetryDelay <= 0 {
		return true
	}
	t := time.NewTimer(a.opts.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
