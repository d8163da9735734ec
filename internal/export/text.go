package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/ui"
)

// Text writes a terminal summary of r, one section per report area. With
// styled false the output carries no ANSI escapes.
func Text(w io.Writer, r *audit.Report, styled bool) error {
	t := &textWriter{styled: styled}
	if styled {
		t.width = ui.TerminalWidth(w, 100)
	}
	t.render(r)
	if _, err := io.WriteString(w, t.sb.String()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	return nil
}

type textWriter struct {
	sb     strings.Builder
	styled bool
	width  int // wrap width; 0 disables wrapping
}

func (t *textWriter) paint(s lipgloss.Style, v string) string {
	if !t.styled {
		return v
	}
	return s.Render(v)
}

func (t *textWriter) line(format string, args ...any) {
	fmt.Fprintf(&t.sb, format+"\n", args...)
}

func (t *textWriter) section(title string) {
	t.sb.WriteString("\n")
	t.line("%s", t.paint(ui.StyleSectionTitle, title))
}

func (t *textWriter) bullets(items []string, empty string) {
	if len(items) == 0 {
		t.line("  %s", t.paint(ui.StyleSubtle, empty))
		return
	}
	for _, it := range items {
		t.line("  • %s", t.wrap(it, 4))
	}
}

// wrap folds s to the writer width, indenting continuation lines.
func (t *textWriter) wrap(s string, indent int) string {
	if t.width <= indent+10 {
		return s
	}
	wrapped := ui.WrapText(s, t.width-indent)
	return strings.ReplaceAll(wrapped, "\n", "\n"+strings.Repeat(" ", indent))
}

func (t *textWriter) render(r *audit.Report) {
	risk := ui.RiskStyle(r.RiskLevel)
	score := fmt.Sprintf("Clarity Score: %s   Risk Level: %s",
		t.paint(ui.StyleMetricValue, fmt.Sprintf("%d/100", r.ClarityScore)),
		t.paint(risk.Bold(true), string(r.RiskLevel)))
	if t.styled {
		panel := ui.NewPanel("Requirement Clarity Audit", score).
			WithBorderColor(ui.RiskColor(r.RiskLevel))
		t.line("%s", panel.Render())
	} else {
		t.line("%s", "Requirement Clarity Audit")
		t.line("%s", score)
	}

	t.section("Key Gaps Identified")
	t.bullets(r.ExecutiveSummary.TopGaps, "No major structural gaps identified.")

	t.section("Recommended Quick Improvements")
	t.bullets(r.ExecutiveSummary.TopQuickFixes, "No immediate improvements suggested.")

	t.section("Contract Completeness")
	switch {
	case len(r.ContractCompleteness.Checklist) == 0:
		t.line("  %s", t.paint(ui.StyleSubtle, "No checklist results provided."))
	case t.styled:
		t.checklistTable(r.ContractCompleteness.Checklist)
	default:
		for _, c := range r.ContractCompleteness.Checklist {
			status := t.paint(ui.StatusStyle(c.Status), string(c.Status))
			t.line("  %s %s (%s)", ui.StatusIcon(c.Status), c.Item, status)
			if c.Notes != "" {
				t.line("      %s", t.paint(ui.StyleSubtle, c.Notes))
			}
		}
	}

	t.section("Measurability Review")
	if len(r.MeasurabilityAudit.MissingMetrics) == 0 {
		t.line("  %s", t.paint(ui.StyleSubtle, "All key performance expectations are defined."))
	}
	for _, m := range r.MeasurabilityAudit.MissingMetrics {
		t.line("  • Missing: %s", m)
	}
	if len(r.MeasurabilityAudit.SuggestedMetrics) > 0 {
		t.line("  %s", t.paint(ui.StyleTitle, "Suggested metrics:"))
		for _, m := range r.MeasurabilityAudit.SuggestedMetrics {
			t.line("  • %s", m)
		}
	}

	t.section("Ambiguity Flags")
	if len(r.AmbiguityFlags) == 0 {
		t.line("  %s", t.paint(ui.StyleSubtle, "No ambiguous language detected."))
	}
	for _, fl := range r.AmbiguityFlags {
		t.line("  • Phrase: %s", t.paint(ui.StyleWarning, fl.Phrase))
		t.line("    Issue: %s", fl.Issue)
		t.line("    Suggested clarification: %s", fl.SuggestedRewrite)
	}

	t.section("Edge Case Coverage")
	t.bullets(r.EdgeCaseCoverage.MissingEdgeCases, "Edge case coverage appears sufficient.")
	if len(r.EdgeCaseCoverage.ClarifyingQuestions) > 0 {
		t.line("  %s", t.paint(ui.StyleTitle, "Questions to clarify:"))
		for _, q := range r.EdgeCaseCoverage.ClarifyingQuestions {
			t.line("  %s %s", t.paint(ui.StyleCyan, "?"), q)
		}
	}

	t.section("Risk Assessment")
	if len(r.RiskFlags) == 0 {
		t.line("  %s", t.paint(ui.StyleSubtle, "No significant risks identified."))
	}
	for _, rf := range r.RiskFlags {
		sev := t.paint(ui.RiskStyle(rf.Severity), "["+string(rf.Severity)+"]")
		t.line("  %s %s", sev, rf.Risk)
		mitigation := strings.TrimSpace(rf.Mitigation)
		if mitigation == "" {
			mitigation = "Not provided."
		}
		t.line("    Mitigation: %s", mitigation)
	}

	t.section("Acceptance Criteria")
	if len(r.AcceptanceCriteria) == 0 {
		t.line("  %s", t.paint(ui.StyleSubtle, "Acceptance criteria could not be derived from the current specification."))
	}
	for i, ac := range r.AcceptanceCriteria {
		if i > 0 {
			t.sb.WriteString("\n")
		}
		t.line("  %s %s", t.paint(ui.StyleTitle, "Given"), ac.Given)
		t.line("  %s %s", t.paint(ui.StyleTitle, "When"), ac.When)
		t.line("  %s %s", t.paint(ui.StyleTitle, "Then"), ac.Then)
	}
}

func (t *textWriter) checklistTable(items []audit.ChecklistItem) {
	tbl := &ui.Table{Headers: []string{"Item", "Status", "Notes"}}
	if t.width > 0 {
		tbl.MaxWidth = max(20, (t.width-12)/2)
	}
	for _, c := range items {
		tbl.Rows = append(tbl.Rows, []string{c.Item, ui.StatusIcon(c.Status) + " " + string(c.Status), c.Notes})
	}
	t.sb.WriteString(tbl.Render())
}
