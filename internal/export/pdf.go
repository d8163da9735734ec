package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

// ReportTitle heads the PDF export.
const ReportTitle = "AI Requirement Clarity Auditor Report"

// Section caps for the PDF export.
const (
	maxListItems       = 25
	maxChecklistRows   = 30
	maxAmbiguityFlags  = 20
	maxRiskFlags       = 25
	maxAcceptanceItems = 20
)

// Empty-section placeholders.
const (
	noneIdentified = "• None identified."
	noChecklist    = "• No checklist results provided."
	noAmbiguity    = "• No ambiguity flags detected."
	noRisks        = "• No significant risks identified."
	noAcceptance   = "• Acceptance criteria could not be derived from the current specification."
)

// Layout in points on a US Letter page.
const (
	pageMargin  = 54 // 0.75in
	bodyLeading = 12
	bodyAfter   = 6
	indentStep  = 14
	cellPadding = 6
)

type rgb struct{ r, g, b int }

var (
	colorText      = rgb{17, 17, 17}
	colorSubtle    = rgb{51, 51, 51}
	colorHeaderBg  = rgb{255, 247, 237}
	colorGrid      = rgb{231, 215, 200}
	colorAltRow    = rgb{255, 251, 246}
	colorRowPlain  = rgb{255, 255, 255}
	colorHeadingFg = rgb{17, 17, 17}
)

// PDF writes r as a printable report.
func PDF(w io.Writer, r *audit.Report) error {
	doc := buildPDF(r)
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render pdf report: %w", err)
	}
	return nil
}

func buildPDF(r *audit.Report) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(ReportTitle, true)
	pdf.SetCreator("clarity", true)

	d := &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()
	d.write(r)
	return pdf
}

type pdfDoc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (d *pdfDoc) write(r *audit.Report) {
	d.title(ReportTitle)
	d.small("Structured audit output for requirement clarity and execution readiness.")
	d.space(10)

	d.heading("Executive Summary")
	d.table([]float64{144, 324}, nil, [][]string{
		{"Clarity Score", strconv.Itoa(r.ClarityScore)},
		{"Risk Level", string(r.RiskLevel)},
	})
	d.space(12)

	d.bulletSection("Key Gaps Identified", r.ExecutiveSummary.TopGaps)
	d.bulletSection("Recommended Quick Improvements", r.ExecutiveSummary.TopQuickFixes)

	d.heading("Contract Completeness")
	if len(r.ContractCompleteness.Checklist) > 0 {
		rows := make([][]string, 0, maxChecklistRows)
		for _, c := range capped(r.ContractCompleteness.Checklist, maxChecklistRows) {
			rows = append(rows, []string{c.Item, string(c.Status)})
		}
		d.table([]float64{374.4, 93.6}, []string{"Item", "Status"}, rows)
	} else {
		d.body(noChecklist, 0)
	}
	d.space(12)

	d.bulletSection("Measurability Review (Missing Metrics)", r.MeasurabilityAudit.MissingMetrics)

	d.heading("Ambiguity Flags")
	if len(r.AmbiguityFlags) > 0 {
		for _, fl := range capped(r.AmbiguityFlags, maxAmbiguityFlags) {
			d.body("• Phrase: "+fl.Phrase, 0)
			d.body("Issue: "+fl.Issue, indentStep)
			d.body("Suggested clarification: "+fl.SuggestedRewrite, indentStep)
			d.space(6)
		}
	} else {
		d.body(noAmbiguity, 0)
	}
	d.space(10)

	d.bulletSection("Edge Case Coverage (Missing)", r.EdgeCaseCoverage.MissingEdgeCases)

	d.heading("Risk Assessment")
	if len(r.RiskFlags) > 0 {
		for _, rf := range capped(r.RiskFlags, maxRiskFlags) {
			d.body(fmt.Sprintf("• %s (Severity: %s)", rf.Risk, rf.Severity), 0)
			if m := strings.TrimSpace(rf.Mitigation); m != "" {
				d.body("Mitigation: "+m, indentStep)
			}
			d.space(4)
		}
	} else {
		d.body(noRisks, 0)
	}
	d.space(10)

	d.heading("Acceptance Criteria")
	if len(r.AcceptanceCriteria) > 0 {
		for _, ac := range capped(r.AcceptanceCriteria, maxAcceptanceItems) {
			d.body("• Given "+ac.Given, 0)
			d.body("When "+ac.When, indentStep)
			d.body("Then "+ac.Then, indentStep)
			d.space(6)
		}
	} else {
		d.body(noAcceptance, 0)
	}
}

func (d *pdfDoc) color(c rgb) { d.pdf.SetTextColor(c.r, c.g, c.b) }

func (d *pdfDoc) title(s string) {
	d.pdf.SetFont("Helvetica", "B", 18)
	d.color(colorHeadingFg)
	d.pdf.MultiCell(0, 22, d.tr(s), "", "C", false)
	d.space(6)
}

func (d *pdfDoc) small(s string) {
	d.pdf.SetFont("Helvetica", "", 9.5)
	d.color(colorSubtle)
	d.pdf.MultiCell(0, 12, d.tr(s), "", "L", false)
	d.space(4)
}

func (d *pdfDoc) heading(s string) {
	d.pdf.SetFont("Helvetica", "B", 14)
	d.color(colorHeadingFg)
	d.space(4)
	d.pdf.MultiCell(0, 17, d.tr(s), "", "L", false)
	d.space(4)
}

func (d *pdfDoc) body(s string, indent float64) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.color(colorText)
	left, _, _, _ := d.pdf.GetMargins()
	d.pdf.SetX(left + indent)
	d.pdf.MultiCell(0, bodyLeading, d.tr(s), "", "L", false)
	d.space(bodyAfter)
}

func (d *pdfDoc) space(h float64) { d.pdf.Ln(h) }

func (d *pdfDoc) bulletSection(title string, items []string) {
	d.heading(title)
	if len(items) == 0 {
		d.body(noneIdentified, 0)
	}
	for _, it := range capped(items, maxListItems) {
		d.body("• "+it, 0)
	}
	d.space(10)
}

// table draws a gridded table. A non-nil header row gets the accent
// background and bold font; without one the first data row is accented.
// Rows grow to fit wrapped cell text and never split across pages.
func (d *pdfDoc) table(widths []float64, header []string, rows [][]string) {
	pdf := d.pdf
	pdf.SetDrawColor(colorGrid.r, colorGrid.g, colorGrid.b)
	pdf.SetLineWidth(0.5)

	all := rows
	if header != nil {
		all = append([][]string{header}, rows...)
	}
	for i, row := range all {
		accent := i == 0
		style := ""
		if accent && header != nil {
			style = "B"
		}
		fill := colorRowPlain
		switch {
		case accent:
			fill = colorHeaderBg
		case header != nil && i%2 == 0:
			fill = colorAltRow
		}
		d.tableRow(widths, row, style, fill)
	}
}

func (d *pdfDoc) tableRow(widths []float64, row []string, style string, fill rgb) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", style, 10)

	cells := make([]string, len(widths))
	height := 0.0
	for i, w := range widths {
		if i < len(row) {
			cells[i] = d.tr(row[i])
		}
		n := len(pdf.SplitLines([]byte(cells[i]), w-2*cellPadding))
		if n == 0 {
			n = 1
		}
		if h := float64(n)*bodyLeading + 2*cellPadding; h > height {
			height = h
		}
	}

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+height > pageH-bottom {
		pdf.AddPage()
	}

	x, y := pdf.GetX(), pdf.GetY()
	pdf.SetFillColor(fill.r, fill.g, fill.b)
	d.color(colorText)
	for i, w := range widths {
		pdf.Rect(x, y, w, height, "FD")
		pdf.SetXY(x+cellPadding, y+cellPadding)
		pdf.MultiCell(w-2*cellPadding, bodyLeading, cells[i], "", "L", false)
		x += w
	}
	left, _, _, _ := pdf.GetMargins()
	pdf.SetXY(left, y+height)
}

func capped[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
