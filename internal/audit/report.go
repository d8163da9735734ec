// Package audit turns untrusted model output into a well-formed clarity report.
//
// The flow for one audit is: build the prompt, ask the model, extract a JSON
// object from whatever came back, merge it over the canonical default report,
// coerce the enumerated fields, score it, and derive the risk tier. Every
// failure along the way degrades to a fallback report instead of an error.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RiskLevel is the coarse risk tier of a report or a single risk flag.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ChecklistStatus is the pass/fail state of a contract-completeness criterion.
type ChecklistStatus string

const (
	StatusYes     ChecklistStatus = "Yes"
	StatusNo      ChecklistStatus = "No"
	StatusPartial ChecklistStatus = "Partial"
)

// Top-level report keys.
const (
	KeyClarityScore         = "clarity_score"
	KeyRiskLevel            = "risk_level"
	KeyExecutiveSummary     = "executive_summary"
	KeyContractCompleteness = "contract_completeness"
	KeyMeasurabilityAudit   = "measurability_audit"
	KeyAmbiguityFlags       = "ambiguity_flags"
	KeyEdgeCaseCoverage     = "edge_case_coverage"
	KeyRiskFlags            = "risk_flags"
	KeyAcceptanceCriteria   = "acceptance_criteria"
)

// ReportKeys lists every top-level key of a report in display order.
var ReportKeys = []string{
	KeyClarityScore,
	KeyRiskLevel,
	KeyExecutiveSummary,
	KeyContractCompleteness,
	KeyMeasurabilityAudit,
	KeyAmbiguityFlags,
	KeyEdgeCaseCoverage,
	KeyRiskFlags,
	KeyAcceptanceCriteria,
}

// DefaultScore is the clarity score of the default and fallback reports.
const DefaultScore = 0

// Report is the structured result of one audit.
//
// A Report returned by this package is fully populated: sequences are empty
// rather than nil and enumerated fields hold canonical tokens. Treat it as
// read-only; exporters serialize it directly.
type Report struct {
	ClarityScore         int                   `json:"clarity_score" yaml:"clarity_score" validate:"min=0,max=100"`
	RiskLevel            RiskLevel             `json:"risk_level" yaml:"risk_level" validate:"oneof=Low Medium High"`
	ExecutiveSummary     ExecutiveSummary      `json:"executive_summary" yaml:"executive_summary"`
	ContractCompleteness ContractCompleteness  `json:"contract_completeness" yaml:"contract_completeness"`
	MeasurabilityAudit   MeasurabilityAudit    `json:"measurability_audit" yaml:"measurability_audit"`
	AmbiguityFlags       []AmbiguityFlag       `json:"ambiguity_flags" yaml:"ambiguity_flags" validate:"required"`
	EdgeCaseCoverage     EdgeCaseCoverage      `json:"edge_case_coverage" yaml:"edge_case_coverage"`
	RiskFlags            []RiskFlag            `json:"risk_flags" yaml:"risk_flags" validate:"required,dive"`
	AcceptanceCriteria   []AcceptanceCriterion `json:"acceptance_criteria" yaml:"acceptance_criteria" validate:"required"`

	// extra holds the merged tree the report was decoded from, so keys the
	// model added outside the schema survive export.
	extra Node
}

type ExecutiveSummary struct {
	TopGaps       []string `json:"top_gaps" yaml:"top_gaps" validate:"required"`
	TopQuickFixes []string `json:"top_quick_fixes" yaml:"top_quick_fixes" validate:"required"`
}

type ContractCompleteness struct {
	Checklist []ChecklistItem `json:"checklist" yaml:"checklist" validate:"required,dive"`
}

type ChecklistItem struct {
	Item   string          `json:"item" yaml:"item"`
	Status ChecklistStatus `json:"status" yaml:"status" validate:"oneof=Yes No Partial"`
	Notes  string          `json:"notes" yaml:"notes"`
}

type MeasurabilityAudit struct {
	MissingMetrics   []string `json:"missing_metrics" yaml:"missing_metrics" validate:"required"`
	SuggestedMetrics []string `json:"suggested_metrics" yaml:"suggested_metrics" validate:"required"`
}

type AmbiguityFlag struct {
	Phrase           string `json:"phrase" yaml:"phrase"`
	Issue            string `json:"issue" yaml:"issue"`
	SuggestedRewrite string `json:"suggested_rewrite" yaml:"suggested_rewrite"`
}

type EdgeCaseCoverage struct {
	MissingEdgeCases    []string `json:"missing_edge_cases" yaml:"missing_edge_cases" validate:"required"`
	ClarifyingQuestions []string `json:"clarifying_questions" yaml:"clarifying_questions" validate:"required"`
}

type RiskFlag struct {
	Risk       string    `json:"risk" yaml:"risk"`
	Severity   RiskLevel `json:"severity" yaml:"severity" validate:"oneof=Low Medium High"`
	Mitigation string    `json:"mitigation" yaml:"mitigation"`
}

type AcceptanceCriterion struct {
	Given string `json:"given" yaml:"given"`
	When  string `json:"when" yaml:"when"`
	Then  string `json:"then" yaml:"then"`
}

// validate is a singleton validator instance
var validate = validator.New()

// Validate checks the report invariants. Normalized reports always pass; a
// failure here means a caller built or mutated a Report by hand.
func (r *Report) Validate() error {
	if err := validate.Struct(r); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid report: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid report: %w", err)
	}
	return nil
}

// DefaultReport returns the canonical default report: score 0, risk High and
// every sequence empty. A new value is built on every call.
func DefaultReport() *Report {
	return &Report{
		ClarityScore: DefaultScore,
		RiskLevel:    RiskHigh,
		ExecutiveSummary: ExecutiveSummary{
			TopGaps:       []string{},
			TopQuickFixes: []string{},
		},
		ContractCompleteness: ContractCompleteness{Checklist: []ChecklistItem{}},
		MeasurabilityAudit: MeasurabilityAudit{
			MissingMetrics:   []string{},
			SuggestedMetrics: []string{},
		},
		AmbiguityFlags: []AmbiguityFlag{},
		EdgeCaseCoverage: EdgeCaseCoverage{
			MissingEdgeCases:    []string{},
			ClarifyingQuestions: []string{},
		},
		RiskFlags:          []RiskFlag{},
		AcceptanceCriteria: []AcceptanceCriterion{},
	}
}

const (
	fallbackGap      = "The audit could not produce a trustworthy result."
	fallbackQuickFix = "Provide a more detailed requirement document and run the audit again."
)

// FallbackReport returns the report shown when no trustworthy result could be
// produced. A non-empty reason replaces the first top gap so the failure is
// visible to whoever reads the report.
func FallbackReport(reason string) *Report {
	r := DefaultReport()
	r.ExecutiveSummary.TopGaps = []string{fallbackGap}
	r.ExecutiveSummary.TopQuickFixes = []string{fallbackQuickFix}
	if reason = strings.TrimSpace(reason); reason != "" {
		r.ExecutiveSummary.TopGaps[0] = reason
	}
	return r
}

// HighSeverityCount returns the number of risk flags with severity High.
func (r *Report) HighSeverityCount() int {
	n := 0
	for _, f := range r.RiskFlags {
		if f.Severity == RiskHigh {
			n++
		}
	}
	return n
}

// MarshalJSON emits the canonical fields over any extra keys the model
// supplied, so the export keeps unknown keys without letting them override
// normalized values. Strings are not HTML-escaped.
func (r *Report) MarshalJSON() ([]byte, error) {
	canonical, err := r.canonicalJSON()
	if err != nil {
		return nil, err
	}
	if r.extra.Kind != KindObject {
		return canonical, nil
	}
	top, err := ParseNode(canonical)
	if err != nil {
		return nil, err
	}
	return overlay(r.extra, top).MarshalJSON()
}

func (r *Report) canonicalJSON() ([]byte, error) {
	type plain Report
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode((*plain)(r)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Extras returns the top-level keys the model supplied that are not part of
// the report schema, sorted by name.
func (r *Report) Extras() []string {
	if r.extra.Kind != KindObject {
		return nil
	}
	known := make(map[string]bool, len(ReportKeys))
	for _, k := range ReportKeys {
		known[k] = true
	}
	var out []string
	for _, k := range r.extra.Keys() {
		if !known[k] {
			out = append(out, k)
		}
	}
	return out
}
