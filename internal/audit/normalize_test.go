package audit

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

const sampleResponse = `{
  "executive_summary": {"top_gaps": ["No auth scheme"], "top_quick_fixes": ["Define OAuth2 scopes"]},
  "contract_completeness": {"checklist": [
    {"item": "Endpoint and HTTP method defined", "status": "yes", "notes": ""},
    {"item": "Authentication defined", "status": "NO", "notes": "missing"}
  ]},
  "measurability_audit": {
    "missing_metrics": ["Latency target"],
    "suggested_metrics": [{"metric": "p95 latency", "target": "< 250ms", "notes": "per endpoint"}]
  },
  "ambiguity_flags": [{"phrase": "fast", "issue": "not measurable", "suggested_rewrite": "p95 < 250ms"}],
  "edge_case_coverage": {"missing_edge_cases": ["Rate limit exceeded"], "questions_to_clarify": ["What happens on 429?"]},
  "risk_flags": [{"risk": "Unauthenticated access", "severity": "high", "mitigation": "Require OAuth2"}],
  "acceptance_criteria": [{"given": "a valid payload", "when": "POST /customers", "then": "201 Created"}]
}`

func TestNormalize_SampleResponse(t *testing.T) {
	r := Normalize(mustParse(t, sampleResponse))

	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := r.ContractCompleteness.Checklist[0].Status; got != StatusYes {
		t.Errorf("status[0] = %q, want Yes", got)
	}
	if got := r.ContractCompleteness.Checklist[1].Status; got != StatusNo {
		t.Errorf("status[1] = %q, want No", got)
	}
	if got := r.RiskFlags[0].Severity; got != RiskHigh {
		t.Errorf("severity = %q, want High", got)
	}
	wantMetrics := []string{"p95 latency: < 250ms (per endpoint)"}
	if !reflect.DeepEqual(r.MeasurabilityAudit.SuggestedMetrics, wantMetrics) {
		t.Errorf("suggested_metrics = %q, want %q", r.MeasurabilityAudit.SuggestedMetrics, wantMetrics)
	}
	wantQuestions := []string{"What happens on 429?"}
	if !reflect.DeepEqual(r.EdgeCaseCoverage.ClarifyingQuestions, wantQuestions) {
		t.Errorf("clarifying_questions = %q, want %q", r.EdgeCaseCoverage.ClarifyingQuestions, wantQuestions)
	}
}

func TestNormalize_GarbageKeepsInvariants(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"clarity_score": {"x": 1}, "risk_level": 42}`,
		`{"risk_flags": "oops", "ambiguity_flags": null}`,
		`{"contract_completeness": [], "measurability_audit": "none"}`,
		`{"contract_completeness": {"checklist": [1, "two", null, {"status": "maybe", "item": "x"}]}}`,
		`{"executive_summary": {"top_gaps": [null, "", "  ", "real gap"]}}`,
		`{"risk_flags": [{"risk": "r", "severity": "CRITICAL"}]}`,
		`{"acceptance_criteria": [{}, {"given": "g"}]}`,
	}

	for _, in := range inputs {
		r := Normalize(mustParse(t, in))
		if err := r.Validate(); err != nil {
			t.Errorf("Normalize(%s): %v", in, err)
		}

		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var m map[string]json.RawMessage
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		for _, k := range ReportKeys {
			if string(m[k]) == "" || string(m[k]) == "null" {
				t.Errorf("Normalize(%s): key %s missing or null in %s", in, k, data)
			}
		}
	}
}

func TestNormalize_NonObjectGivesDefault(t *testing.T) {
	for _, n := range []Node{Null(), String("x"), Array(Number("1"))} {
		r := Normalize(n)
		want := DefaultReport()
		if !reflect.DeepEqual(r.ExecutiveSummary, want.ExecutiveSummary) || r.ClarityScore != want.ClarityScore || r.RiskLevel != want.RiskLevel {
			t.Errorf("Normalize(%v) = %+v, want defaults", n.Kind, r)
		}
	}
}

func TestNormalize_SparseRecordsCount(t *testing.T) {
	r := Normalize(mustParse(t, `{
		"contract_completeness": {"checklist": [{"status": "Yes"}, {"status": "Yes"}, {"item": "Auth", "status": "No"}]},
		"ambiguity_flags": ["fast", "secure", "scalable", "robust", "soon"],
		"risk_flags": [{"severity": "High"}, {"severity": "high"}, "Vendor lock-in"],
		"acceptance_criteria": ["Users can reset their password"]
	}`))

	if n := len(r.ContractCompleteness.Checklist); n != 3 {
		t.Fatalf("checklist len = %d, want 3", n)
	}
	if got := r.AmbiguityFlags[4].Phrase; len(r.AmbiguityFlags) != 5 || got != "soon" {
		t.Fatalf("ambiguity = %+v, want 5 flags ending with phrase soon", r.AmbiguityFlags)
	}
	if n := len(r.RiskFlags); n != 3 {
		t.Fatalf("risk len = %d, want 3", n)
	}
	if got := r.RiskFlags[2]; got.Risk != "Vendor lock-in" || got.Severity != RiskHigh {
		t.Errorf("string risk = %+v, want risk text with High severity", got)
	}
	if got := r.AcceptanceCriteria; len(got) != 1 || got[0].Then != "Users can reset their password" {
		t.Errorf("acceptance = %+v", got)
	}

	b := Score(r)
	if b.Contract != 20 {
		t.Errorf("contract = %d, want 20", b.Contract)
	}
	if b.Ambiguity != 0 {
		t.Errorf("ambiguity = %d, want 0", b.Ambiguity)
	}
	if got := DeriveRiskLevel(b.Total, r.RiskFlags); got != RiskHigh {
		t.Errorf("risk level = %q, want High", got)
	}
}

func TestNormalize_DropsEmptyPlaceholders(t *testing.T) {
	r := Normalize(mustParse(t, `{
		"contract_completeness": {"checklist": [{"item": "", "status": "", "notes": ""}, null]},
		"ambiguity_flags": [{"phrase": "", "issue": "", "suggested_rewrite": ""}, "  "],
		"risk_flags": [{}, {"risk": "", "mitigation": null}],
		"acceptance_criteria": [{"given": "", "when": "", "then": ""}],
		"executive_summary": {"top_gaps": ["", null]}
	}`))

	if n := len(r.ContractCompleteness.Checklist); n != 0 {
		t.Errorf("checklist len = %d, want 0", n)
	}
	if n := len(r.AmbiguityFlags); n != 0 {
		t.Errorf("ambiguity len = %d, want 0", n)
	}
	if n := len(r.RiskFlags); n != 0 {
		t.Errorf("risk len = %d, want 0", n)
	}
	if n := len(r.AcceptanceCriteria); n != 0 {
		t.Errorf("acceptance len = %d, want 0", n)
	}
	if n := len(r.ExecutiveSummary.TopGaps); n != 0 {
		t.Errorf("top gaps len = %d, want 0", n)
	}
}

func TestNormalize_ClarifyingQuestionsWins(t *testing.T) {
	r := Normalize(mustParse(t, `{"edge_case_coverage": {
		"clarifying_questions": ["canonical"],
		"questions_to_clarify": ["legacy"]
	}}`))
	if got := r.EdgeCaseCoverage.ClarifyingQuestions; len(got) != 1 || got[0] != "canonical" {
		t.Errorf("clarifying_questions = %q, want [canonical]", got)
	}
}

func TestCoerceScore(t *testing.T) {
	tests := []struct {
		in   Node
		want int
	}{
		{Number("85"), 85},
		{Number("72.5"), 72},
		{Number("73.5"), 74},
		{Number("-5"), 0},
		{Number("150"), 100},
		{Number("1e2"), 100},
		{String("85%"), 85},
		{String(" 40 "), 40},
		{String("abc"), DefaultScore},
		{Bool(true), DefaultScore},
		{Null(), DefaultScore},
		{Object(), DefaultScore},
	}

	for _, tt := range tests {
		if got := coerceScore(tt.in, DefaultScore); got != tt.want {
			t.Errorf("coerceScore(%v %q) = %d, want %d", tt.in.Kind, tt.in.Text(), got, tt.want)
		}
	}
}

func TestNormalizeRisk(t *testing.T) {
	tests := map[string]RiskLevel{
		"low":      RiskLow,
		"MEDIUM":   RiskMedium,
		" hIGH ":   RiskHigh,
		"Low":      RiskLow,
		"critical": RiskHigh,
		"":         RiskHigh,
		"very low": RiskHigh,
	}
	for in, want := range tests {
		if got := normalizeRisk(String(in)); got != want {
			t.Errorf("normalizeRisk(%q) = %q, want %q", in, got, want)
		}
	}
	if got := normalizeRisk(Number("1")); got != RiskHigh {
		t.Errorf("normalizeRisk(1) = %q, want High", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   Node
		want ChecklistStatus
	}{
		{String("yes"), StatusYes},
		{String("PARTIAL"), StatusPartial},
		{String("No"), StatusNo},
		{String("n/a"), StatusNo},
		{String(""), StatusNo},
		{Bool(true), StatusYes},
		{Bool(false), StatusNo},
		{Null(), StatusNo},
	}
	for _, tt := range tests {
		if got := normalizeStatus(tt.in); got != tt.want {
			t.Errorf("normalizeStatus(%v %q) = %q, want %q", tt.in.Kind, tt.in.Text(), got, tt.want)
		}
	}
}

func TestCheckSchema(t *testing.T) {
	full := mustParse(t, sampleResponse)
	if err := CheckSchema(full, ScoreLocally); err != nil {
		t.Errorf("CheckSchema(local) = %v, want nil", err)
	}

	err := CheckSchema(full, ScoreFromModel)
	var violation *SchemaViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("CheckSchema(model) = %v, want *SchemaViolationError", err)
	}
	if want := []string{KeyClarityScore, KeyRiskLevel}; !reflect.DeepEqual(violation.Missing, want) {
		t.Errorf("Missing = %v, want %v", violation.Missing, want)
	}

	partial := mustParse(t, `{"executive_summary": {}, "risk_flags": null}`)
	err = CheckSchema(partial, ScoreLocally)
	if !errors.As(err, &violation) {
		t.Fatalf("CheckSchema(partial) = %v, want *SchemaViolationError", err)
	}
	want := []string{
		KeyContractCompleteness,
		KeyMeasurabilityAudit,
		KeyAmbiguityFlags,
		KeyEdgeCaseCoverage,
		KeyRiskFlags,
		KeyAcceptanceCriteria,
	}
	if !reflect.DeepEqual(violation.Missing, want) {
		t.Errorf("Missing = %v, want %v", violation.Missing, want)
	}
}
