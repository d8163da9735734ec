package audit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/utils"
)

// Edge-case key written by older prompt variants; read as an alias of
// clarifying_questions.
const legacyQuestionsKey = "questions_to_clarify"

// DefaultTree returns DefaultReport as a JSON tree, freshly built.
func DefaultTree() Node {
	return treeOf(DefaultReport())
}

func treeOf(r *Report) Node {
	data, err := r.canonicalJSON()
	if err != nil {
		panic(fmt.Sprintf("audit: encode report tree: %v", err))
	}
	n, err := ParseNode(data)
	if err != nil {
		panic(fmt.Sprintf("audit: decode report tree: %v", err))
	}
	return n
}

// Normalize merges a parsed model response over the default report and
// coerces every field to its schema type. The result always satisfies the
// report invariants; parsed is not modified.
//
// clarity_score becomes an integer in [0,100] (DefaultScore when it cannot
// be read as a number). risk_level and each severity are title-cased and
// forced to High when not Low, Medium or High. Checklist statuses outside
// Yes, No and Partial become No.
func Normalize(parsed Node) *Report {
	if parsed.Kind != KindObject {
		parsed = Null()
	}
	merged := Merge(DefaultTree(), parsed)

	r := DefaultReport()
	r.ClarityScore = coerceScore(get(merged, KeyClarityScore), DefaultScore)
	r.RiskLevel = normalizeRisk(get(merged, KeyRiskLevel))

	summary := get(merged, KeyExecutiveSummary)
	r.ExecutiveSummary.TopGaps = stringList(get(summary, "top_gaps"))
	r.ExecutiveSummary.TopQuickFixes = stringList(get(summary, "top_quick_fixes"))

	for _, o := range records(get(get(merged, KeyContractCompleteness), "checklist"), "item") {
		if !hasAny(o, "item", "status", "notes") {
			continue
		}
		r.ContractCompleteness.Checklist = append(r.ContractCompleteness.Checklist, ChecklistItem{
			Item:   text(get(o, "item")),
			Status: normalizeStatus(get(o, "status")),
			Notes:  text(get(o, "notes")),
		})
	}

	measurability := get(merged, KeyMeasurabilityAudit)
	r.MeasurabilityAudit.MissingMetrics = stringList(get(measurability, "missing_metrics"))
	r.MeasurabilityAudit.SuggestedMetrics = stringList(get(measurability, "suggested_metrics"))

	for _, o := range records(get(merged, KeyAmbiguityFlags), "phrase") {
		if !hasAny(o, "phrase", "issue", "suggested_rewrite") {
			continue
		}
		r.AmbiguityFlags = append(r.AmbiguityFlags, AmbiguityFlag{
			Phrase:           text(get(o, "phrase")),
			Issue:            text(get(o, "issue")),
			SuggestedRewrite: text(get(o, "suggested_rewrite")),
		})
	}

	edges := get(merged, KeyEdgeCaseCoverage)
	r.EdgeCaseCoverage.MissingEdgeCases = stringList(get(edges, "missing_edge_cases"))
	r.EdgeCaseCoverage.ClarifyingQuestions = stringList(get(edges, "clarifying_questions"))
	if len(r.EdgeCaseCoverage.ClarifyingQuestions) == 0 {
		r.EdgeCaseCoverage.ClarifyingQuestions = stringList(get(edges, legacyQuestionsKey))
	}

	for _, o := range records(get(merged, KeyRiskFlags), "risk") {
		if !hasAny(o, "risk", "severity", "mitigation") {
			continue
		}
		r.RiskFlags = append(r.RiskFlags, RiskFlag{
			Risk:       text(get(o, "risk")),
			Severity:   normalizeRisk(get(o, "severity")),
			Mitigation: text(get(o, "mitigation")),
		})
	}

	for _, o := range records(get(merged, KeyAcceptanceCriteria), "then") {
		if !hasAny(o, "given", "when", "then") {
			continue
		}
		r.AcceptanceCriteria = append(r.AcceptanceCriteria, AcceptanceCriterion{
			Given: text(get(o, "given")),
			When:  text(get(o, "when")),
			Then:  text(get(o, "then")),
		})
	}

	r.extra = merged
	return r
}

// CheckSchema reports the required top-level keys missing (absent or null)
// from a parsed response. In ScoreFromModel mode the model must also supply
// clarity_score and risk_level.
func CheckSchema(parsed Node, mode ScoringMode) error {
	required := []string{
		KeyExecutiveSummary,
		KeyContractCompleteness,
		KeyMeasurabilityAudit,
		KeyAmbiguityFlags,
		KeyEdgeCaseCoverage,
		KeyRiskFlags,
		KeyAcceptanceCriteria,
	}
	if mode == ScoreFromModel {
		required = append([]string{KeyClarityScore, KeyRiskLevel}, required...)
	}

	var missing []string
	for _, k := range required {
		if v, ok := parsed.Get(k); !ok || v.IsNull() {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &SchemaViolationError{Missing: missing}
	}
	return nil
}

func get(n Node, key string) Node {
	v, _ := n.Get(key)
	return v
}

// coerceScore reads n as a number, rounding half to even and clamping to
// [0,100]. Numeric strings, with or without a trailing '%', are accepted.
func coerceScore(n Node, fallback int) int {
	var raw string
	switch n.Kind {
	case KindNumber:
		raw = n.Text()
	case KindString:
		raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n.Text()), "%"))
	default:
		return ClampScore(fallback)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return ClampScore(fallback)
	}
	f = math.Max(0, math.Min(100, f))
	return int(math.RoundToEven(f))
}

// ClampScore limits a score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func normalizeRisk(n Node) RiskLevel {
	switch lvl := RiskLevel(utils.TitleCase(text(n))); lvl {
	case RiskLow, RiskMedium, RiskHigh:
		return lvl
	}
	return RiskHigh
}

func normalizeStatus(n Node) ChecklistStatus {
	if n.Kind == KindBool {
		if n.BoolValue() {
			return StatusYes
		}
		return StatusNo
	}
	switch st := ChecklistStatus(utils.TitleCase(text(n))); st {
	case StatusYes, StatusNo, StatusPartial:
		return st
	}
	return StatusNo
}

// text renders any node as a trimmed string. Objects are flattened with
// flattenRecord and arrays joined with "; ".
func text(n Node) string {
	switch n.Kind {
	case KindString, KindNumber:
		return strings.TrimSpace(n.Text())
	case KindBool:
		return strconv.FormatBool(n.BoolValue())
	case KindObject:
		return flattenRecord(n)
	case KindArray:
		var parts []string
		for _, it := range n.Items() {
			if s := text(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

// flattenRecord turns an object such as {"metric": "p95 latency",
// "target": "< 250ms", "notes": "per endpoint"} into
// "p95 latency: < 250ms (per endpoint)".
func flattenRecord(n Node) string {
	var vals []string
	for _, k := range n.Keys() {
		if s := text(get(n, k)); s != "" {
			vals = append(vals, s)
		}
	}
	switch len(vals) {
	case 0:
		return ""
	case 1:
		return vals[0]
	case 2:
		return vals[0] + ": " + vals[1]
	default:
		return vals[0] + ": " + vals[1] + " (" + strings.Join(vals[2:], "; ") + ")"
	}
}

// stringList reads a sequence of strings. A lone scalar becomes a
// one-element list; blank entries are dropped.
func stringList(n Node) []string {
	out := []string{}
	switch n.Kind {
	case KindArray:
		for _, it := range n.Items() {
			if s := text(it); s != "" {
				out = append(out, s)
			}
		}
	case KindString, KindNumber, KindObject:
		if s := text(n); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// records returns the elements of an array node as objects. A scalar or
// nested array element becomes {primary: its text}; null and blank elements
// are dropped. Every surviving element counts toward the score.
func records(n Node, primary string) []Node {
	if n.Kind != KindArray {
		return nil
	}
	var out []Node
	for _, it := range n.Items() {
		switch it.Kind {
		case KindObject:
			out = append(out, it)
		case KindNull:
		default:
			if s := text(it); s != "" {
				out = append(out, Object(F(primary, String(s))))
			}
		}
	}
	return out
}

// hasAny reports whether o has a non-blank value under any of keys. A
// record with none of them is an empty placeholder.
func hasAny(o Node, keys ...string) bool {
	for _, k := range keys {
		if text(get(o, k)) != "" {
			return true
		}
	}
	return false
}
