package audit

import (
	"fmt"
	"math"
	"strings"
)

// ScoringMode selects who is authoritative for clarity_score.
type ScoringMode string

const (
	// ScoreLocally ignores any score the model proposes and computes it from
	// the normalized report fields.
	ScoreLocally ScoringMode = "local"
	// ScoreFromModel keeps the model's own (normalized) score.
	ScoreFromModel ScoringMode = "model"
)

// ParseScoringMode maps a config value to a ScoringMode. Empty means local.
func ParseScoringMode(s string) (ScoringMode, error) {
	switch ScoringMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScoreLocally:
		return ScoreLocally, nil
	case ScoreFromModel:
		return ScoreFromModel, nil
	}
	return "", fmt.Errorf("unknown scoring mode %q (want %q or %q)", s, ScoreLocally, ScoreFromModel)
}

// Component ceilings of the local score.
const (
	MaxContract      = 30
	MaxMeasurability = 20
	MaxEdgeCases     = 20
	MaxAmbiguity     = 15
	MaxRiskAwareness = 10
	MaxTestability   = 5
)

// Breakdown is the per-component result of Score.
type Breakdown struct {
	Contract      int `json:"contract" yaml:"contract"`
	Measurability int `json:"measurability" yaml:"measurability"`
	EdgeCases     int `json:"edge_cases" yaml:"edge_cases"`
	Ambiguity     int `json:"ambiguity" yaml:"ambiguity"`
	RiskAwareness int `json:"risk_awareness" yaml:"risk_awareness"`
	Testability   int `json:"testability" yaml:"testability"`
	Total         int `json:"total" yaml:"total"`
}

// Score computes the clarity score from the report fields alone. It reads
// nothing but r and is deterministic.
func Score(r *Report) Breakdown {
	var b Breakdown

	if checklist := r.ContractCompleteness.Checklist; len(checklist) > 0 {
		yes := 0
		for _, it := range checklist {
			if it.Status == StatusYes {
				yes++
			}
		}
		share := float64(MaxContract) * float64(yes) / float64(len(checklist))
		b.Contract = int(math.RoundToEven(share))
	}

	b.Measurability = max(MaxMeasurability-4*len(r.MeasurabilityAudit.MissingMetrics), 0)
	b.EdgeCases = max(MaxEdgeCases-2*len(r.EdgeCaseCoverage.MissingEdgeCases), 0)
	b.Ambiguity = max(MaxAmbiguity-3*len(r.AmbiguityFlags), 0)

	mitigated := 0
	for _, f := range r.RiskFlags {
		if strings.TrimSpace(f.Mitigation) != "" {
			mitigated++
		}
	}
	b.RiskAwareness = min(MaxRiskAwareness, 2*mitigated)

	switch n := len(r.AcceptanceCriteria); {
	case n >= 3:
		b.Testability = MaxTestability
	case n >= 1:
		b.Testability = 3
	}

	b.Total = ClampScore(b.Contract + b.Measurability + b.EdgeCases + b.Ambiguity + b.RiskAwareness + b.Testability)
	return b
}

// DeriveRiskLevel maps a score and the risk flags to a tier:
// Low when score >= 80 with no High flag, High when score < 60 or two or
// more High flags, Medium otherwise.
func DeriveRiskLevel(score int, flags []RiskFlag) RiskLevel {
	high := 0
	for _, f := range flags {
		if f.Severity == RiskHigh {
			high++
		}
	}
	switch {
	case score >= 80 && high == 0:
		return RiskLow
	case score < 60 || high >= 2:
		return RiskHigh
	default:
		return RiskMedium
	}
}

// finalize sets the score according to mode and derives the risk tier. The
// derivation is the same whichever path produced the score.
func finalize(r *Report, mode ScoringMode) {
	if mode != ScoreFromModel {
		r.ClarityScore = Score(r).Total
	}
	r.ClarityScore = ClampScore(r.ClarityScore)
	r.RiskLevel = DeriveRiskLevel(r.ClarityScore, r.RiskFlags)
}
