package model

import "strings"

// StageState is the progress of one analysis stage of a clause
type StageState string

const (
	StagePending StageState = "pending"
	StageDone    StageState = "done"
	StageFailed  StageState = "failed"
	StageSkipped StageState = "skipped" // negotiation only
)

// Settled reports whether the stage has reached a terminal state
func (s StageState) Settled() bool {
	return s == StageDone || s == StageFailed || s == StageSkipped
}

// Stage names one of the per-clause analysis stages
type Stage string

const (
	StageSummary     Stage = "summary"
	StageRisk        Stage = "risk"
	StageNegotiation Stage = "negotiation"
)

// RiskLevel is the coarse risk rating of a clause
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRiskLevel accepts low, medium or high in any case
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow, true
	case RiskMedium:
		return RiskMedium, true
	case RiskHigh:
		return RiskHigh, true
	}
	return "", false
}

// RiskAssessment is the AI rating of one clause
type RiskAssessment struct {
	Level            RiskLevel `json:"level"`
	Summary          string    `json:"summary"`
	SuggestedActions string    `json:"suggested_actions"`
}

// Describe formats the assessment the way the negotiation prompt expects it
func (r RiskAssessment) Describe() string {
	return string(r.Level) + ": " + r.Summary
}

// NegotiationSuggestion is the AI proposal for rewording a clause
type NegotiationSuggestion struct {
	SuggestedEdits string `json:"suggested_edits"`
	Explanation    string `json:"explanation"`
}

// AnalysisRecord tracks the three stages of a single clause
type AnalysisRecord struct {
	Summary      string     `json:"summary,omitempty"`
	SummaryError string     `json:"summary_error,omitempty"`
	SummaryState StageState `json:"summary_state"`

	Risk      *RiskAssessment `json:"risk,omitempty"`
	RiskError string          `json:"risk_error,omitempty"`
	RiskState StageState      `json:"risk_state"`

	Negotiation      *NegotiationSuggestion `json:"negotiation,omitempty"`
	NegotiationError string                 `json:"negotiation_error,omitempty"`
	NegotiationState StageState             `json:"negotiation_state"`
}

// NewAnalysisRecord returns a record with every stage pending
func NewAnalysisRecord() AnalysisRecord {
	return AnalysisRecord{
		SummaryState:     StagePending,
		RiskState:        StagePending,
		NegotiationState: StagePending,
	}
}

// State returns the state of the given stage
func (r AnalysisRecord) State(stage Stage) StageState {
	switch stage {
	case StageSummary:
		return r.SummaryState
	case StageRisk:
		return r.RiskState
	case StageNegotiation:
		return r.NegotiationState
	}
	return ""
}

// Settled reports whether all three stages are terminal
func (r AnalysisRecord) Settled() bool {
	return r.SummaryState.Settled() && r.RiskState.Settled() && r.NegotiationState.Settled()
}

// Clone returns a copy that shares no pointers with r
func (r AnalysisRecord) Clone() AnalysisRecord {
	out := r
	if r.Risk != nil {
		risk := *r.Risk
		out.Risk = &risk
	}
	if r.Negotiation != nil {
		n := *r.Negotiation
		out.Negotiation = &n
	}
	return out
}

// OverallAnalysis is the whole-contract assessment
type OverallAnalysis struct {
	RiskAssessment        string     `json:"risk_assessment,omitempty"`
	Recommendations       string     `json:"recommendations,omitempty"`
	ExploitationPotential string     `json:"exploitation_potential,omitempty"`
	RiskPoints            []string   `json:"risk_points,omitempty"`
	RecommendationPoints  []string   `json:"recommendation_points,omitempty"`
	State                 StageState `json:"state"`
	Error                 string     `json:"error,omitempty"`
}

// Clone returns a deep copy
func (o *OverallAnalysis) Clone() *OverallAnalysis {
	if o == nil {
		return nil
	}
	out := *o
	out.RiskPoints = append([]string(nil), o.RiskPoints...)
	out.RecommendationPoints = append([]string(nil), o.RecommendationPoints...)
	return &out
}

// BulletPoints extracts the lines of text that start with "* " or "- ".
// Text without any bullet is returned as a single point.
func BulletPoints(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "- ") {
			if p := strings.TrimSpace(line[2:]); p != "" {
				points = append(points, p)
			}
		}
	}
	if len(points) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			points = []string{t}
		}
	}
	return points
}
