package service

import (
	"github.com/AnTengye/lexiguide/model"
)

// ClauseRisk is one entry of the risk highlights
type ClauseRisk struct {
	ClauseID string                `json:"clause_id"`
	Label    string                `json:"label"`
	Risk     *model.RiskAssessment `json:"risk,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// ClauseNegotiation is one entry of the negotiation points
type ClauseNegotiation struct {
	ClauseID    string                       `json:"clause_id"`
	Label       string                       `json:"label"`
	State       model.StageState             `json:"state"`
	Negotiation *model.NegotiationSuggestion `json:"negotiation,omitempty"`
	Error       string                       `json:"error,omitempty"`
}

// Progress counts settled stages for the live session
type Progress struct {
	Clauses        int  `json:"clauses"`
	SettledClauses int  `json:"settled_clauses"`
	Summaries      int  `json:"summaries"`
	Risks          int  `json:"risks"`
	Negotiations   int  `json:"negotiations"`
	Failed         int  `json:"failed"`
	Skipped        int  `json:"skipped"`
	OverallSettled bool `json:"overall_settled"`
	Done           bool `json:"done"`
}

// Report is the dashboard view of a session
type Report struct {
	Generation        uint64                 `json:"generation"`
	Status            string                 `json:"status"`
	RiskHighlights    []ClauseRisk           `json:"risk_highlights"`
	NegotiationPoints []ClauseNegotiation    `json:"negotiation_points"`
	Overall           *model.OverallAnalysis `json:"overall,omitempty"`
	Progress          Progress               `json:"progress"`
}

// BuildReport derives highlights and progress from a snapshot.
// Low-risk clauses are left out of the highlights as soon as any clause is
// rated medium or high.
func BuildReport(s model.Session) Report {
	report := Report{
		Generation:        s.Generation,
		Status:            s.Status,
		RiskHighlights:    []ClauseRisk{},
		NegotiationPoints: []ClauseNegotiation{},
		Overall:           s.Overall.Clone(),
		Progress:          progress(s),
	}

	elevated := false
	for _, record := range s.Analyses {
		if record.Risk != nil && record.Risk.Level != model.RiskLow {
			elevated = true
			break
		}
	}

	for _, clause := range s.Clauses {
		record, ok := s.Analyses[clause.ID]
		if !ok {
			continue
		}

		switch {
		case record.RiskState == model.StageFailed:
			report.RiskHighlights = append(report.RiskHighlights, ClauseRisk{
				ClauseID: clause.ID,
				Label:    clause.Label(),
				Error:    record.RiskError,
			})
		case record.Risk != nil && !(elevated && record.Risk.Level == model.RiskLow):
			risk := *record.Risk
			report.RiskHighlights = append(report.RiskHighlights, ClauseRisk{
				ClauseID: clause.ID,
				Label:    clause.Label(),
				Risk:     &risk,
			})
		}

		if record.NegotiationState.Settled() {
			point := ClauseNegotiation{
				ClauseID: clause.ID,
				Label:    clause.Label(),
				State:    record.NegotiationState,
				Error:    record.NegotiationError,
			}
			if record.Negotiation != nil {
				n := *record.Negotiation
				point.Negotiation = &n
			}
			report.NegotiationPoints = append(report.NegotiationPoints, point)
		}
	}

	return report
}

func progress(s model.Session) Progress {
	p := Progress{
		Clauses:        len(s.Clauses),
		OverallSettled: s.Overall != nil && s.Overall.State.Settled(),
		Done:           s.Status == model.StatusCompleted,
	}
	for _, record := range s.Analyses {
		if record.Settled() {
			p.SettledClauses++
		}
		for _, stage := range []model.Stage{model.StageSummary, model.StageRisk, model.StageNegotiation} {
			state := record.State(stage)
			if !state.Settled() {
				continue
			}
			switch stage {
			case model.StageSummary:
				p.Summaries++
			case model.StageRisk:
				p.Risks++
			case model.StageNegotiation:
				p.Negotiations++
			}
			switch state {
			case model.StageFailed:
				p.Failed++
			case model.StageSkipped:
				p.Skipped++
			}
		}
	}
	return p
}
