package service

import (
	"testing"

	"github.com/AnTengye/lexiguide/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWithRisks(levels ...model.RiskLevel) model.Session {
	s := model.Session{
		Status:   model.StatusProcessing,
		Analyses: map[string]model.AnalysisRecord{},
	}
	for i, level := range levels {
		c := model.Clause{ID: string(rune('a' + i)), Text: "clause", OriginalIndex: i}
		s.Clauses = append(s.Clauses, c)

		record := model.NewAnalysisRecord()
		record.SummaryState = model.StageDone
		if level == "" {
			record.RiskState = model.StageFailed
			record.RiskError = "risk service unavailable"
			record.NegotiationState = model.StageSkipped
			record.NegotiationError = "unavailable: risk assessment."
		} else {
			record.RiskState = model.StageDone
			record.Risk = &model.RiskAssessment{Level: level, Summary: string(level) + " risk"}
		}
		s.Analyses[c.ID] = record
	}
	return s
}

func TestBuildReportHidesLowRiskWhenElevated(t *testing.T) {
	report := BuildReport(sessionWithRisks(model.RiskLow, model.RiskHigh, model.RiskMedium))

	require.Len(t, report.RiskHighlights, 2)
	assert.Equal(t, "Clause 2", report.RiskHighlights[0].Label)
	assert.Equal(t, model.RiskHigh, report.RiskHighlights[0].Risk.Level)
	assert.Equal(t, "Clause 3", report.RiskHighlights[1].Label)
}

func TestBuildReportShowsLowRiskWhenAllLow(t *testing.T) {
	report := BuildReport(sessionWithRisks(model.RiskLow, model.RiskLow))

	require.Len(t, report.RiskHighlights, 2)
	assert.Equal(t, "Clause 1", report.RiskHighlights[0].Label)
}

func TestBuildReportIncludesErrors(t *testing.T) {
	report := BuildReport(sessionWithRisks(model.RiskHigh, ""))

	require.Len(t, report.RiskHighlights, 2)
	assert.Equal(t, "risk service unavailable", report.RiskHighlights[1].Error)
	assert.Nil(t, report.RiskHighlights[1].Risk)

	require.Len(t, report.NegotiationPoints, 1)
	assert.Equal(t, model.StageSkipped, report.NegotiationPoints[0].State)
	assert.Equal(t, "Clause 2", report.NegotiationPoints[0].Label)

	assert.Equal(t, 2, report.Progress.Clauses)
	assert.Equal(t, 1, report.Progress.SettledClauses)
	assert.Equal(t, 1, report.Progress.Failed)
	assert.Equal(t, 1, report.Progress.Skipped)
	assert.False(t, report.Progress.Done)
}

func TestBuildReportEmptySession(t *testing.T) {
	report := BuildReport(model.Session{Status: model.StatusIdle})

	assert.NotNil(t, report.RiskHighlights)
	assert.Empty(t, report.RiskHighlights)
	assert.Empty(t, report.NegotiationPoints)
	assert.Nil(t, report.Overall)
	assert.Equal(t, 0, report.Progress.Clauses)
}
