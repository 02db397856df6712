package service

import (
	"context"

	"github.com/AnTengye/lexiguide/model"
)

// Analyzer is the AI capability the pipeline depends on.
// Every failure is reported as an *AICallError.
type Analyzer interface {
	SummarizeClause(ctx context.Context, clauseText string) (string, error)
	AssessRisk(ctx context.Context, clauseText string) (model.RiskAssessment, error)
	SuggestNegotiation(ctx context.Context, contractText, clauseSummary, riskAssessment string) (model.NegotiationSuggestion, error)
	AnalyzeOverallContract(ctx context.Context, contractText string) (OverallResult, error)
	AskAdvisor(ctx context.Context, contractText, question string) (string, error)
}

// OverallResult is the whole-contract answer of the AI capability
type OverallResult struct {
	RiskAssessment        string
	Recommendations       string
	ExploitationPotential string
}
