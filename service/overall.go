package service

import (
	"context"
	"time"

	"github.com/AnTengye/lexiguide/model"
	"github.com/AnTengye/lexiguide/pkg/logger"
)

// OverallAnalyzer produces the whole-contract assessment in a single AI call
type OverallAnalyzer struct {
	analyzer    Analyzer
	store       *SessionStore
	callTimeout time.Duration
}

func NewOverallAnalyzer(analyzer Analyzer, store *SessionStore, callTimeout time.Duration) *OverallAnalyzer {
	return &OverallAnalyzer{
		analyzer:    analyzer,
		store:       store,
		callTimeout: callTimeout,
	}
}

// Analyze settles the overall record of the given generation and returns it
func (a *OverallAnalyzer) Analyze(ctx context.Context, generation uint64, contractText string) model.OverallAnalysis {
	var result OverallResult
	err := callAI(ctx, "analyze overall contract", a.callTimeout, func(ctx context.Context) error {
		var err error
		result, err = a.analyzer.AnalyzeOverallContract(ctx, contractText)
		return err
	})

	var overall model.OverallAnalysis
	if err != nil {
		overall = model.OverallAnalysis{State: model.StageFailed, Error: errorText(err)}
	} else {
		overall = model.OverallAnalysis{
			RiskAssessment:        result.RiskAssessment,
			Recommendations:       result.Recommendations,
			ExploitationPotential: result.ExploitationPotential,
			RiskPoints:            model.BulletPoints(result.RiskAssessment),
			RecommendationPoints:  model.BulletPoints(result.Recommendations),
			State:                 model.StageDone,
		}
	}

	if a.store.ApplyOverall(generation, overall) {
		logger.Info(ctx, "overall analysis settled", "state", overall.State)
	}
	return overall
}
