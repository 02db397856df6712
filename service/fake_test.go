package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/AnTengye/lexiguide/model"
)

// fakeAnalyzer answers deterministically and counts calls. A clause text
// containing "FAIL-SUMMARY", "FAIL-RISK" or "PANIC" makes that stage fail.
type fakeAnalyzer struct {
	summaryCalls     atomic.Int32
	riskCalls        atomic.Int32
	negotiationCalls atomic.Int32
	overallCalls     atomic.Int32
	advisorCalls     atomic.Int32

	// gate, when set, blocks every clause call until closed
	gate chan struct{}

	overallErr error
	advisorErr error

	mu        sync.Mutex
	questions []string
}

func (f *fakeAnalyzer) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAnalyzer) SummarizeClause(ctx context.Context, clauseText string) (string, error) {
	f.summaryCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	if strings.Contains(clauseText, "FAIL-SUMMARY") {
		return "", errors.New("summary service unavailable")
	}
	if strings.Contains(clauseText, "PANIC") {
		panic("summarizer exploded")
	}
	return "summary of " + clauseText, nil
}

func (f *fakeAnalyzer) AssessRisk(ctx context.Context, clauseText string) (model.RiskAssessment, error) {
	f.riskCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return model.RiskAssessment{}, err
	}
	if strings.Contains(clauseText, "FAIL-RISK") {
		return model.RiskAssessment{}, errors.New("risk service unavailable")
	}
	level := model.RiskLow
	if strings.Contains(clauseText, "terminate") {
		level = model.RiskHigh
	}
	return model.RiskAssessment{Level: level, Summary: "risk of " + clauseText, SuggestedActions: "review"}, nil
}

func (f *fakeAnalyzer) SuggestNegotiation(ctx context.Context, contractText, clauseSummary, riskAssessment string) (model.NegotiationSuggestion, error) {
	f.negotiationCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return model.NegotiationSuggestion{}, err
	}
	return model.NegotiationSuggestion{SuggestedEdits: "edit: " + clauseSummary, Explanation: riskAssessment}, nil
}

func (f *fakeAnalyzer) AnalyzeOverallContract(ctx context.Context, contractText string) (OverallResult, error) {
	f.overallCalls.Add(1)
	if f.overallErr != nil {
		return OverallResult{}, f.overallErr
	}
	return OverallResult{
		RiskAssessment:  "* Termination at will\n* No liability cap",
		Recommendations: "- Negotiate notice period",
	}, nil
}

func (f *fakeAnalyzer) AskAdvisor(ctx context.Context, contractText, question string) (string, error) {
	f.advisorCalls.Add(1)
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()
	if f.advisorErr != nil {
		return "", f.advisorErr
	}
	return "answer to " + question, nil
}
