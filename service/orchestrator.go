package service

import (
	"context"
	"strings"
	"time"

	"github.com/AnTengye/lexiguide/model"
	"github.com/AnTengye/lexiguide/pkg/logger"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
)

// Orchestrator drives summary, risk and negotiation for every clause.
// Summary and risk of a clause run side by side; negotiation waits for both.
type Orchestrator struct {
	analyzer       Analyzer
	store          *SessionStore
	maxConcurrency int
	callTimeout    time.Duration
}

func NewOrchestrator(analyzer Analyzer, store *SessionStore, maxConcurrency int, callTimeout time.Duration) *Orchestrator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Orchestrator{
		analyzer:       analyzer,
		store:          store,
		maxConcurrency: maxConcurrency,
		callTimeout:    callTimeout,
	}
}

// Analyze returns once every stage of every clause has settled.
// Each settled stage is published to the store as soon as it is known.
func (o *Orchestrator) Analyze(ctx context.Context, generation uint64, clauses []model.Clause, contractText string) {
	logger.Info(ctx, "clause analysis started", "clauses", len(clauses), "max_concurrency", o.maxConcurrency)

	p := pool.New().WithMaxGoroutines(o.maxConcurrency)
	for _, clause := range clauses {
		clause := clause
		p.Go(func() {
			o.analyzeClause(logger.WithClause(ctx, clause.ID), generation, clause, contractText)
		})
	}
	p.Wait()

	logger.Info(ctx, "clause analysis finished", "clauses", len(clauses))
}

func (o *Orchestrator) analyzeClause(ctx context.Context, generation uint64, clause model.Clause, contractText string) {
	var summary, risk StageUpdate

	var wg conc.WaitGroup
	wg.Go(func() {
		summary = o.summarize(ctx, clause)
		o.store.ApplyStage(generation, clause.ID, summary)
	})
	wg.Go(func() {
		risk = o.assessRisk(ctx, clause)
		o.store.ApplyStage(generation, clause.ID, risk)
	})
	wg.Wait()

	negotiation := o.negotiate(ctx, contractText, summary, risk)
	o.store.ApplyStage(generation, clause.ID, negotiation)
}

func (o *Orchestrator) summarize(ctx context.Context, clause model.Clause) StageUpdate {
	var summary string
	err := callAI(ctx, "summarize clause", o.callTimeout, func(ctx context.Context) error {
		var err error
		summary, err = o.analyzer.SummarizeClause(ctx, clause.Text)
		return err
	})
	if err != nil {
		return StageUpdate{Stage: model.StageSummary, State: model.StageFailed, Error: errorText(err)}
	}
	return StageUpdate{Stage: model.StageSummary, State: model.StageDone, Summary: summary}
}

func (o *Orchestrator) assessRisk(ctx context.Context, clause model.Clause) StageUpdate {
	var risk model.RiskAssessment
	err := callAI(ctx, "assess risk", o.callTimeout, func(ctx context.Context) error {
		var err error
		risk, err = o.analyzer.AssessRisk(ctx, clause.Text)
		return err
	})
	if err != nil {
		return StageUpdate{Stage: model.StageRisk, State: model.StageFailed, Error: errorText(err)}
	}
	return StageUpdate{Stage: model.StageRisk, State: model.StageDone, Risk: &risk}
}

func (o *Orchestrator) negotiate(ctx context.Context, contractText string, summary, risk StageUpdate) StageUpdate {
	if missing := missingPrerequisites(summary, risk); len(missing) > 0 {
		return StageUpdate{
			Stage: model.StageNegotiation,
			State: model.StageSkipped,
			Error: "Negotiation suggestions depend on the summary and the risk assessment; unavailable: " +
				strings.Join(missing, ", ") + ".",
		}
	}

	var suggestion model.NegotiationSuggestion
	err := callAI(ctx, "suggest negotiation", o.callTimeout, func(ctx context.Context) error {
		var err error
		suggestion, err = o.analyzer.SuggestNegotiation(ctx, contractText, summary.Summary, risk.Risk.Describe())
		return err
	})
	if err != nil {
		return StageUpdate{Stage: model.StageNegotiation, State: model.StageFailed, Error: errorText(err)}
	}
	return StageUpdate{Stage: model.StageNegotiation, State: model.StageDone, Negotiation: &suggestion}
}

func missingPrerequisites(summary, risk StageUpdate) []string {
	var missing []string
	if summary.State != model.StageDone {
		missing = append(missing, "summary")
	}
	if risk.State != model.StageDone || risk.Risk == nil {
		missing = append(missing, "risk assessment")
	}
	return missing
}
