package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AnTengye/lexiguide/model"
	"github.com/AnTengye/lexiguide/pkg/logger"
	"github.com/sourcegraph/conc"
)

// ContractSource loads contract text from somewhere other than the request body
type ContractSource interface {
	ReadText(ctx context.Context, name string) (string, error)
}

// Options tunes the pipeline
type Options struct {
	MaxConcurrency   int
	CallTimeout      time.Duration
	MaxContractBytes int
	Source           ContractSource // optional
}

// LexiGuide owns the live contract session and the three user actions:
// process a contract, reset, and ask the advisor.
type LexiGuide struct {
	store        *SessionStore
	orchestrator *Orchestrator
	overall      *OverallAnalyzer
	advisor      *Advisor
	source       ContractSource
	maxBytes     int

	mu     sync.Mutex
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

func NewLexiGuide(analyzer Analyzer, store *SessionStore, opts Options) *LexiGuide {
	return &LexiGuide{
		store:        store,
		orchestrator: NewOrchestrator(analyzer, store, opts.MaxConcurrency, opts.CallTimeout),
		overall:      NewOverallAnalyzer(analyzer, store, opts.CallTimeout),
		advisor:      NewAdvisor(analyzer, store, opts.CallTimeout),
		source:       opts.Source,
		maxBytes:     opts.MaxContractBytes,
	}
}

// ProcessContract replaces the live session with text and starts analysing it
// in the background. It returns the initial snapshot with every stage pending.
// When no clauses are found the session is cleared and ErrNoClauses returned.
func (l *LexiGuide) ProcessContract(ctx context.Context, text string) (model.Session, error) {
	if l.maxBytes > 0 && len(text) > l.maxBytes {
		return l.store.Snapshot(), fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrContractTooLarge, len(text), l.maxBytes)
	}

	clauses := Segment(text)
	if len(clauses) == 0 {
		l.Reset()
		logger.Warn(ctx, "contract rejected", "error", ErrNoClauses)
		return l.store.Snapshot(), ErrNoClauses
	}

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	generation := l.store.Begin(text, clauses)
	// The run outlives the request that started it
	runCtx, cancel := context.WithCancel(logger.WithGeneration(context.WithoutCancel(ctx), generation))
	l.cancel = cancel
	l.runs.Add(1)
	l.mu.Unlock()

	logger.Info(runCtx, "processing contract", "clauses", len(clauses), "bytes", len(text))
	go l.run(runCtx, cancel, generation, clauses, text)

	return l.store.Snapshot(), nil
}

func (l *LexiGuide) run(ctx context.Context, cancel context.CancelFunc, generation uint64, clauses []model.Clause, text string) {
	defer l.runs.Done()
	defer cancel()

	var wg conc.WaitGroup
	wg.Go(func() {
		l.orchestrator.Analyze(ctx, generation, clauses, text)
	})
	wg.Go(func() {
		l.overall.Analyze(ctx, generation, text)
	})
	wg.Wait()

	l.store.MarkCompleted(generation)
}

// ImportContract reads the named object from the configured source and processes it
func (l *LexiGuide) ImportContract(ctx context.Context, name string) (model.Session, error) {
	if l.source == nil {
		return l.store.Snapshot(), ErrObjectStorageDisabled
	}

	text, err := l.source.ReadText(ctx, name)
	if err != nil {
		return l.store.Snapshot(), fmt.Errorf("failed to import %s: %w", name, err)
	}
	return l.ProcessContract(ctx, text)
}

// Reset clears the session; results still in flight are discarded
func (l *LexiGuide) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.store.Reset()
}

// AskAdvisor asks a question about the live contract
func (l *LexiGuide) AskAdvisor(ctx context.Context, question string) ([]model.AdvisorMessage, error) {
	generation, text := l.store.Contract()
	return l.advisor.Ask(logger.WithGeneration(ctx, generation), generation, text, question)
}

// Snapshot returns a copy of the live session
func (l *LexiGuide) Snapshot() model.Session {
	return l.store.Snapshot()
}

// Clause returns one clause with its analysis
func (l *LexiGuide) Clause(id string) (model.Clause, model.AnalysisRecord, bool) {
	return l.store.Clause(id)
}

// Messages returns the advisor transcript
func (l *LexiGuide) Messages() []model.AdvisorMessage {
	return l.store.Messages()
}

// Report returns the dashboard view of the live session
func (l *LexiGuide) Report() Report {
	return BuildReport(l.store.Snapshot())
}

// Changed returns a channel closed on the next session change
func (l *LexiGuide) Changed() <-chan struct{} {
	return l.store.Changed()
}

// Wait blocks until every background run has finished
func (l *LexiGuide) Wait() {
	l.runs.Wait()
}

// Close cancels the running analysis and waits for it to stop
func (l *LexiGuide) Close() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()
	l.Wait()
}
