package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/AnTengye/lexiguide/model"
)

// StageUpdate is the settled outcome of one stage of one clause
type StageUpdate struct {
	Stage       model.Stage
	State       model.StageState
	Summary     string
	Risk        *model.RiskAssessment
	Negotiation *model.NegotiationSuggestion
	Error       string
}

// SessionStore holds the single live contract session.
// Every write carries the generation it was started under; writes from an
// older generation are dropped so a reset cannot be undone by late results.
type SessionStore struct {
	mu sync.RWMutex

	generation uint64
	status     string
	rawText    string
	clauses    []model.Clause
	analyses   map[string]*model.AnalysisRecord
	overall    *model.OverallAnalysis
	messages   []model.AdvisorMessage
	startedAt  time.Time
	updatedAt  time.Time

	// changed is closed and replaced on every effective write
	changed chan struct{}
}

// NewSessionStore returns an idle store
func NewSessionStore() *SessionStore {
	s := &SessionStore{changed: make(chan struct{})}
	s.clear()
	return s
}

// Begin replaces the session with a freshly segmented contract and returns its generation
func (s *SessionStore) Begin(rawText string, clauses []model.Clause) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.clear()
	s.status = model.StatusProcessing
	s.rawText = rawText
	s.clauses = append([]model.Clause(nil), clauses...)
	for _, c := range clauses {
		record := model.NewAnalysisRecord()
		s.analyses[c.ID] = &record
	}
	s.overall = &model.OverallAnalysis{State: model.StagePending}
	s.startedAt = s.updatedAt

	slog.Info("contract session started", "generation", s.generation, "clauses", len(clauses))
	s.notify()
	return s.generation
}

// Reset clears the session and returns the new generation
func (s *SessionStore) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.clear()

	slog.Info("contract session reset", "generation", s.generation)
	s.notify()
	return s.generation
}

// must be called with lock held
func (s *SessionStore) clear() {
	s.status = model.StatusIdle
	s.rawText = ""
	s.clauses = nil
	s.analyses = make(map[string]*model.AnalysisRecord)
	s.overall = nil
	s.messages = nil
	s.startedAt = time.Time{}
	s.updatedAt = time.Now()
}

// must be called with lock held
func (s *SessionStore) notify() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// must be called with lock held
func (s *SessionStore) current(generation uint64, what string) bool {
	if generation != s.generation {
		slog.Debug("discarding stale update",
			"update", what,
			"generation", generation,
			"current_generation", s.generation,
		)
		return false
	}
	return true
}

// Generation returns the generation of the live session
func (s *SessionStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Contract returns the live generation and its contract text (empty when idle)
func (s *SessionStore) Contract() (uint64, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation, s.rawText
}

// Changed returns a channel that is closed on the next effective change
func (s *SessionStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// ApplyStage merges a settled stage into the clause's record.
// It reports whether the record changed: stale generations, unknown clauses,
// unsettled states and stages that already settled are ignored.
func (s *SessionStore) ApplyStage(generation uint64, clauseID string, u StageUpdate) bool {
	if !u.State.Settled() {
		return false
	}
	if u.State == model.StageSkipped && u.Stage != model.StageNegotiation {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(generation, string(u.Stage)) {
		return false
	}
	record, ok := s.analyses[clauseID]
	if !ok {
		return false
	}
	if record.State(u.Stage).Settled() {
		return false
	}

	switch u.Stage {
	case model.StageSummary:
		record.SummaryState = u.State
		if u.State == model.StageDone {
			record.Summary = u.Summary
		} else {
			record.SummaryError = u.Error
		}
	case model.StageRisk:
		if u.State == model.StageDone && u.Risk == nil {
			return false
		}
		record.RiskState = u.State
		if u.State == model.StageDone {
			risk := *u.Risk
			record.Risk = &risk
		} else {
			record.RiskError = u.Error
		}
	case model.StageNegotiation:
		if u.State == model.StageDone && u.Negotiation == nil {
			return false
		}
		record.NegotiationState = u.State
		if u.State == model.StageDone {
			n := *u.Negotiation
			record.Negotiation = &n
		} else {
			record.NegotiationError = u.Error
		}
	default:
		return false
	}

	s.updatedAt = time.Now()
	s.notify()
	return true
}

// ApplyOverall records the settled whole-contract analysis
func (s *SessionStore) ApplyOverall(generation uint64, overall model.OverallAnalysis) bool {
	if !overall.State.Settled() || overall.State == model.StageSkipped {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(generation, "overall") {
		return false
	}
	if s.overall == nil || s.overall.State.Settled() {
		return false
	}

	s.overall = overall.Clone()
	s.updatedAt = time.Now()
	s.notify()
	return true
}

// AppendMessage adds an entry to the advisor transcript
func (s *SessionStore) AppendMessage(generation uint64, msg model.AdvisorMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(generation, "message") {
		return false
	}

	s.messages = append(s.messages, msg)
	s.updatedAt = time.Now()
	s.notify()
	return true
}

// MarkCompleted flags the session as fully analysed
func (s *SessionStore) MarkCompleted(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(generation, "completed") || s.status != model.StatusProcessing {
		return false
	}

	s.status = model.StatusCompleted
	s.updatedAt = time.Now()
	slog.Info("contract session completed",
		"generation", generation,
		"elapsed_ms", s.updatedAt.Sub(s.startedAt).Milliseconds(),
	)
	s.notify()
	return true
}

// Snapshot returns a deep copy of the live session
func (s *SessionStore) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	analyses := make(map[string]model.AnalysisRecord, len(s.analyses))
	for id, record := range s.analyses {
		analyses[id] = record.Clone()
	}

	return model.Session{
		Generation: s.generation,
		Status:     s.status,
		RawText:    s.rawText,
		Clauses:    append([]model.Clause{}, s.clauses...),
		Analyses:   analyses,
		Overall:    s.overall.Clone(),
		Messages:   append([]model.AdvisorMessage{}, s.messages...),
		StartedAt:  s.startedAt,
		UpdatedAt:  s.updatedAt,
	}
}

// Clause returns a clause and a copy of its analysis record
func (s *SessionStore) Clause(id string) (model.Clause, model.AnalysisRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.analyses[id]
	if !ok {
		return model.Clause{}, model.AnalysisRecord{}, false
	}
	for _, c := range s.clauses {
		if c.ID == id {
			return c, record.Clone(), true
		}
	}
	return model.Clause{}, model.AnalysisRecord{}, false
}

// Messages returns a copy of the advisor transcript
func (s *SessionStore) Messages() []model.AdvisorMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AdvisorMessage{}, s.messages...)
}

// Count returns the number of clauses in the live session
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clauses)
}
