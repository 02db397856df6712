package model

import (
	"strconv"
	"time"
)

// Clause is one paragraph of the processed contract
type Clause struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	OriginalIndex int    `json:"original_index"`
}

// Label returns the one-based name shown to users, e.g. "Clause 3"
func (c Clause) Label() string {
	return "Clause " + strconv.Itoa(c.OriginalIndex+1)
}

// Session is a read-only snapshot of the live contract session
type Session struct {
	Generation uint64                    `json:"generation"`
	Status     string                    `json:"status"` // idle, processing, completed
	RawText    string                    `json:"raw_text,omitempty"`
	Clauses    []Clause                  `json:"clauses"`
	Analyses   map[string]AnalysisRecord `json:"analyses"`
	Overall    *OverallAnalysis          `json:"overall,omitempty"`
	Messages   []AdvisorMessage          `json:"messages"`
	StartedAt  time.Time                 `json:"started_at,omitempty"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

// HasContract reports whether a contract has been processed in this session
func (s Session) HasContract() bool {
	return s.RawText != ""
}

// Session status constants
const (
	StatusIdle       = "idle"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)
