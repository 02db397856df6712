package service

import (
	"context"
	"strings"
	"time"

	"github.com/AnTengye/lexiguide/model"
	"github.com/AnTengye/lexiguide/pkg/logger"
	"github.com/google/uuid"
)

// Advisor answers questions about the processed contract.
// Each call sends only the contract text and the current question; earlier
// turns of the transcript are not part of the prompt.
type Advisor struct {
	analyzer    Analyzer
	store       *SessionStore
	callTimeout time.Duration
}

func NewAdvisor(analyzer Analyzer, store *SessionStore, callTimeout time.Duration) *Advisor {
	return &Advisor{
		analyzer:    analyzer,
		store:       store,
		callTimeout: callTimeout,
	}
}

// Ask appends the question and then either the answer or the failure to the
// transcript of the given generation, and returns the messages it appended.
// An AI failure is recorded in the transcript, not returned.
func (a *Advisor) Ask(ctx context.Context, generation uint64, contractText, question string) ([]model.AdvisorMessage, error) {
	if strings.TrimSpace(contractText) == "" {
		return nil, ErrNoContract
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	userMsg := newMessage(model.RoleUser, question)
	if !a.store.AppendMessage(generation, userMsg) {
		return nil, ErrNoContract
	}

	var answer string
	err := callAI(ctx, "ask advisor", a.callTimeout, func(ctx context.Context) error {
		var err error
		answer, err = a.analyzer.AskAdvisor(ctx, contractText, question)
		return err
	})

	reply := newMessage(model.RoleAssistant, answer)
	if err != nil {
		reply = newMessage(model.RoleError, errorText(err))
	}

	if !a.store.AppendMessage(generation, reply) {
		logger.Info(ctx, "advisor reply dropped after session change")
		return []model.AdvisorMessage{userMsg}, nil
	}
	return []model.AdvisorMessage{userMsg, reply}, nil
}

func newMessage(role model.MessageRole, content string) model.AdvisorMessage {
	return model.AdvisorMessage{
		ID:        string(role) + "-" + uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
