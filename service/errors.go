package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoClauses is returned when segmentation finds no paragraphs
	ErrNoClauses = errors.New("no clauses found; ensure the contract text has paragraph breaks")
	// ErrNoContract is returned when the advisor is asked before a contract is processed
	ErrNoContract = errors.New("no contract has been processed")
	// ErrEmptyQuestion is returned for a blank advisor question
	ErrEmptyQuestion = errors.New("question must not be empty")
	// ErrContractTooLarge is returned when the contract text exceeds the configured limit
	ErrContractTooLarge = errors.New("contract text is too large")
	// ErrObjectStorageDisabled is returned when import is requested without object storage
	ErrObjectStorageDisabled = errors.New("object storage is not configured")
)

// AICallError wraps any failure contacting the AI capability or reading its output
type AICallError struct {
	Op  string
	Err error
}

func (e *AICallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AICallError) Unwrap() error {
	return e.Err
}

func aiError(op string, err error) error {
	var callErr *AICallError
	if errors.As(err, &callErr) {
		return err
	}
	return &AICallError{Op: op, Err: err}
}
