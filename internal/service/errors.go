package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by Ask. Match them with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrExternalService means the completion provider failed. No fallback answer is produced.
	ErrExternalService = errors.New("external service error")
	// ErrRetrieval means the retriever could not read its backing store.
	ErrRetrieval = errors.New("retrieval failed")
)

// ValidationError reports a rejected request field. Its message is safe to show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// wrapKind tags err with a kind sentinel while keeping the cause.
func wrapKind(kind error, msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, kind, err)
}
