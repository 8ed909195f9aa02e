package domain

import (
	"errors"
	"fmt"
)

// ErrClassificationExhausted matches any ClassificationExhaustedError
var ErrClassificationExhausted = errors.New("classification exhausted")

// ProviderError wraps a failed call to the classification provider
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "classification provider: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ClassificationExhaustedError is returned when every attempt failed or was invalid
type ClassificationExhaustedError struct {
	Attempts int
	LastRaw  string
	LastErr  error
}

func (e *ClassificationExhaustedError) Error() string {
	msg := fmt.Sprintf("failed to classify messages after %d attempts", e.Attempts)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	} else if e.LastRaw != "" {
		msg += fmt.Sprintf(": unexpected result %q", e.LastRaw)
	}
	return msg
}

func (e *ClassificationExhaustedError) Is(target error) bool {
	return target == ErrClassificationExhausted
}

func (e *ClassificationExhaustedError) Unwrap() error {
	return e.LastErr
}

// ActionError wraps a failed platform action
type ActionError struct {
	Action ActionKind
	ChatID int64
	UserID int64
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s failed (chat=%d user=%d): %v", e.Action, e.ChatID, e.UserID, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
