package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrAllFailed matches every *ExhaustedError through errors.Is.
	ErrAllFailed = errors.New("all AI providers failed")
	// ErrNotConfigured is recorded for a candidate without a credential.
	ErrNotConfigured = errors.New("provider is not configured")
	ErrNoCandidates  = errors.New("no providers to try")
)

// AttemptFailure is one candidate's failed call.
type AttemptFailure struct {
	ProviderName string
	Cause        error
}

func (f AttemptFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.ProviderName, f.Cause)
}

// ExhaustedError is returned when every candidate failed. Only the last
// failure is kept.
type ExhaustedError struct {
	Last     AttemptFailure
	Attempts int
}

func (e *ExhaustedError) Error() string {
	if e.Last.Cause == nil {
		return ErrAllFailed.Error() + ": " + ErrNoCandidates.Error()
	}
	return fmt.Sprintf("All AI providers failed. Last error: %s: %v", e.Last.ProviderName, e.Last.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	if e.Last.Cause == nil {
		return ErrNoCandidates
	}
	return e.Last.Cause
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllFailed
}
