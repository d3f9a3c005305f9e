// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"errors"
	"fmt"
)

// Business outcomes. These are terminal and must never be retried.
var (
	ErrUnknownKind   = errors.New("unknown ballot kind")
	ErrUnknownDomain = errors.New("unknown ballot domain")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrAlreadyVoted  = errors.New("already voted")
	ErrPollExpired   = errors.New("poll expired")
	ErrInvalidDomain = errors.New("invalid ballot domain")
	ErrDomainExists  = errors.New("ballot domain already exists")
)

// Outcome labels used in responses, logs and metrics
const (
	OutcomeAccepted       = "accepted"
	OutcomeAlreadyVoted   = "already_voted"
	OutcomePollExpired    = "poll_expired"
	OutcomeUnknownDomain  = "unknown_domain"
	OutcomeInvalidChoice  = "invalid_choice"
	OutcomeStorageFailure = "storage_failure"
)

// StorageError is an infrastructure fault: storage unavailable, a failed
// transaction, or exhausted retries. It is the only retryable error kind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError unless it already is one
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageFailure reports whether err is an infrastructure fault
func IsStorageFailure(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// OutcomeOf maps the result of a cast to its outcome label
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, ErrAlreadyVoted):
		return OutcomeAlreadyVoted
	case errors.Is(err, ErrPollExpired):
		return OutcomePollExpired
	case errors.Is(err, ErrUnknownDomain), errors.Is(err, ErrUnknownKind):
		return OutcomeUnknownDomain
	case errors.Is(err, ErrInvalidChoice):
		return OutcomeInvalidChoice
	default:
		return OutcomeStorageFailure
	}
}
