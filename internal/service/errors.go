package service

import (
	"errors"
	"fmt"
)

// Validation failures: malformed input, no state change.
var (
	ErrInvalidAmount     = errors.New("item amount must be at least 1")
	ErrInvalidPrice      = errors.New("price must be at least 1")
	ErrItemBlocked       = errors.New("item is blacklisted")
	ErrInvalidContribute = errors.New("contribution amount must be positive")
)

// Guard violations: the order is not in the state the operation requires.
var (
	ErrNotPending        = errors.New("order is not pending")
	ErrNotClaimed        = errors.New("order is not claimed")
	ErrAlreadyAssigned   = errors.New("order already has an assignee")
	ErrSelfAccept        = errors.New("cannot accept your own order")
	ErrOrderExpired      = errors.New("order has expired")
	ErrAlreadyCancelled  = errors.New("order is already cancelled")
	ErrAlreadyIncomplete = errors.New("order is already marked incomplete")
	ErrOverflow          = errors.New("contribution exceeds required amount")
	ErrNotOwner          = errors.New("only the order owner may do this")
	ErrNotAssignee       = errors.New("only the order assignee may do this")
	ErrNothingToCollect  = errors.New("nothing left to collect")
)

// CapError reports a resource-exhaustion failure along with the limit that
// was hit.
type CapError struct {
	Kind  string
	Limit int
}

func (e *CapError) Error() string {
	return fmt.Sprintf("%s limit reached (max %d)", e.Kind, e.Limit)
}

// DurationError reports a requested expiry window outside the configured
// bounds.
type DurationError struct {
	Hours, Min, Max int
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("duration %dh outside allowed range %dh..%dh", e.Hours, e.Min, e.Max)
}
