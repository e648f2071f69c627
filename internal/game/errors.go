package game

import (
	"errors"
	"fmt"
)

// Rejection kinds. Every rejected action wraps exactly one of these.
var (
	ErrInvalidBet        = errors.New("invalid bet")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrIllegalAction     = errors.New("illegal action")
)

// RejectionError reports why an action was refused. State is unchanged.
type RejectionError struct {
	Kind   error
	Action Action
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Action, e.Kind, e.Reason)
}

// Unwrap returns the rejection kind so errors.Is works.
func (e *RejectionError) Unwrap() error {
	return e.Kind
}

func reject(kind error, action Action, format string, args ...any) error {
	return &RejectionError{Kind: kind, Action: action, Reason: fmt.Sprintf(format, args...)}
}
