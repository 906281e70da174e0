package recorder

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRoute      = errors.New("unknown route")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// InvalidTransitionError is returned when an operation is not allowed in the
// current state. The recorder is left untouched.
type InvalidTransitionError struct {
	Op    string
	State State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func invalidTransition(op string, s State) error {
	return &InvalidTransitionError{Op: op, State: s}
}
