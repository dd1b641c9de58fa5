package errs

import (
	"errors"
	"fmt"
)

// ErrResourceExhausted is the root of every hand-fatal error (deck underflow).
// The hand must be aborted and the deck reshuffled before play continues.
var ErrResourceExhausted = errors.New("resource exhausted")

// ValidationError is a recoverable error caused by the acting player
// (bad amount, raise below the call value, duplicate id). State is unchanged
// and the player may re-enter a decision.
type ValidationError string

func (v ValidationError) Error() string {
	return string(v)
}

// Validation builds a ValidationError
func Validation(format string, a ...interface{}) ValidationError {
	return ValidationError(fmt.Sprintf(format, a...))
}

// StateError is returned when an action arrives out of turn, after a fold or
// after the hand ended. Expected names who (or what) the engine is waiting on.
type StateError struct {
	Reason   string
	Expected string
	Phase    string
}

func (s *StateError) Error() string {
	msg := s.Reason
	if s.Phase != "" {
		msg += fmt.Sprintf(" (phase %s", s.Phase)
		if s.Expected != "" {
			msg += fmt.Sprintf(", waiting on %s", s.Expected)
		}
		msg += ")"
	} else if s.Expected != "" {
		msg += fmt.Sprintf(" (waiting on %s)", s.Expected)
	}

	return msg
}

// IsValidation returns true if err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// IsState returns true if err is (or wraps) a *StateError
func IsState(err error) bool {
	var s *StateError
	return errors.As(err, &s)
}

// IsExhausted returns true if err is hand-fatal
func IsExhausted(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}
