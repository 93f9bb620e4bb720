package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Engine errors
	ErrConfiguration        = errors.New("invalid engine configuration")
	ErrDistributionCollapse = errors.New("distribution collapse")
	ErrNumericDegeneracy    = errors.New("numeric degeneracy")

	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// Session errors
	ErrSessionFinished   = errors.New("session already finished")
	ErrNoPendingQuestion = errors.New("no question is awaiting an answer")
	ErrUnknownGame       = errors.New("unknown game")

	// ErrPriorMismatch means stored answers were given against a different prior
	ErrPriorMismatch = fmt.Errorf("%w: prior fingerprint mismatch", ErrConfiguration)
)

// CollapseMessage is what a driver shows instead of failing when conditioning
// leaves no hypothesis standing.
const CollapseMessage = "no hypothesis remains consistent with your answers"

// Error constructors with context
func NewConfigurationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, reason)
}

func NewCollapseError(subject string, verdict bool) error {
	return fmt.Errorf("%w: no hypothesis predicts %t for %s", ErrDistributionCollapse, verdict, subject)
}

func NewDegeneracyError(what string, value float64) error {
	return fmt.Errorf("%w: %s is %v", ErrNumericDegeneracy, what, value)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsCollapse(err error) bool {
	return errors.Is(err, ErrDistributionCollapse)
}

func IsDegeneracy(err error) bool {
	return errors.Is(err, ErrNumericDegeneracy)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
