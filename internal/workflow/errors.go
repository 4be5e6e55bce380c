package workflow

import (
	"errors"
	"fmt"

	"github.com/signoff-io/signoff/pkg/api"
)

var (
	// ErrNotFound is returned when a resume call names an unknown workflow
	ErrNotFound = errors.New("workflow not found")

	// ErrUnauthorized is returned when the presented token does not match
	// the stored approval token
	ErrUnauthorized = errors.New("invalid or expired approval link")

	// ErrAlreadyProcessed is the sentinel matched by errors.Is for
	// AlreadyProcessedError
	ErrAlreadyProcessed = errors.New("approval already processed")
)

// AlreadyProcessedError reports a resume call against a checkpoint that has
// left the suspended state; it carries the current status for display.
// Replaying a callback after success yields this stable result rather than
// a second side effect
type AlreadyProcessedError struct {
	Status api.Status
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("%s: current status %s", ErrAlreadyProcessed, e.Status)
}

func (e *AlreadyProcessedError) Is(target error) bool {
	return target == ErrAlreadyProcessed
}
