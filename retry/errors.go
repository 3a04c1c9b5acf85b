package retry

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned when a policy cannot be executed.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// ExhaustedError is returned when every allowed attempt failed with a
// retryable error.
type ExhaustedError struct {
	Policy   string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Policy, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
