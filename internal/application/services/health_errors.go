package services

import (
	"errors"
	"fmt"

	"github.com/relialab/healthprobe/internal/core/domain/target"
)

// ErrNilTarget reports a registration without a target.
var ErrNilTarget = errors.New("nil target")

// SetupError reports a failed setup validation for a required target.
// The registration that produced it was rejected.
type SetupError struct {
	Kind   target.Kind
	Target string
	Cause  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("health: setup validation of %s target %s failed: %v", e.Kind, e.Target, e.Cause)
}

func (e *SetupError) Unwrap() error { return e.Cause }
