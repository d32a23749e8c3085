package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for the render pipeline.
var (
	// ErrMalformedLine indicates a line that is neither a time marker nor a particle record.
	ErrMalformedLine = errors.New("dynamo: malformed line")

	// ErrFieldCount indicates a particle record without exactly five fields.
	ErrFieldCount = errors.New("dynamo: particle record needs 5 fields")

	// ErrNonFinite indicates a NaN or Inf value in the log.
	ErrNonFinite = errors.New("dynamo: non-finite value")

	// ErrOrphanParticle indicates a particle record before any time marker.
	ErrOrphanParticle = errors.New("dynamo: particle before first time marker")

	// ErrTimeOrder indicates a time marker that does not strictly increase.
	ErrTimeOrder = errors.New("dynamo: time markers must strictly increase")

	// ErrEmptyLog indicates a log without a single particle group.
	ErrEmptyLog = errors.New("dynamo: log holds no timesteps")

	// ErrInvalidConfig indicates a rejected render configuration.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrEncoder indicates the encoder process failed.
	ErrEncoder = errors.New("dynamo: encoder failed")
)

// ParseError wraps an error with the position of the offending line.
type ParseError struct {
	Line    int
	Text    string
	Wrapped error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Wrapped)
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// ValidationError names the configuration field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SubprocessError wraps a failure of the encoder process.
// ExitCode is -1 when the process did not report one.
type SubprocessError struct {
	Op       string
	ExitCode int
	Wrapped  error
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("encoder %s: %v", e.Op, e.Wrapped)
}

func (e *SubprocessError) Unwrap() []error {
	return []error{ErrEncoder, e.Wrapped}
}
