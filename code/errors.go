package code

import "errors"

// Sentinel errors for error classification.
var (
	// ErrExecution indicates a fault raised while running submitted code,
	// such as a syntax error or runtime failure in the snippet.
	ErrExecution = errors.New("code execution error")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// CodeError represents a fault raised during snippet execution. It carries
// the formatted backtrace reported to the caller.
type CodeError struct {
	// Message describes the fault.
	Message string

	// Backtrace is the formatted fault trace, when available.
	Backtrace string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the fault message.
func (e *CodeError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CodeError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target. CodeError matches
// ErrExecution to allow sentinel-style error checking.
func (e *CodeError) Is(target error) bool {
	return target == ErrExecution
}

// Trace returns the text used in failure reports: the backtrace when one
// was captured, the plain message otherwise.
func (e *CodeError) Trace() string {
	if e.Backtrace != "" {
		return e.Backtrace
	}
	return e.Message
}
