package code

import (
	"errors"
	"strings"

	"github.com/jonwraymond/toolrepl/session"
)

// NoOutputMessage is the fixed text for an execution that produced no
// stream output and no final-expression value.
const NoOutputMessage = "Code executed successfully (no output)"

// FormatResult flattens an ExecuteResult to the single text payload
// returned to the caller. Captured stdout appears under an "Output:" label
// and captured stderr under an "Errors:" label; both may appear together.
// When neither stream produced anything the result is the final
// expression's value, or NoOutputMessage when there is none.
func FormatResult(res ExecuteResult) string {
	if res.Reset {
		return session.ResetMessage
	}

	var b strings.Builder
	if res.Stdout != "" {
		b.WriteString("Output:\n")
		b.WriteString(res.Stdout)
	}
	if res.Stderr != "" {
		b.WriteString("\nErrors:\n")
		b.WriteString(res.Stderr)
	}
	if b.Len() > 0 {
		return b.String()
	}

	if res.HasValue {
		return "Result: " + res.Value
	}
	return NoOutputMessage
}

// FormatError flattens an execution fault to the failure report text. The
// report always carries the full trace when one was captured; callers are
// never given a structured error code.
func FormatError(err error) string {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return "Error executing code:\n" + codeErr.Trace()
	}
	return "Error executing code:\n" + err.Error()
}
