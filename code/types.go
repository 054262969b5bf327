package code

// ExecuteParams specifies one execution request.
type ExecuteParams struct {
	// Code is the source to execute.
	Code string `json:"code"`

	// Reset discards all user bindings instead of executing Code. Reset
	// wins when both are set.
	Reset bool `json:"reset,omitempty"`
}

// ExecuteResult contains the outcome of one execution. It distinguishes
// the three success shapes (stream output, final-expression value, no
// output) explicitly rather than conflating them in the rendered text.
type ExecuteResult struct {
	// Stdout contains output captured from the snippet's standard-output
	// stream (print).
	Stdout string `json:"stdout,omitempty"`

	// Stderr contains output captured from the snippet's standard-error
	// stream.
	Stderr string `json:"stderr,omitempty"`

	// Value is the printable representation of the final line re-evaluated
	// as a bare expression. Only meaningful when HasValue is set; it is
	// never populated when the snippet wrote to either stream.
	Value string `json:"value,omitempty"`

	// HasValue reports whether Value was produced. False means either the
	// final line was not a bare expression or its re-evaluation failed.
	HasValue bool `json:"hasValue,omitempty"`

	// Reset reports that the request was a reset and no code ran.
	Reset bool `json:"reset,omitempty"`

	// DurationMs is the total execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}
