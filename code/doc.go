// Package code defines the execution contract for the REPL session: the
// pluggable [Engine] that evaluates snippets against a shared namespace,
// the [Executor] that serializes and orchestrates executions, and the text
// rendering of results returned to callers.
//
// # Architecture
//
//   - [Engine]: evaluates one snippet against a [session.Session], capturing
//     stdout/stderr and the value of a trailing bare expression. It also
//     binds installed modules into the namespace via Import.
//
//   - [Executor]: the main entry point. It handles the reset short-circuit,
//     serializes every namespace-touching execution behind one lock, applies
//     the optional configured timeout, and stamps durations.
//
// # Result Convention
//
// An [ExecuteResult] distinguishes three success shapes: captured stream
// output, a value produced by re-evaluating the final line as a bare
// expression, and no output at all. [FormatResult] flattens any of them to
// the single text payload callers receive; execution faults are flattened
// by [FormatError]. Nothing raised by a snippet propagates past the tool
// boundary as anything but text.
package code
