package code

import (
	"context"

	"github.com/jonwraymond/toolrepl/session"
)

// Engine is the pluggable code execution engine that runs snippets against
// the shared session namespace. Implementations are responsible for parsing
// and executing the code and for capturing its output streams.
//
// The Engine should:
//   - Execute the code with the session's bindings in scope
//   - Persist bindings made by the code into the session, including those
//     made before a fault
//   - Capture stdout/stderr written during execution
//   - Wrap execution faults in CodeError with a formatted backtrace
//
// Contract:
// - Concurrency: Execute is serialized by the Executor; Import may be
//   called concurrently with listings but not with Execute.
// - Context: must honor cancellation/deadlines and interrupt the running
//   snippet when the context is done.
// - Errors: execution failures should return CodeError where possible;
//   callers use errors.Is with ErrExecution.
type Engine interface {
	// Execute runs a code snippet against the namespace. It returns the
	// captured output and, when the snippet produced none, the value of its
	// final line re-evaluated as a bare expression.
	Execute(ctx context.Context, params ExecuteParams, ns *session.Session) (ExecuteResult, error)

	// Import binds the named module into the namespace, typically after a
	// package installation. It returns an error when no loadable module by
	// that name exists.
	Import(ctx context.Context, module string, ns *session.Session) error
}
