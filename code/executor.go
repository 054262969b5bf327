package code

import (
	"context"
	"sync"
	"time"
)

// Executor is the main entry point for executing code snippets against the
// shared session namespace.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use and must
//   not interleave two executions against the same namespace.
// - Context: must honor cancellation/deadlines.
// - Errors: configuration failures return ErrConfiguration; execution
//   faults return CodeError and are matched by ErrExecution.
type Executor interface {
	// ExecuteCode runs one snippet, or resets the session when the params
	// request it. Reset wins over code.
	ExecuteCode(ctx context.Context, params ExecuteParams) (ExecuteResult, error)
}

// DefaultExecutor is the standard implementation of Executor. It serializes
// every namespace-touching execution behind one lock: the namespace is a
// single shared mutable mapping and overlapping executions would otherwise
// interleave writes with no isolation.
type DefaultExecutor struct {
	cfg Config
	mu  sync.Mutex
}

// NewDefaultExecutor creates a DefaultExecutor with the given configuration.
// Returns ErrConfiguration if any required field is missing.
func NewDefaultExecutor(cfg Config) (*DefaultExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &DefaultExecutor{cfg: cfg}, nil
}

// ExecuteCode runs one snippet to completion, synchronously. A reset request
// short-circuits execution entirely: bindings are discarded, the reserved
// builtins entry is re-seeded, and no code runs.
func (e *DefaultExecutor) ExecuteCode(ctx context.Context, params ExecuteParams) (ExecuteResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if params.Reset {
		e.cfg.Session.Reset()
		e.cfg.Logger.Info().Msg("session reset, all variables cleared")
		return ExecuteResult{Reset: true}, nil
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := e.cfg.Engine.Execute(ctx, params, e.cfg.Session)
	result.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		e.cfg.Logger.Debug().
			Err(err).
			Int64("duration_ms", result.DurationMs).
			Msg("execution failed")
		return result, err
	}

	e.cfg.Logger.Debug().
		Int64("duration_ms", result.DurationMs).
		Bool("has_value", result.HasValue).
		Int("variables", e.cfg.Session.Len()).
		Msg("executed code")

	return result, nil
}
