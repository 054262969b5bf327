// Package starlarkengine implements the code.Engine contract on the
// embedded Starlark interpreter. Snippets run against the live session
// globals, so bindings persist across calls and partial bindings survive a
// fault, matching interpreter exec semantics.
package starlarkengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sjson "go.starlark.net/lib/json"
	smath "go.starlark.net/lib/math"
	stime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/jonwraymond/toolrepl/code"
	"github.com/jonwraymond/toolrepl/session"
)

// stderrLocal is the thread-local key holding the per-execution stderr
// capture buffer used by the eprint builtin.
const stderrLocal = "toolrepl.stderr"

// Engine evaluates snippets with the Starlark interpreter. The dialect is
// configured to be as close to the Python original as the interpreter
// allows: set literals, while loops, top-level control flow, global
// reassignment, and recursion are all enabled.
type Engine struct {
	opts     *syntax.FileOptions
	registry map[string]starlark.Value
	path     []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithModulePath adds directories searched for <name>.star files when
// binding installed modules into the namespace.
func WithModulePath(dirs ...string) Option {
	return func(e *Engine) {
		e.path = append(e.path, dirs...)
	}
}

// WithModules registers additional importable modules by name.
func WithModules(mods map[string]starlark.Value) Option {
	return func(e *Engine) {
		for name, v := range mods {
			e.registry[name] = v
		}
	}
}

// New creates an Engine. The importable module registry is seeded with the
// interpreter's math, time, and json library modules.
func New(opts ...Option) *Engine {
	e := &Engine{
		opts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
		registry: map[string]starlark.Value{
			"math": smath.Module,
			"time": stime.Module,
			"json": sjson.Module,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewSession creates a session wired for this engine: the reserved builtins
// entry plus the eprint helper that writes to the captured stderr stream.
func (e *Engine) NewSession() *session.Session {
	s := session.New()
	s.BindReserved("eprint", starlark.NewBuiltin("eprint", eprint))
	return s
}

// Execute runs one snippet against the namespace. Output written via print
// goes to the stdout capture and via eprint to the stderr capture, scoped
// to this execution only. When both captures are empty on success, the
// final line of the snippet is re-evaluated as a bare expression and its
// printable representation becomes the result value; any failure of that
// re-evaluation is swallowed.
func (e *Engine) Execute(ctx context.Context, params code.ExecuteParams, ns *session.Session) (code.ExecuteResult, error) {
	var stdout, stderr bytes.Buffer
	thread := &starlark.Thread{
		Name: "execute",
		Print: func(_ *starlark.Thread, msg string) {
			stdout.WriteString(msg)
			stdout.WriteByte('\n')
		},
	}
	thread.SetLocal(stderrLocal, &stderr)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	f, err := e.opts.Parse("<input>", params.Code, 0)
	if err != nil {
		return code.ExecuteResult{}, execError(err)
	}

	err = ns.Update(func(globals starlark.StringDict) error {
		return starlark.ExecREPLChunk(f, thread, globals)
	})

	res := code.ExecuteResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		return res, execError(err)
	}

	if res.Stdout == "" && res.Stderr == "" {
		if v, ok := e.evalTrailer(ctx, params.Code, ns); ok {
			res.Value = v
			res.HasValue = true
		}
	}
	return res, nil
}

// evalTrailer re-evaluates the last line of the snippet as a standalone
// expression in the same namespace. The second result is false when the
// line is not a bare expression or its evaluation raised; both cases are
// deliberately indistinguishable to callers. Output produced by the
// re-evaluation is discarded.
func (e *Engine) evalTrailer(ctx context.Context, src string, ns *session.Session) (string, bool) {
	last := lastLine(src)
	if last == "" {
		return "", false
	}

	quiet := &starlark.Thread{
		Name:  "eval",
		Print: func(*starlark.Thread, string) {},
	}
	quiet.SetLocal(stderrLocal, new(bytes.Buffer))
	stop := context.AfterFunc(ctx, func() {
		quiet.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	var repr string
	ok := false
	_ = ns.Update(func(globals starlark.StringDict) error {
		v, err := starlark.EvalOptions(e.opts, quiet, "<input>", last, globals)
		if err != nil {
			return nil
		}
		repr = v.String()
		ok = true
		return nil
	})
	return repr, ok
}

// Import binds the named module into the namespace: first from the
// registry of built-in modules, then from the first <name>.star file found
// on the module path, executed in isolation and bound as a module value.
func (e *Engine) Import(ctx context.Context, module string, ns *session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v, ok := e.registry[module]; ok {
		ns.Bind(module, v)
		return nil
	}
	for _, dir := range e.path {
		file := filepath.Join(dir, module+".star")
		if _, err := os.Stat(file); err != nil {
			continue
		}
		mod, err := e.loadFile(ctx, module, file)
		if err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
		ns.Bind(module, mod)
		return nil
	}
	return fmt.Errorf("no loadable module %q", module)
}

// loadFile executes a .star file with an empty environment and wraps its
// frozen globals as a module value.
func (e *Engine) loadFile(ctx context.Context, name, file string) (starlark.Value, error) {
	thread := &starlark.Thread{
		Name:  "import " + name,
		Print: func(*starlark.Thread, string) {},
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	globals, err := starlark.ExecFileOptions(e.opts, thread, file, nil, nil)
	if err != nil {
		return nil, err
	}
	return &starlarkstruct.Module{Name: name, Members: globals}, nil
}

// lastLine returns the final line of the snippet after trimming the
// snippet as a whole. The line itself keeps its indentation: an indented
// trailer is not a valid standalone expression and falls through to the
// no-output message, same as the original behavior.
func lastLine(src string) string {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	return lines[len(lines)-1]
}

// execError wraps an interpreter fault, attaching the formatted backtrace
// when the interpreter produced one.
func execError(err error) *code.CodeError {
	ce := &code.CodeError{Message: err.Error(), Err: err}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		ce.Backtrace = evalErr.Backtrace()
	}
	return ce
}

// eprint writes its arguments to the execution's stderr capture, separated
// by spaces with a trailing newline. Outside an execution the arguments
// are dropped.
func eprint(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	buf, _ := thread.Local(stderrLocal).(*bytes.Buffer)
	if buf == nil {
		return starlark.None, nil
	}
	parts := make([]string, len(args))
	for i, v := range args {
		if s, ok := starlark.AsString(v); ok {
			parts[i] = s
		} else {
			parts[i] = v.String()
		}
	}
	buf.WriteString(strings.Join(parts, " "))
	buf.WriteByte('\n')
	return starlark.None, nil
}
