// Package session provides the shared mutable namespace backing a REPL
// session. One Session holds every binding made by executed code for the
// lifetime of the process, from creation (or the last reset) until the
// next reset or exit.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// BuiltinsKey is the reserved namespace entry holding the interpreter's
// built-in symbol table. It is always present, survives resets, and is
// excluded from user-facing listings.
const BuiltinsKey = "__builtins__"

// NoVariablesMessage is returned by Render when the session has no
// user-visible bindings.
const NoVariablesMessage = "No variables in current session."

// ResetMessage confirms that a reset discarded all user bindings.
const ResetMessage = "Python session reset. All variables cleared."

// Session is an insertion-ordered mapping from identifier to value, shared
// by every execution within a process lifetime. There is no persistence:
// the namespace lives and dies with the process.
//
// Contract:
// - Concurrency: all methods are safe for concurrent use. Callers running
//   code against the live globals (Update) are additionally expected to be
//   serialized by the executor, since an execution is not atomic.
// - Ownership: values bound into the session are shared with executed code;
//   callers must not assume exclusive ownership after binding.
type Session struct {
	mu       sync.Mutex
	globals  starlark.StringDict
	order    []string
	reserved map[string]starlark.Value
}

// New creates a Session seeded with only the reserved builtins entry.
func New() *Session {
	s := &Session{
		globals:  make(starlark.StringDict),
		reserved: make(map[string]starlark.Value),
	}
	s.seedReserved(BuiltinsKey, builtinsModule())
	return s
}

// builtinsModule wraps the interpreter universe as a module value so the
// reserved entry is a real, inspectable binding rather than a placeholder.
func builtinsModule() starlark.Value {
	members := make(starlark.StringDict, len(starlark.Universe))
	for name, v := range starlark.Universe {
		members[name] = v
	}
	return &starlarkstruct.Module{Name: "builtins", Members: members}
}

func (s *Session) seedReserved(name string, v starlark.Value) {
	s.reserved[name] = v
	s.globals[name] = v
	s.order = append(s.order, name)
}

// BindReserved binds a value that survives resets and is hidden from
// listings, such as interpreter-provided helpers.
func (s *Session) BindReserved(name string, v starlark.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.globals[name]; !ok {
		s.order = append(s.order, name)
	}
	s.reserved[name] = v
	s.globals[name] = v
}

// Bind sets a single binding, appending it to the iteration order if new.
func (s *Session) Bind(name string, v starlark.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.globals[name]; !ok {
		s.order = append(s.order, name)
	}
	s.globals[name] = v
}

// Get returns the value bound to name, if any.
func (s *Session) Get(name string) (starlark.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.globals[name]
	return v, ok
}

// Len reports the number of user-visible bindings.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, name := range s.order {
		if s.visible(name) {
			n++
		}
	}
	return n
}

// Update runs fn against the live namespace mapping while holding the
// session lock, then records any names fn bound in iteration order. Names
// introduced by a single update are appended in lexical order, since the
// underlying mapping cannot observe the order of assignment within one run.
// Bindings made before fn fails are kept, matching interpreter semantics
// where a fault does not roll back earlier statements.
func (s *Session) Update(fn func(globals starlark.StringDict) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn(s.globals)

	known := make(map[string]struct{}, len(s.order))
	for _, name := range s.order {
		known[name] = struct{}{}
	}
	var added []string
	for name := range s.globals {
		if _, ok := known[name]; !ok {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	s.order = append(s.order, added...)

	return err
}

// Reset discards every binding except the reserved entries, which are
// re-seeded. The confirmation text is ResetMessage.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.globals = make(starlark.StringDict, len(s.reserved))
	s.order = s.order[:0]
	// Reserved entries come back in a fixed order, builtins first.
	if v, ok := s.reserved[BuiltinsKey]; ok {
		s.globals[BuiltinsKey] = v
		s.order = append(s.order, BuiltinsKey)
	}
	var names []string
	for name := range s.reserved {
		if name != BuiltinsKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		s.globals[name] = s.reserved[name]
		s.order = append(s.order, name)
	}
}

// visible reports whether a binding appears in listings. Reserved entries
// and names starting with an underscore are hidden.
func (s *Session) visible(name string) bool {
	if strings.HasPrefix(name, "_") {
		return false
	}
	_, reserved := s.reserved[name]
	return !reserved
}

// Render produces the session inspector listing: one "name = repr" line per
// user-visible binding in iteration order, or NoVariablesMessage when there
// are none. Render is a pure read.
func (s *Session) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []string
	for _, name := range s.order {
		if !s.visible(name) {
			continue
		}
		v, ok := s.globals[name]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s = %s", name, v.String()))
	}
	if len(lines) == 0 {
		return NoVariablesMessage
	}
	return "Current session variables:\n\n" + strings.Join(lines, "\n")
}
