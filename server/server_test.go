package server

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/toolrepl/code"
	"github.com/jonwraymond/toolrepl/session"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.Logger = zerolog.Nop()
	if cfg.InstallCommand == nil {
		cfg.InstallCommand = []string{"true"}
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "tool results are always a single text payload")
	return tc.Text
}

func execute(t *testing.T, s *Server, codeStr string, reset bool) string {
	t.Helper()
	res, _, err := s.handleExecute(context.Background(), &mcp.CallToolRequest{}, executeArgs{Code: codeStr, Reset: reset})
	require.NoError(t, err, "tool handlers never return protocol-level errors")
	return text(t, res)
}

func TestExecute_StatefulnessAcrossCalls(t *testing.T) {
	s := newTestServer(t, Config{})

	require.Equal(t, code.NoOutputMessage, execute(t, s, "x = 5", false))
	require.Equal(t, "Result: 5", execute(t, s, "x", false))
}

func TestExecute_ResetClearsVariables(t *testing.T) {
	s := newTestServer(t, Config{})

	execute(t, s, "x = 5", false)
	require.Equal(t, session.ResetMessage, execute(t, s, "", true))

	out := execute(t, s, "x", false)
	require.True(t, strings.HasPrefix(out, "Error executing code:\n"), "got %q", out)
	require.Contains(t, out, "x")
}

func TestExecute_OutputLabels(t *testing.T) {
	s := newTestServer(t, Config{})

	require.Equal(t, "Output:\nhello\n", execute(t, s, `print("hello")`, false))
	require.Equal(t, "\nErrors:\noops\n", execute(t, s, `eprint("oops")`, false))
	require.Equal(t, "Output:\nout\n\nErrors:\nerr\n",
		execute(t, s, "print(\"out\")\neprint(\"err\")", false))
}

func TestExecute_BareExpression(t *testing.T) {
	s := newTestServer(t, Config{})
	require.Equal(t, "Result: 4", execute(t, s, "2 + 2", false))
}

func TestExecute_AssignmentTrailerNoOutput(t *testing.T) {
	s := newTestServer(t, Config{})
	out := execute(t, s, "y = 1", false)
	require.Equal(t, code.NoOutputMessage, out, "an assignment trailer is not a fault")
}

func TestExecute_FaultIsTextNotError(t *testing.T) {
	s := newTestServer(t, Config{})
	out := execute(t, s, `fail("kaput")`, false)
	require.True(t, strings.HasPrefix(out, "Error executing code:\n"))
	require.Contains(t, out, "kaput")
}

func TestListVariables(t *testing.T) {
	s := newTestServer(t, Config{})

	res, _, err := s.handleListVariables(context.Background(), &mcp.CallToolRequest{}, listVariablesArgs{})
	require.NoError(t, err)
	require.Equal(t, session.NoVariablesMessage, text(t, res))

	execute(t, s, "x = 5", false)
	res, _, err = s.handleListVariables(context.Background(), &mcp.CallToolRequest{}, listVariablesArgs{})
	require.NoError(t, err)
	require.Equal(t, "Current session variables:\n\nx = 5", text(t, res))
}

func TestListVariables_AfterReset(t *testing.T) {
	s := newTestServer(t, Config{})

	execute(t, s, "x = 5", false)
	execute(t, s, "", true)

	res, _, err := s.handleListVariables(context.Background(), &mcp.CallToolRequest{}, listVariablesArgs{})
	require.NoError(t, err)
	require.Equal(t, session.NoVariablesMessage, text(t, res))
}

func TestInstall_InvalidNameViaHandler(t *testing.T) {
	s := newTestServer(t, Config{InstallCommand: []string{"/nonexistent/pm"}})

	res, _, err := s.handleInstall(context.Background(), &mcp.CallToolRequest{}, installArgs{Package: "-rf"})
	require.NoError(t, err)
	require.Equal(t, "Invalid package name: -rf", text(t, res))
}

func TestInstall_SuccessViaHandler(t *testing.T) {
	s := newTestServer(t, Config{})

	res, _, err := s.handleInstall(context.Background(), &mcp.CallToolRequest{}, installArgs{Package: "math"})
	require.NoError(t, err)
	require.Equal(t, "Successfully installed and imported math", text(t, res))

	require.Equal(t, "Result: 2.0", execute(t, s, "math.sqrt(4.0)", false))
}

func TestNew_PreloadBindsModules(t *testing.T) {
	s := newTestServer(t, Config{Preload: []string{"math", "json"}})

	_, ok := s.ns.Get("math")
	require.True(t, ok)
	_, ok = s.ns.Get("json")
	require.True(t, ok)
}

func TestNew_PreloadUnknownModuleFails(t *testing.T) {
	_, err := New(Config{Logger: zerolog.Nop(), Preload: []string{"nosuchmodule"}})
	require.Error(t, err)
	require.ErrorIs(t, err, code.ErrConfiguration)
}

func TestRootPath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"file:///work/project", "/work/project"},
		{"/bare/path", "/bare/path"},
		{"file://relative", "relative"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, rootPath(tt.uri))
	}
}

func TestApplyRoot_FailureIsNonFatal(t *testing.T) {
	orig := chdir
	chdir = func(string) error { return errors.New("permission denied") }
	t.Cleanup(func() { chdir = orig })

	s := newTestServer(t, Config{})
	s.applyRoot(context.Background(), nil, "file:///nope")

	// The session keeps working after a directory-change failure.
	require.Equal(t, "Result: 4", execute(t, s, "2 + 2", false))
}

func TestApplyRoot_ChangesDirectory(t *testing.T) {
	var got string
	orig := chdir
	chdir = func(path string) error {
		got = path
		return nil
	}
	t.Cleanup(func() { chdir = orig })

	s := newTestServer(t, Config{})
	s.applyRoot(context.Background(), nil, "file:///work/project")
	require.Equal(t, "/work/project", got)
}
