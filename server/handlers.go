package server

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolrepl/code"
)

type executeArgs struct {
	Code  string `json:"code" jsonschema:"the Python code to execute"`
	Reset bool   `json:"reset,omitempty" jsonschema:"reset the session and clear all variables instead of executing code"`
}

type installArgs struct {
	Package string `json:"package" jsonschema:"name of the package to install"`
}

type listVariablesArgs struct{}

// handleExecute evaluates a snippet against the shared namespace. Faults
// raised by the snippet are flattened to a trace report; they never surface
// as protocol errors.
func (s *Server) handleExecute(ctx context.Context, req *mcp.CallToolRequest, args executeArgs) (*mcp.CallToolResult, any, error) {
	log := s.requestLogger("execute_python")

	res, err := s.exec.ExecuteCode(ctx, code.ExecuteParams{Code: args.Code, Reset: args.Reset})
	if err != nil {
		log.Debug().Err(err).Msg("execution fault reported to caller")
		return textResult(code.FormatError(err)), nil, nil
	}
	return textResult(code.FormatResult(res)), nil, nil
}

// handleInstall validates and installs a package, then binds its module
// into the namespace. All outcomes are text.
func (s *Server) handleInstall(ctx context.Context, req *mcp.CallToolRequest, args installArgs) (*mcp.CallToolResult, any, error) {
	log := s.requestLogger("install_package")
	log.Info().Str("package", args.Package).Msg("install requested")

	if req != nil && req.Session != nil {
		s.clientLog(ctx, req.Session, "info", "Installing package: "+args.Package)
	}

	result := s.inst.Install(ctx, args.Package)
	return textResult(result.Message()), nil, nil
}

// handleListVariables renders the namespace listing. Pure read.
func (s *Server) handleListVariables(ctx context.Context, req *mcp.CallToolRequest, args listVariablesArgs) (*mcp.CallToolResult, any, error) {
	return textResult(s.ns.Render()), nil, nil
}

// requestLogger tags diagnostics for one tool invocation.
func (s *Server) requestLogger(tool string) zerolog.Logger {
	return s.log.With().
		Str("tool", tool).
		Str("request_id", uuid.NewString()).
		Logger()
}

// textResult wraps a text payload as a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// rootPath strips a local-file-scheme prefix from a client-declared root,
// leaving bare paths untouched.
func rootPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// chdir is swapped in tests.
var chdir = os.Chdir
