// Package server wires the REPL session, engine, and installer into an MCP
// server exposing three tools: execute_python, install_package, and
// list_variables. Every tool call returns a single text payload; no failure
// mode surfaces as a protocol-level error.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolrepl/code"
	"github.com/jonwraymond/toolrepl/installer"
	"github.com/jonwraymond/toolrepl/session"
	"github.com/jonwraymond/toolrepl/starlarkengine"
)

// Config holds the configuration for a Server.
type Config struct {
	// Name and Version identify the server implementation to clients.
	Name    string
	Version string

	// InstallCommand is the package manager invocation prefix; the
	// subprocess runs "install <package>". Empty means installer.DefaultCommand.
	InstallCommand []string

	// ModulePath lists directories searched for <name>.star modules when
	// binding installed packages.
	ModulePath []string

	// Preload names registry modules bound into the namespace at startup.
	Preload []string

	// Timeout bounds each execution. Zero means executions block
	// indefinitely.
	Timeout time.Duration

	// Logger receives process-side diagnostics. Client-side diagnostics go
	// through the MCP session's logging channel.
	Logger zerolog.Logger
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "python-repl"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

// Server hosts one REPL session over MCP.
type Server struct {
	srv  *mcp.Server
	ns   *session.Session
	exec code.Executor
	inst *installer.Installer
	log  zerolog.Logger
}

// New creates a Server with a fresh session namespace.
func New(cfg Config) (*Server, error) {
	cfg.applyDefaults()

	engine := starlarkengine.New(starlarkengine.WithModulePath(cfg.ModulePath...))
	ns := engine.NewSession()

	for _, name := range cfg.Preload {
		if err := engine.Import(context.Background(), name, ns); err != nil {
			return nil, fmt.Errorf("%w: preload module %q: %v", code.ErrConfiguration, name, err)
		}
	}

	exec, err := code.NewDefaultExecutor(code.Config{
		Engine:  engine,
		Session: ns,
		Timeout: cfg.Timeout,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		ns:   ns,
		exec: exec,
		inst: installer.New(cfg.InstallCommand, engine, ns, cfg.Logger),
		log:  cfg.Logger,
	}

	s.srv = mcp.NewServer(
		&mcp.Implementation{Name: cfg.Name, Version: cfg.Version},
		&mcp.ServerOptions{
			Instructions:       instructions,
			InitializedHandler: s.handleInitialized,
		},
	)
	s.register()
	return s, nil
}

const instructions = "A persistent Python-dialect execution session. Variables " +
	"persist between execute_python calls until reset. install_package adds a " +
	"dependency to the running process; list_variables shows current bindings."

// register adds the three tool operations.
func (s *Server) register() {
	mcp.AddTool(s.srv, &mcp.Tool{
		Name: "execute_python",
		Description: "Execute Python code and return the output. " +
			"Variables persist between executions.",
	}, s.handleExecute)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "install_package",
		Description: "Install a Python package into the running session",
	}, s.handleInstall)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "list_variables",
		Description: "List all variables in the current session",
	}, s.handleListVariables)
}

// Run serves the session over the stdio transport until ctx is done or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().Msg("serving REPL session on stdio")
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

// handleInitialized is invoked once per established session. It reads the
// client's declared roots and, when at least one is present, changes the
// process working directory to the first. Failure is diagnostic only; the
// session continues with whatever directory it already had.
func (s *Server) handleInitialized(ctx context.Context, req *mcp.InitializedRequest) {
	roots, err := req.Session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		s.log.Debug().Err(err).Msg("client declared no roots")
		return
	}
	if len(roots.Roots) == 0 {
		return
	}
	s.applyRoot(ctx, req.Session, roots.Roots[0].URI)
}

// applyRoot changes the working directory to a client-declared root.
// Failure is reported as a diagnostic and is non-fatal.
func (s *Server) applyRoot(ctx context.Context, ss *mcp.ServerSession, uri string) {
	path := rootPath(uri)
	if err := chdir(path); err != nil {
		s.log.Error().Str("path", path).Err(err).Msg("failed to change working directory")
		s.clientLog(ctx, ss, "error",
			fmt.Sprintf("Failed to change directory to %s: %v", path, err))
		return
	}
	s.log.Info().Str("path", path).Msg("changed working directory")
	s.clientLog(ctx, ss, "info",
		fmt.Sprintf("Changed working directory to: %s", path))
}

// clientLog forwards a diagnostic to the connected client, best effort.
func (s *Server) clientLog(ctx context.Context, ss *mcp.ServerSession, level mcp.LoggingLevel, msg string) {
	if ss == nil {
		return
	}
	if err := ss.Log(ctx, &mcp.LoggingMessageParams{Level: level, Data: msg}); err != nil {
		s.log.Debug().Err(err).Msg("client log dropped")
	}
}
