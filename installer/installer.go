// Package installer installs packages into the running process's
// environment and binds the resulting module into the session namespace.
// Every failure mode is reported as text to the caller; nothing raised here
// escapes the tool boundary.
package installer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolrepl/code"
	"github.com/jonwraymond/toolrepl/session"
)

// namePattern is the conservative filename-safe shape a package identifier
// must match before the package manager is invoked. This is the only input
// validation in the system; anything else is rejected outright with no
// side effects.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// DefaultCommand is the package manager invoked when none is configured.
var DefaultCommand = []string{"uv", "pip"}

// Status classifies the outcome of an install request.
type Status int

const (
	// StatusOK means the package installed and its module was bound into
	// the namespace.
	StatusOK Status = iota

	// StatusInvalidName means the identifier failed validation; no
	// subprocess was launched.
	StatusInvalidName

	// StatusInstallFailed means the package manager exited non-zero or
	// could not be launched.
	StatusInstallFailed

	// StatusImportFailed means the package installed but its module could
	// not be bound into the namespace.
	StatusImportFailed
)

// Result is the outcome of one install request. Both the installation and
// a subsequent bind are irreversible side effects on the shared namespace.
type Result struct {
	Status  Status
	Package string
	Detail  string
}

// Message flattens the result to the text returned to the caller.
func (r Result) Message() string {
	switch r.Status {
	case StatusInvalidName:
		return fmt.Sprintf("Invalid package name: %s", r.Package)
	case StatusInstallFailed:
		return fmt.Sprintf("Failed to install package:\n%s", r.Detail)
	case StatusImportFailed:
		return fmt.Sprintf("Package installed but import failed: %s", r.Detail)
	default:
		return fmt.Sprintf("Successfully installed and imported %s", r.Package)
	}
}

// Installer shells out to an external package manager and binds installed
// modules into the shared namespace through the engine.
type Installer struct {
	command []string
	engine  code.Engine
	ns      *session.Session
	logger  zerolog.Logger
}

// New creates an Installer. command is the package manager invocation
// prefix; the subprocess runs with arguments "install <package>" appended.
// A nil or empty command falls back to DefaultCommand.
func New(command []string, engine code.Engine, ns *session.Session, logger zerolog.Logger) *Installer {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Installer{
		command: command,
		engine:  engine,
		ns:      ns,
		logger:  logger,
	}
}

// Install validates the package identifier, runs the package manager as a
// blocking subprocess, and on success binds the module name (the identifier
// with any bracketed extras suffix stripped) into the namespace.
func (i *Installer) Install(ctx context.Context, pkg string) Result {
	if !namePattern.MatchString(pkg) {
		i.logger.Warn().Str("package", pkg).Msg("rejected invalid package name")
		return Result{Status: StatusInvalidName, Package: pkg}
	}

	i.logger.Info().Str("package", pkg).Msg("installing package")

	args := append(append([]string(nil), i.command[1:]...), "install", pkg)
	cmd := exec.CommandContext(ctx, i.command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		i.logger.Error().Str("package", pkg).Err(err).Msg("package install failed")
		return Result{Status: StatusInstallFailed, Package: pkg, Detail: detail}
	}

	module := ModuleName(pkg)
	if err := i.engine.Import(ctx, module, i.ns); err != nil {
		i.logger.Warn().Str("package", pkg).Str("module", module).Err(err).
			Msg("package installed but module bind failed")
		return Result{Status: StatusImportFailed, Package: pkg, Detail: err.Error()}
	}

	i.logger.Info().Str("package", pkg).Str("module", module).Msg("installed and imported package")
	return Result{Status: StatusOK, Package: pkg}
}

// ModuleName derives the importable module name from a package identifier
// by stripping any bracketed extras suffix, e.g. "requests[socks]" imports
// as "requests".
func ModuleName(pkg string) string {
	if i := strings.Index(pkg, "["); i >= 0 {
		return pkg[:i]
	}
	return pkg
}
