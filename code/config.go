package code

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolrepl/session"
)

// Config holds the configuration for an executor.
type Config struct {
	// Engine evaluates snippets against the session namespace.
	// Required.
	Engine Engine

	// Session is the shared namespace mutated by every execution.
	// Required.
	Session *session.Session

	// Timeout bounds each execution. Zero means executions block
	// indefinitely, which is the default behavior.
	Timeout time.Duration

	// Logger receives execution summaries. The zero value discards them.
	Logger zerolog.Logger
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string

	if c.Engine == nil {
		missing = append(missing, "Engine")
	}
	if c.Session == nil {
		missing = append(missing, "Session")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}
