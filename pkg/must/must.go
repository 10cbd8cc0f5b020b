// Package must provides small helpers for invoking operations whose errors
// are worth logging but not worth propagating: best-effort cleanup calls
// made from defer statements, where the original error (if any) already
// took the return path and a failed cleanup is not itself fatal.
package must

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/caoforge/capack/pkg/logging"
)

// Close closes c, logging any error. Intended for deferred cleanup of
// files and other closers where the close error is secondary to whatever
// the caller already returned.
func Close(c io.Closer, logger *logging.Logger) {
	err := c.Close()
	if err != nil {
		logger.Warnf("Unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging any error. Intended for
// deferred or best-effort temporary file cleanup.
func OSRemove(name string, logger *logging.Logger) {
	err := os.Remove(name)
	if err != nil {
		logger.Warnf("Unable to remove '%s': %s", name, err.Error())
	}
}

// CommandHelp prints a command's help text, logging any error.
func CommandHelp(c *cobra.Command, logger *logging.Logger) {
	err := c.Help()
	if err != nil {
		logger.Warnf("Unable to help: %s", err.Error())
	}
}
