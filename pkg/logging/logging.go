package logging

import (
	"io"
	"os"
)

// defaultLogOutput returns the default destination for the root logger.
func defaultLogOutput() io.Writer {
	return os.Stdout
}
