package version

import "os"

// DebugEnabled controls whether or not verbose debugging output is enabled.
// It is set automatically based on the CAPACK_DEBUG environment variable.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("CAPACK_DEBUG") == "1"
}
