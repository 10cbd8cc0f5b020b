package version

import "fmt"

const (
	// Major represents the current major version of capack.
	Major = 0
	// Minor represents the current minor version of capack.
	Minor = 1
	// Patch represents the current patch version of capack.
	Patch = 0
)

// Version is the full semantic version string, computed once at startup.
var Version string

func init() {
	Version = fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}
