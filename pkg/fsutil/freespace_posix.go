//go:build !windows

package fsutil

import (
	"fmt"
	"syscall"
)

// AvailableSpace returns the number of bytes available to an unprivileged
// user on the filesystem containing path. There is no disk-usage library
// anywhere in the retrieval corpus, so this is implemented directly against
// the POSIX statfs syscall (see DESIGN.md for the standard-library
// justification).
func AvailableSpace(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("unable to query filesystem statistics: %w", err)
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
