//go:build windows

package fsutil

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	modkernel32             = syscall.NewLazyDLL("kernel32.dll")
	procGetDiskFreeSpaceExW = modkernel32.NewProc("GetDiskFreeSpaceExW")
)

// AvailableSpace returns the number of bytes available to an unprivileged
// user on the filesystem containing path. There is no disk-usage library
// anywhere in the retrieval corpus, so this is implemented directly against
// the Win32 GetDiskFreeSpaceExW API (see DESIGN.md for the
// standard-library justification).
func AvailableSpace(path string) (uint64, error) {
	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("unable to convert path: %w", err)
	}

	var freeBytesAvailable uint64
	r1, _, callErr := procGetDiskFreeSpaceExW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeBytesAvailable)),
		0,
		0,
	)
	if r1 == 0 {
		return 0, fmt.Errorf("unable to query disk free space: %w", callErr)
	}

	return freeBytesAvailable, nil
}
