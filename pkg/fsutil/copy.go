package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caoforge/capack/pkg/must"
)

// CopyOrLinkFile materializes dst with the contents of src. It first
// attempts a hard link (cheap, and safe since source trees under this
// pipeline's control are read-only for the duration of a run); if linking
// fails for any reason (cross-device, unsupported filesystem, existing
// target), it falls back to a full byte copy. dst's parent directory is
// created if necessary.
func CopyOrLinkFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}

	if err := os.Link(src, dst); err == nil {
		return nil
	}

	return CopyFile(src, dst)
}

// CopyFile copies the contents of src to dst, creating dst's parent
// directory if necessary and preserving src's permission bits.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("unable to stat source file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}

	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open source file: %w", err)
	}
	defer must.Close(source, nil)

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("unable to create destination file: %w", err)
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return fmt.Errorf("unable to copy file contents: %w", err)
	}

	return destination.Close()
}

// DirSize computes the total size in bytes of every regular file under
// root.
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
