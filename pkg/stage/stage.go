// Package stage manages the owned, temporary staging directories used by
// the Packager and BatchOrchestrator. Each staging root has a unique name
// (github.com/google/uuid, the same identifier library the teacher uses
// for its own session and agent identifiers) so that concurrent runs never
// collide, and is cleaned up on success or failure per the
// cleanup_staging configuration option.
package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// namePrefix identifies capack staging roots among other temporary
// directories, used both for naming new roots and for recognizing orphans
// during the housekeeping sweep.
const namePrefix = "capack-stage-"

// Root is an owned temporary directory with a unique name. The owner of a
// Root is responsible for calling Close when done with it.
type Root struct {
	path string
}

// New creates a new staging root as a uniquely named subdirectory of
// parent. If parent is empty, os.TempDir() is used.
func New(parent string) (*Root, error) {
	if parent == "" {
		parent = os.TempDir()
	}

	name := namePrefix + uuid.NewString()
	path := filepath.Join(parent, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("unable to create staging root: %w", err)
	}

	return &Root{path: path}, nil
}

// Path returns the staging root's absolute path.
func (r *Root) Path() string {
	return r.path
}

// Join joins additional path components onto the staging root.
func (r *Root) Join(components ...string) string {
	return filepath.Join(append([]string{r.path}, components...)...)
}

// Close removes the staging root and everything under it.
func (r *Root) Close() error {
	return os.RemoveAll(r.path)
}

// SweepOrphans removes staging roots under parent whose name carries the
// capack staging prefix and whose modification time is older than
// olderThan, best-effort. It is intended to be run once at Packager or
// BatchOrchestrator construction to clean up roots left behind by a
// previous crashed run; a sweep failure for an individual entry is
// swallowed since this is a housekeeping convenience, not a correctness
// requirement.
func SweepOrphans(parent string, olderThan time.Duration) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-olderThan)
	for _, entry := range entries {
		if !entry.IsDir() || len(entry.Name()) < len(namePrefix) || entry.Name()[:len(namePrefix)] != namePrefix {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		_ = os.RemoveAll(filepath.Join(parent, entry.Name()))
	}
}
