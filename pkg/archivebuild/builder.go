// Package archivebuild defines the ArchiveBuilder capability: an
// abstraction over any tool able to emit a native Creation Engine archive
// (BSA/BA2) from a staged directory tree. Concrete backends live in
// sibling packages (bsarch, sevenzip); this package also provides the
// Chain composite that tries them in configured order.
package archivebuild

import (
	"context"
	"fmt"

	"github.com/caoforge/capack/pkg/gamedir"
)

// Builder produces a single native archive file from a staged directory
// for a given game. Implementations must preserve the directory structure
// under stagingDir verbatim inside the archive, since member paths are the
// archive's lookup keys for the game engine. Implementations must never
// fall back to producing a ZIP file: if they cannot produce a native
// archive they must report unavailability via Available, not degrade the
// output format.
type Builder interface {
	// Name identifies the backend for error messages and configuration.
	Name() string
	// Available reports whether this backend's preconditions (presence on
	// PATH, version check, etc.) are currently satisfied. Chain uses this
	// to skip backends before attempting Build.
	Available() bool
	// Build produces outputPath from the contents of stagingDir.
	Build(ctx context.Context, stagingDir, outputPath string, game gamedir.Kind) error
}

// BuildError indicates that a specific backend failed to produce an
// archive.
type BuildError struct {
	Builder     string
	ArchivePath string
	Reason      string
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: unable to build %q: %s", e.Builder, e.ArchivePath, e.Reason)
}

// ErrNoArchiveBuilderAvailable is returned when every configured backend is
// unavailable. The pipeline must surface this verbatim and refuse to
// silently degrade to a ZIP archive.
type ErrNoArchiveBuilderAvailable struct {
	Attempted []string
}

// Error implements the error interface.
func (e *ErrNoArchiveBuilderAvailable) Error() string {
	return fmt.Sprintf("no archive builder backend available (attempted: %v)", e.Attempted)
}

// Chain tries a configured, ordered list of backends and uses the first one
// that reports itself Available. It returns ErrNoArchiveBuilderAvailable
// only once every backend has reported unavailable.
type Chain struct {
	backends []Builder
}

// NewChain creates a Chain that tries backends in the given order.
func NewChain(backends ...Builder) *Chain {
	return &Chain{backends: backends}
}

// Name implements Builder.
func (c *Chain) Name() string {
	return "chain"
}

// Available reports whether any backend in the chain is available.
func (c *Chain) Available() bool {
	for _, b := range c.backends {
		if b.Available() {
			return true
		}
	}
	return false
}

// Build tries each backend in order, returning the result of the first
// available one. If no backend is available, it returns
// ErrNoArchiveBuilderAvailable.
func (c *Chain) Build(ctx context.Context, stagingDir, outputPath string, game gamedir.Kind) error {
	var attempted []string
	for _, b := range c.backends {
		if !b.Available() {
			continue
		}
		attempted = append(attempted, b.Name())
		return b.Build(ctx, stagingDir, outputPath, game)
	}
	for _, b := range c.backends {
		attempted = append(attempted, b.Name())
	}
	return &ErrNoArchiveBuilderAvailable{Attempted: attempted}
}
