// Package sevenzip implements the ArchiveBuilder capability as a
// second-preference backend, shelling out to a 7z/7za-family binary
// configured (via a Creation Kit plugin or game-specific wrapper) to emit a
// native BSA/BA2 container. The binary name is what varies; the output
// format contract is identical to the bsarch backend and the §4.6
// ZIP-fallback prohibition still applies to the archive this backend
// produces.
package sevenzip

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/caoforge/capack/pkg/archivebuild"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/process"
)

// candidateNames lists the executable base names tried, in order, when
// locating a 7-Zip-family binary.
var candidateNames = []string{"7z", "7za"}

// Backend shells out to a located 7-Zip-family executable configured to
// emit a native BSA/BA2 container rather than a .7z/.zip file.
type Backend struct {
	// SearchPaths is the ordered list of directories to search, in addition
	// to the process's own PATH.
	SearchPaths []string
	// ArchiveType is the 7-Zip -t<type> switch identifying the wrapper
	// module that emits the native format (e.g. "bsa" when a BSA-aware
	// 7-Zip plugin is installed). It must never be "zip" or "7z": this
	// backend exists specifically to still be able to emit a native
	// archive when BSArch is unavailable.
	ArchiveType string

	once sync.Once
	path string
	name string
	ok   bool
}

// New creates a Backend that searches the given additional directories (in
// order) before falling back to the process PATH, configured to request
// archiveType from the underlying tool.
func New(archiveType string, searchPaths ...string) *Backend {
	return &Backend{ArchiveType: archiveType, SearchPaths: searchPaths}
}

// Name implements archivebuild.Builder.
func (b *Backend) Name() string {
	return "sevenzip"
}

func (b *Backend) resolve() {
	b.once.Do(func() {
		for _, candidate := range candidateNames {
			if path, err := process.FindCommand(candidate, b.SearchPaths); err == nil {
				b.path, b.name, b.ok = path, candidate, true
				return
			}
			if path, err := exec.LookPath(process.ExecutableName(candidate, runtime.GOOS)); err == nil {
				b.path, b.name, b.ok = path, candidate, true
				return
			}
		}
	})
}

// Available implements archivebuild.Builder.
func (b *Backend) Available() bool {
	if b.ArchiveType == "" || b.ArchiveType == "zip" || b.ArchiveType == "7z" {
		return false
	}
	b.resolve()
	return b.ok
}

// Build implements archivebuild.Builder. It invokes:
//
//	7z a -t<ArchiveType> <outputPath> <stagingDir>/*
func (b *Backend) Build(ctx context.Context, stagingDir, outputPath string, game gamedir.Kind) error {
	if !b.Available() {
		return &archivebuild.BuildError{Builder: b.Name(), ArchivePath: outputPath, Reason: "no suitable 7-Zip-family executable found"}
	}

	args := []string{"a", "-t" + b.ArchiveType, outputPath, filepath.Join(stagingDir, "*")}
	cmd := exec.CommandContext(ctx, b.path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		reason := process.ExtractExitErrorMessage(err)
		if reason == "" {
			reason = fmt.Sprintf("%v: %s", err, string(output))
		}
		return &archivebuild.BuildError{Builder: b.Name(), ArchivePath: outputPath, Reason: reason}
	}

	return nil
}
