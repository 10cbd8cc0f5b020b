// Package bsarch implements the ArchiveBuilder capability by shelling out
// to a BSArch.exe-compatible command-line tool, the first-preference
// backend for producing native BSA/BA2 archives.
package bsarch

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/caoforge/capack/pkg/archivebuild"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/process"
)

// executableName is the base name (without platform-specific extension) of
// the BSArch command-line tool.
const executableName = "bsarch"

// Backend shells out to a located BSArch executable to pack a staged
// directory tree into a native archive.
type Backend struct {
	// SearchPaths is the ordered list of directories to search for the
	// executable, in addition to the process's own PATH.
	SearchPaths []string

	once sync.Once
	path string
	ok   bool
}

// New creates a Backend that searches the given additional directories (in
// order) before falling back to the process PATH.
func New(searchPaths ...string) *Backend {
	return &Backend{SearchPaths: searchPaths}
}

// Name implements archivebuild.Builder.
func (b *Backend) Name() string {
	return "bsarch"
}

// resolve locates the executable exactly once, caching the result.
func (b *Backend) resolve() {
	b.once.Do(func() {
		if path, err := process.FindCommand(executableName, b.SearchPaths); err == nil {
			b.path, b.ok = path, true
			return
		}
		if path, err := exec.LookPath(process.ExecutableName(executableName, runtime.GOOS)); err == nil {
			b.path, b.ok = path, true
		}
	})
}

// Available implements archivebuild.Builder.
func (b *Backend) Available() bool {
	b.resolve()
	return b.ok
}

// Build implements archivebuild.Builder. It invokes:
//
//	bsarch pack <stagingDir> <outputPath> -<game flag>
//
// BSArch's own archive/directory-structure handling preserves member paths
// verbatim, satisfying the directory-structure invariant without any
// post-processing on our part.
func (b *Backend) Build(ctx context.Context, stagingDir, outputPath string, game gamedir.Kind) error {
	if !b.Available() {
		return &archivebuild.BuildError{Builder: b.Name(), ArchivePath: outputPath, Reason: "bsarch executable not found"}
	}

	args := []string{"pack", stagingDir, outputPath, gameFlag(game)}
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

// gameFlag maps a game to its BSArch packing flag.
func gameFlag(game gamedir.Kind) string {
	switch game {
	case gamedir.KindFallout4:
		return "-fo4"
	default:
		return "-sse"
	}
}
