package pathnorm

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/caoforge/capack/pkg/gamedir"
)

// PathError indicates that a path could not be normalized into a RelPath.
type PathError struct {
	// Input is the path that failed to normalize.
	Input string
	// Reason describes why normalization failed.
	Reason string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("unable to normalize path %q: %s", e.Input, e.Reason)
}

// Result is the outcome of normalizing a single path.
type Result struct {
	// Path is the resulting RelPath.
	Path RelPath
	// Qualified indicates whether a known game directory was found among
	// the path's components. If false, Path is simply the input path taken
	// relative to the generated root, unchanged, and the Classifier will be
	// unable to find a reference match for it.
	Qualified bool
}

// Normalizer reduces filesystem paths to RelPath values using a fixed
// known-dirs set.
type Normalizer struct {
	known gamedir.KnownDirs
}

// New creates a Normalizer that recognizes the directories in known.
func New(known gamedir.KnownDirs) *Normalizer {
	return &Normalizer{known: known}
}

// Normalize reduces path (which must lie under root) to the RelPath under
// which the Creation Engine would address that asset. root and path may use
// either platform path separator; both are normalized to forward slashes
// internally.
//
// The scan for a known directory is performed left-to-right and the
// leftmost matching component wins: in "…/meshes/tools/meshes/…" the
// outermost "meshes" is preferred, since a nested "meshes" inside a mod
// utility directory is not the game's own "meshes" directory.
func (n *Normalizer) Normalize(root, path string) (Result, error) {
	relative, err := filepath.Rel(root, path)
	if err != nil {
		return Result{}, &PathError{Input: path, Reason: fmt.Sprintf("not relative to root: %v", err)}
	}
	relative = filepath.ToSlash(relative)

	if relative == "" || relative == "." {
		return Result{}, &PathError{Input: path, Reason: "empty or root-only path"}
	}
	if relative == ".." || strings.HasPrefix(relative, "../") {
		return Result{}, &PathError{Input: path, Reason: "path escapes root"}
	}

	components := strings.Split(relative, "/")
	normalized := make([]string, len(components))
	for i, component := range components {
		normalized[i] = norm.NFC.String(component)
	}

	for i, component := range normalized {
		if n.known.Contains(strings.ToLower(component)) {
			return Result{
				Path:      RelPath(strings.Join(normalized[i:], "/")),
				Qualified: true,
			}, nil
		}
	}

	// No known directory component was found; fall back to the unchanged
	// root-relative path, marked unqualified.
	return Result{
		Path:      RelPath(strings.Join(normalized, "/")),
		Qualified: false,
	}, nil
}
