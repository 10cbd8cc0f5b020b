// Package classify implements the content-addressed comparison engine that
// decides, for every file under a generated asset tree, whether it is safe
// to pack into an archive, must remain loose to preserve override
// semantics, or is byte-identical to a reference install and can be
// skipped.
package classify

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/caoforge/capack/pkg/contextutil"
	"github.com/caoforge/capack/pkg/fingerprint"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/logging"
	"github.com/caoforge/capack/pkg/pathnorm"
	"github.com/caoforge/capack/pkg/progress"
	"github.com/caoforge/capack/pkg/workerpool"
)

// Kind is the classification assigned to a single generated file.
type Kind uint8

const (
	// Pack indicates the file has no counterpart in the reference tree and
	// is safe to archive.
	Pack Kind = iota
	// Loose indicates the file shadows a reference file with different
	// content and must remain loose to preserve override semantics.
	Loose
	// Skip indicates the file is byte-identical to its reference
	// counterpart and need not be delivered at all.
	Skip
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Pack:
		return "pack"
	case Loose:
		return "loose"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Entry describes a single classified file.
type Entry struct {
	// RelPath is the game-data-relative path under which this file was
	// classified.
	RelPath pathnorm.RelPath
	// SourcePath is the absolute path to the file under the generated root.
	SourcePath string
	// Size is the file's size in bytes, as reported by the enumeration
	// stat, used directly by the chunker's bin-packing without a second
	// stat call.
	Size int64
}

// Error is the payload behind a per-file classification failure. Per-file
// errors are accumulated, never raised; they never abort classification of
// the remaining tree.
type Error struct {
	// RelPath is the game-data-relative path that failed to classify, or
	// the raw input path if normalization itself failed.
	RelPath string
	// SourcePath is the absolute path to the offending file.
	SourcePath string
	// Reason describes the failure.
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.RelPath, e.Reason)
}

// FatalError indicates that enumeration of the generated root itself failed
// and no classification could be attempted. This is the only failure mode
// that aborts classification outright; all other failures are per-file and
// accumulated in Result.Errors.
type FatalError struct {
	Reason string
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("classification aborted: %s", e.Reason)
}

// Result is the outcome of classifying every file under a generated root.
// Every file discovered appears in exactly one of Pack, Loose, Skip, or
// Errors.
type Result struct {
	Pack       []Entry
	Loose      []Entry
	Skip       []Entry
	Errors     []Error
	Enumerated int
	// Cancelled is true if the run was stopped early via context
	// cancellation; in that case the four slices above reflect only the
	// subset of files processed before cancellation.
	Cancelled bool
}

// Counts returns the {pack, loose, skip, error} counts used in run
// metadata.
func (r *Result) Counts() (pack, loose, skip, errs int) {
	return len(r.Pack), len(r.Loose), len(r.Skip), len(r.Errors)
}

// referenceIndex is a precomputed lowercase lookup table over a reference
// tree, built once per classification run so that case-insensitive lookups
// never re-walk the filesystem.
type referenceIndex struct {
	byKey map[string]string // lowercase RelPath key -> absolute source path
}

// buildReferenceIndex walks root and indexes every regular file by its path
// relative to root, lowercased. A missing or unreadable root yields an
// empty, non-nil index rather than an error: classification against an
// absent reference tree simply finds nothing and everything packs.
func buildReferenceIndex(root string) *referenceIndex {
	index := &referenceIndex{byKey: make(map[string]string)}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		key := pathnorm.RelPath(filepath.ToSlash(relative)).Key()
		index.byKey[key] = path
		return nil
	})

	return index
}

func (idx *referenceIndex) lookup(relPath pathnorm.RelPath) (string, bool) {
	path, ok := idx.byKey[relPath.Key()]
	return path, ok
}

// Classifier walks a generated asset tree and classifies every file against
// a reference tree.
type Classifier struct {
	scanner *gamedir.Scanner
	hasher  *fingerprint.Hasher
	logger  *logging.Logger
}

// New creates a Classifier. scanner and hasher must not be nil; logger may
// be nil, in which case logging is silently discarded.
func New(scanner *gamedir.Scanner, hasher *fingerprint.Hasher, logger *logging.Logger) *Classifier {
	return &Classifier{scanner: scanner, hasher: hasher, logger: logger}
}

// discoveredFile is a single regular file found under the generated root
// during enumeration, paired with its stat size so classify never needs a
// second stat.
type discoveredFile struct {
	absolute string
	size     int64
}

// Classify walks generatedRoot and classifies every regular file against
// referenceRoot for the given game, fanning work out across threads
// goroutines. If threads is zero or negative, a default of min(cores, 8) is
// used, per spec.md §5.
func (c *Classifier) Classify(ctx context.Context, generatedRoot, referenceRoot string, game gamedir.Kind, threads int, reporter progress.Reporter) (*Result, error) {
	reporter = progress.OrNoop(reporter)

	known := c.scanner.Scan(referenceRoot, game)
	normalizer := pathnorm.New(known)
	index := buildReferenceIndex(referenceRoot)

	files, err := enumerate(generatedRoot)
	if err != nil {
		return nil, &FatalError{Reason: err.Error()}
	}
	reporter.Enumerated(len(files))

	if threads < 1 {
		threads = defaultThreads()
	}

	result := &Result{Enumerated: len(files)}
	var mu sync.Mutex
	var classified int

	indices := make([]int, len(files))
	for i := range files {
		indices[i] = i
	}

	runErr := workerpool.Run(ctx, threads, indices, func(ctx context.Context, i int) error {
		entry, classifyErr := c.classifyOne(normalizer, index, generatedRoot, files[i])

		mu.Lock()
		defer mu.Unlock()
		if classifyErr != nil {
			result.Errors = append(result.Errors, *classifyErr)
		} else {
			switch entry.kind {
			case Pack:
				result.Pack = append(result.Pack, entry.Entry)
			case Loose:
				result.Loose = append(result.Loose, entry.Entry)
			case Skip:
				result.Skip = append(result.Skip, entry.Entry)
			}
		}
		classified++
		reporter.Classified(classified)
		return nil
	})
	if runErr != nil {
		return result, &FatalError{Reason: runErr.Error()}
	}

	result.Cancelled = contextutil.IsCancelled(ctx)

	return result, nil
}

type classifiedEntry struct {
	Entry
	kind Kind
}

// classifyOne applies the per-file decision procedure from spec.md §4.4
// step 3.
func (c *Classifier) classifyOne(normalizer *pathnorm.Normalizer, index *referenceIndex, generatedRoot string, file discoveredFile) (classifiedEntry, *Error) {
	normalized, err := normalizer.Normalize(generatedRoot, file.absolute)
	if err != nil {
		return classifiedEntry{}, &Error{RelPath: file.absolute, SourcePath: file.absolute, Reason: err.Error()}
	}

	base := Entry{RelPath: normalized.Path, SourcePath: file.absolute, Size: file.size}

	if !normalized.Qualified {
		return classifiedEntry{Entry: base, kind: Pack}, nil
	}

	referencePath, found := index.lookup(normalized.Path)
	if !found {
		return classifiedEntry{Entry: base, kind: Pack}, nil
	}

	generatedDigest, err := c.hasher.HashFile(file.absolute)
	if err != nil {
		return classifiedEntry{}, &Error{RelPath: string(normalized.Path), SourcePath: file.absolute, Reason: err.Error()}
	}
	referenceDigest, err := c.hasher.HashFile(referencePath)
	if err != nil {
		return classifiedEntry{}, &Error{RelPath: string(normalized.Path), SourcePath: file.absolute, Reason: err.Error()}
	}

	if generatedDigest.Equal(referenceDigest) {
		return classifiedEntry{Entry: base, kind: Skip}, nil
	}
	return classifiedEntry{Entry: base, kind: Loose}, nil
}

// enumerate walks root and returns every regular file found, along with its
// size from the enumeration stat.
func enumerate(root string) ([]discoveredFile, error) {
	var files []discoveredFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, discoveredFile{absolute: path, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// defaultThreads returns min(cores, 8), per spec.md §5's default worker
// count for the Classifier.
func defaultThreads() int {
	cores := runtime.NumCPU()
	if cores > 8 {
		return 8
	}
	if cores < 1 {
		return 1
	}
	return cores
}
