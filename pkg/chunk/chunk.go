// Package chunk bin-packs the pack set into archive chunks under the CAO
// (chunked archive object) naming convention, stages each chunk's member
// files, and invokes an ArchiveBuilder to produce the resulting archives.
package chunk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/caoforge/capack/pkg/archivebuild"
	"github.com/caoforge/capack/pkg/classify"
	"github.com/caoforge/capack/pkg/fsutil"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/pathnorm"
	"github.com/caoforge/capack/pkg/progress"
)

// DefaultChunkSize is the default per-chunk capacity: 2 GiB.
const DefaultChunkSize int64 = 2 * 1024 * 1024 * 1024

// Member is a single file assigned to a chunk.
type Member struct {
	RelPath    pathnorm.RelPath
	SourcePath string
	Size       int64
}

// Spec describes one planned archive chunk.
type Spec struct {
	Members []Member
	// Oversize is true if this chunk contains exactly one file whose size
	// exceeds the limit; it is the only condition under which a chunk's
	// total may exceed the configured limit.
	Oversize bool
}

// TotalSize returns the sum of member sizes in the chunk.
func (s Spec) TotalSize() int64 {
	var total int64
	for _, m := range s.Members {
		total += m.Size
	}
	return total
}

// Plan is an ordered sequence of chunk specs. Bin index order determines
// naming: the first chunk is unsuffixed, subsequent chunks carry contiguous
// numeric suffixes starting at 0.
type Plan []Spec

// Error indicates a bin-packing, staging, or integrity failure.
type Error struct {
	Reason           string
	ProducedArchives []string
	// cause is the underlying error, if any, preserved so that callers can
	// use errors.As/errors.Is to detect sentinel failures (e.g.
	// archivebuild.ErrNoArchiveBuilderAvailable) that must be handled
	// differently from an ordinary chunking failure.
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("chunking failed: %s", e.Reason)
}

// Unwrap exposes the underlying cause, if any, for errors.As/errors.Is.
func (e *Error) Unwrap() error {
	return e.cause
}

// entriesFromClassify adapts classify.Entry into the chunker's own Member
// type so that this package does not need to import classify's internal
// decision logic, only its output shape.
func entriesFromClassify(entries []classify.Entry) []Member {
	members := make([]Member, len(entries))
	for i, e := range entries {
		members[i] = Member{RelPath: e.RelPath, SourcePath: e.SourcePath, Size: e.Size}
	}
	return members
}

// PlanChunks bin-packs members into chunks of at most limit bytes using
// first-fit-decreasing: members are sorted by size descending (ties broken
// by RelPath lexicographic order, for deterministic output), then each
// member is placed in the first chunk with enough remaining capacity, or a
// new chunk if none has room. A single member whose size exceeds limit
// occupies a chunk of its own, which is permitted to exceed limit since no
// other placement preserves semantic integrity.
func PlanChunks(packSet []classify.Entry, limit int64) Plan {
	if limit <= 0 {
		limit = DefaultChunkSize
	}

	members := entriesFromClassify(packSet)
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Size != members[j].Size {
			return members[i].Size > members[j].Size
		}
		return members[i].RelPath < members[j].RelPath
	})

	var plan Plan
	remaining := make([]int64, 0)

	for _, member := range members {
		if member.Size > limit {
			plan = append(plan, Spec{Members: []Member{member}, Oversize: true})
			remaining = append(remaining, 0)
			continue
		}

		placed := false
		for i := range plan {
			if plan[i].Oversize {
				continue
			}
			if remaining[i] >= member.Size {
				plan[i].Members = append(plan[i].Members, member)
				remaining[i] -= member.Size
				placed = true
				break
			}
		}
		if !placed {
			plan = append(plan, Spec{Members: []Member{member}})
			remaining = append(remaining, limit-member.Size)
		}
	}

	return plan
}

// ChunkFileName computes the CAO-convention filename for chunk index idx
// (0-based bin index) out of a plan of the given total chunk count, using
// base as the stem and ext as the archive extension (without a leading
// dot). The first chunk (index 0) is unsuffixed; subsequent chunks receive
// contiguous numeric suffixes starting at 0 (i.e. bin 1 is suffix "0", bin 2
// is suffix "1", and so on).
func ChunkFileName(base, ext string, idx, total int) string {
	if idx == 0 {
		return fmt.Sprintf("%s.%s", base, ext)
	}
	return fmt.Sprintf("%s%d.%s", base, idx-1, ext)
}

// Execute stages each chunk in plan under stagingDir and invokes builder to
// produce an archive for each one, returning the paths of the archives
// produced, in bin order. baseName becomes the filename stem shared by
// every archive and (via PluginTemplateManager) the plugin.
func Execute(ctx context.Context, plan Plan, stagingDir, outDir, baseName string, builder archivebuild.Builder, game gamedir.Kind, reporter progress.Reporter) ([]string, error) {
	reporter = progress.OrNoop(reporter)

	ext := game.ArchiveExtension()
	var produced []string

	for idx, spec := range plan {
		reporter.ChunkStarted(idx)

		chunkStageDir := filepath.Join(stagingDir, fmt.Sprintf("chunk-%d", idx))
		for _, member := range spec.Members {
			dest := filepath.Join(chunkStageDir, filepath.FromSlash(string(member.RelPath)))
			if err := fsutil.CopyOrLinkFile(member.SourcePath, dest); err != nil {
				return produced, &Error{Reason: fmt.Sprintf("unable to stage %s: %v", member.RelPath, err), ProducedArchives: produced}
			}
		}

		name := ChunkFileName(baseName, ext, idx, len(plan))
		outputPath := filepath.Join(outDir, name)
		if err := builder.Build(ctx, chunkStageDir, outputPath, game); err != nil {
			return produced, &Error{Reason: err.Error(), ProducedArchives: produced, cause: err}
		}

		reporter.ArchiveBuilt(outputPath)
		reporter.ChunkFinished(idx)
		produced = append(produced, outputPath)
	}

	if err := verifyIntegrity(plan, produced); err != nil {
		return produced, err
	}

	return produced, nil
}

// verifyIntegrity checks the post-execution invariants from spec.md §4.5:
// one archive was produced per chunk, every produced archive exists and is
// non-empty, and no member RelPath appears in more than one chunk. It sees
// only the plan, not the original pack set, so it does not detect a pack
// entry that is missing from every chunk.
func verifyIntegrity(plan Plan, produced []string) error {
	if len(produced) != len(plan) {
		return &Error{Reason: fmt.Sprintf("expected %d archives, produced %d", len(plan), len(produced)), ProducedArchives: produced}
	}

	for _, path := range produced {
		info, err := os.Stat(path)
		if err != nil {
			return &Error{Reason: fmt.Sprintf("archive %s does not exist: %v", path, err), ProducedArchives: produced}
		}
		if info.Size() == 0 {
			return &Error{Reason: fmt.Sprintf("archive %s is empty", path), ProducedArchives: produced}
		}
	}

	seen := make(map[string]struct{})
	for _, spec := range plan {
		for _, member := range spec.Members {
			key := member.RelPath.Key()
			if _, dup := seen[key]; dup {
				return &Error{Reason: fmt.Sprintf("duplicate member path %s across chunks", member.RelPath), ProducedArchives: produced}
			}
			seen[key] = struct{}{}
		}
	}

	return nil
}
