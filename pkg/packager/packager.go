// Package packager orchestrates classification, chunking, plugin emission,
// and bundle compression into the final distributable package layout for a
// single mod: Classify -> Chunk -> PluginTemplate -> Compress, followed by
// metadata emission, mirroring the teacher's pattern of a single top-level
// driver that owns a staging tree and threads a logger and cancellation
// token down through every phase (pkg/synchronization/core as the nearest
// analogue of a top-level orchestrator in the teacher).
package packager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/caoforge/capack/pkg/archivebuild"
	"github.com/caoforge/capack/pkg/bundle"
	"github.com/caoforge/capack/pkg/chunk"
	"github.com/caoforge/capack/pkg/classify"
	"github.com/caoforge/capack/pkg/config"
	"github.com/caoforge/capack/pkg/fingerprint"
	"github.com/caoforge/capack/pkg/fsutil"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/logging"
	"github.com/caoforge/capack/pkg/plugintemplate"
	"github.com/caoforge/capack/pkg/progress"
	"github.com/caoforge/capack/pkg/stage"
)

// spaceSafetyFactor is the multiple of the generated root's size that must
// be free on the output filesystem before classification begins, per
// spec.md §5's disk-space safety heuristic (staging + pack archive + loose
// archive, with headroom).
const spaceSafetyFactor = 3

// InsufficientSpace is a pre-flight fatal error: the target filesystem does
// not have enough free space to safely stage and build the package. It is
// reported before any copies begin.
type InsufficientSpace struct {
	Required  uint64
	Available uint64
	Path      string
}

// Error implements the error interface.
func (e *InsufficientSpace) Error() string {
	return fmt.Sprintf("insufficient space at %s: need %d bytes, have %d", e.Path, e.Required, e.Available)
}

// RunMetadata is the machine-readable descriptor written to
// Metadata/package_info.json.
type RunMetadata struct {
	ModName    string    `json:"mod_name"`
	Game       string    `json:"game"`
	ChunkCount int       `json:"chunk_count"`
	PackCount  int       `json:"pack_count"`
	LooseCount int       `json:"loose_count"`
	SkipCount  int       `json:"skip_count"`
	ErrorCount int       `json:"error_count"`
	CreatedAt  time.Time `json:"created_at"`
	PackedOK   bool      `json:"packed_ok"`
	LooseOK    bool      `json:"loose_ok"`
	// Combined is true when cfg.SeparateComponentsEnabled() was false and
	// the packed/loose sides were merged into a single legacy container.
	Combined bool     `json:"combined"`
	Warnings []string `json:"warnings"`
}

// Result is the outcome of a single BuildPackage invocation. The package is
// all-or-nothing with respect to the packed side only: a failed packed side
// does not prevent a successful loose side, per spec.md §4.9.
type Result struct {
	Classification *classify.Result
	Plan           chunk.Plan
	PackedArchive  string // path to {mod_name}_Packed.zip, empty if not produced
	LooseArchive   string // path to {mod_name}_Loose.zip, empty if not produced
	// CombinedArchive is the path to {mod_name}.zip, the single legacy
	// container produced when cfg.SeparateComponentsEnabled() is false.
	// Mutually exclusive with PackedArchive/LooseArchive: at most one of
	// (PackedArchive and/or LooseArchive) or CombinedArchive is populated,
	// and none is on a dry run or when no container was produced.
	CombinedArchive string
	Metadata        RunMetadata
	OutputDir       string
	Cancelled       bool
	DryRun          bool
}

// Packager builds a single mod's distributable package.
type Packager struct {
	scanner        *gamedir.Scanner
	hasher         *fingerprint.Hasher
	archiveBuilder archivebuild.Builder
	pluginManager  *plugintemplate.Manager
	logger         *logging.Logger
}

// orphanStagingAge is how old an abandoned capack-stage- directory must be
// before New sweeps it, per SPEC_FULL.md §6's housekeeping requirement.
const orphanStagingAge = 24 * time.Hour

// New creates a Packager. scanner, hasher, archiveBuilder, and pluginManager
// must not be nil; logger may be nil. As a side effect, New sweeps
// os.TempDir() for orphaned staging roots left behind by a prior run that
// did not clean up (crash, kill -9). An empty stagingParent passed to
// BuildPackage (as the pack command does) defaults to os.TempDir(); staging
// roots under any other parent, such as the per-mod directories the batch
// orchestrator passes, are not swept here.
func New(scanner *gamedir.Scanner, hasher *fingerprint.Hasher, archiveBuilder archivebuild.Builder, pluginManager *plugintemplate.Manager, logger *logging.Logger) *Packager {
	stage.SweepOrphans(os.TempDir(), orphanStagingAge)
	return &Packager{
		scanner:        scanner,
		hasher:         hasher,
		archiveBuilder: archiveBuilder,
		pluginManager:  pluginManager,
		logger:         logger,
	}
}

// BuildPackage runs the full pipeline for a single mod and writes its
// output under {outRoot}/{modName}_Package/, per spec.md §6's output layout
// contract. stagingParent is the parent directory under which a uniquely
// named staging root is created and removed when cfg.CleanupStagingEnabled.
func (p *Packager) BuildPackage(ctx context.Context, generatedRoot, referenceRoot, stagingParent, outRoot string, game gamedir.Kind, modName string, cfg config.Configuration, reporter progress.Reporter) (*Result, error) {
	reporter = progress.OrNoop(reporter)
	cfg = cfg.WithDefaults()

	if err := config.EnsureModNameValid(modName); err != nil {
		return nil, errors.Wrap(err, "invalid mod name")
	}

	outputDir := filepath.Join(outRoot, modName+"_Package")

	if !cfg.DryRun {
		// Pre-flight: spec.md §7 requires NoArchiveBuilderAvailable to be
		// fatal before any work begins, never surfaced mid-run. Scenario D
		// (§8) requires no files written and no staging created when every
		// backend is unavailable, so this must run before checkSpace and
		// stage.New, both of which touch disk.
		if !p.archiveBuilder.Available() {
			return nil, &archivebuild.ErrNoArchiveBuilderAvailable{Attempted: []string{p.archiveBuilder.Name()}}
		}
		if err := checkSpace(generatedRoot, outRoot); err != nil {
			return nil, err
		}
	}

	root, err := stage.New(stagingParent)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create staging root")
	}
	if cfg.CleanupStagingEnabled() {
		defer root.Close()
	}

	classifier := classify.New(p.scanner, p.hasher, p.logger)
	classification, err := classifier.Classify(ctx, generatedRoot, referenceRoot, game, cfg.Threads, reporter)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Classification: classification,
		OutputDir:      outputDir,
		Cancelled:      classification.Cancelled,
		DryRun:         cfg.DryRun,
	}

	pack, loose, skip, errCount := classification.Counts()
	metadata := RunMetadata{
		ModName:    modName,
		Game:       game.String(),
		PackCount:  pack,
		LooseCount: loose,
		SkipCount:  skip,
		ErrorCount: errCount,
		CreatedAt:  time.Now(),
	}

	if cfg.DryRun {
		if pack > 0 {
			result.Plan = chunk.PlanChunks(classification.Pack, int64(cfg.ChunkSizeBytes))
			metadata.ChunkCount = len(result.Plan)
		}
		result.Metadata = metadata
		return result, nil
	}

	if classification.Cancelled {
		result.Metadata = metadata
		return result, nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return result, errors.Wrap(err, "unable to create output directory")
	}

	var packedStageDir, looseStageDir string
	packedReady := false

	if pack > 0 {
		plan := chunk.PlanChunks(classification.Pack, int64(cfg.ChunkSizeBytes))
		result.Plan = plan
		metadata.ChunkCount = len(plan)

		archivePaths, pluginPath, buildErr := p.buildPackedSide(ctx, plan, root, modName, game, reporter)
		if buildErr != nil {
			cleanupArchives(archivePaths)
			if pluginPath != "" {
				os.Remove(pluginPath)
			}

			// NoArchiveBuilderAvailable is pre-flight fatal per spec.md §7:
			// even if Available() held at the top of BuildPackage, a backend
			// that drops out between then and here must not be swallowed
			// into a packed-side warning.
			var noBuilder *archivebuild.ErrNoArchiveBuilderAvailable
			if errors.As(buildErr, &noBuilder) {
				result.Metadata = metadata
				return result, buildErr
			}

			p.logger.Warn(errors.Wrap(buildErr, "packed side failed"))
			metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("packed side failed: %v", buildErr))
		} else {
			packedStageDir = root.Join("packed")
			packedReady = true
		}
	}

	if loose > 0 {
		stageDir, err := p.stageLooseSide(classification.Loose, root)
		if err != nil {
			metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("loose side failed: %v", err))
		} else {
			looseStageDir = stageDir
		}
	}

	if cfg.SeparateComponentsEnabled() {
		p.compressSeparately(packedReady, packedStageDir, looseStageDir, outputDir, modName, cfg, reporter, result, &metadata)
	} else {
		p.compressCombined(packedReady, packedStageDir, looseStageDir, outputDir, modName, cfg, reporter, result, &metadata)
	}

	result.Metadata = metadata
	if err := writeMetadata(outputDir, metadata, classification); err != nil {
		return result, errors.Wrap(err, "unable to write metadata")
	}

	return result, nil
}

// buildPackedSide runs chunking, archive building, and plugin emission under
// {staging}/packed/, returning the produced archive paths (for cleanup on
// failure), the emitted plugin path, and any error. Per spec.md §4.9's
// failure semantics, a failure here must not touch the loose side.
func (p *Packager) buildPackedSide(ctx context.Context, plan chunk.Plan, root *stage.Root, modName string, game gamedir.Kind, reporter progress.Reporter) ([]string, string, error) {
	packedStageDir := root.Join("packed")
	if err := os.MkdirAll(packedStageDir, 0755); err != nil {
		return nil, "", err
	}

	archivePaths, err := chunk.Execute(ctx, plan, root.Join("chunks"), packedStageDir, modName, p.archiveBuilder, game, reporter)
	if err != nil {
		return archivePaths, "", err
	}

	pluginPath, err := p.pluginManager.Emit(game, modName, packedStageDir)
	if err != nil {
		return archivePaths, "", err
	}

	return archivePaths, pluginPath, nil
}

// stageLooseSide stages every loose entry under {staging}/loose/ preserving
// RelPaths, returning that directory for compression. It is independent of
// the packed side: a failure here never touches packed artifacts, and vice
// versa, per spec.md §4.9's failure semantics.
func (p *Packager) stageLooseSide(entries []classify.Entry, root *stage.Root) (string, error) {
	looseStageDir := root.Join("loose")
	for _, entry := range entries {
		dest := filepath.Join(looseStageDir, filepath.FromSlash(string(entry.RelPath)))
		if err := fsutil.CopyOrLinkFile(entry.SourcePath, dest); err != nil {
			return "", err
		}
	}
	return looseStageDir, nil
}

// compressSeparately implements the default (separate_components: on)
// layout: the packed and loose sides are compressed into two independent
// containers, per spec.md §4.9's separate-components policy.
func (p *Packager) compressSeparately(packedReady bool, packedStageDir, looseStageDir, outputDir, modName string, cfg config.Configuration, reporter progress.Reporter, result *Result, metadata *RunMetadata) {
	if packedReady {
		members, memberErr := bundle.MembersFromDirectory(packedStageDir)
		if memberErr != nil {
			metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("packed side failed: %v", memberErr))
		} else {
			packedArchivePath := filepath.Join(outputDir, fmt.Sprintf("%s_Packed.zip", modName))
			if compressErr := bundle.New(cfg.CompressionLevel).Compress(members, packedArchivePath); compressErr != nil {
				metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("packed side failed: %v", compressErr))
			} else {
				result.PackedArchive = packedArchivePath
				metadata.PackedOK = true
				reporter.Compressed(packedArchivePath)
			}
		}
	}

	if looseStageDir != "" {
		members, memberErr := bundle.MembersFromDirectory(looseStageDir)
		if memberErr != nil {
			metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("loose side failed: %v", memberErr))
			return
		}
		looseArchivePath := filepath.Join(outputDir, fmt.Sprintf("%s_Loose.zip", modName))
		if compressErr := bundle.New(cfg.CompressionLevel).Compress(members, looseArchivePath); compressErr != nil {
			metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("loose side failed: %v", compressErr))
		} else {
			result.LooseArchive = looseArchivePath
			metadata.LooseOK = true
			reporter.Compressed(looseArchivePath)
		}
	}
}

// compressCombined implements the legacy (separate_components: off) layout:
// whichever of the packed/loose stage directories are ready are merged into
// a single {mod_name}.zip container, per spec.md §6's documented
// "single container" effect for this option.
func (p *Packager) compressCombined(packedReady bool, packedStageDir, looseStageDir, outputDir, modName string, cfg config.Configuration, reporter progress.Reporter, result *Result, metadata *RunMetadata) {
	var members []bundle.Member
	packedIncluded, looseIncluded := false, false

	if packedReady {
		packedMembers, memberErr := bundle.MembersFromDirectory(packedStageDir)
		if memberErr != nil {
			metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("packed side failed: %v", memberErr))
		} else {
			members = append(members, packedMembers...)
			packedIncluded = true
		}
	}

	if looseStageDir != "" {
		looseMembers, memberErr := bundle.MembersFromDirectory(looseStageDir)
		if memberErr != nil {
			metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("loose side failed: %v", memberErr))
		} else {
			members = append(members, looseMembers...)
			looseIncluded = true
		}
	}

	if len(members) == 0 {
		return
	}

	combinedPath := filepath.Join(outputDir, fmt.Sprintf("%s.zip", modName))
	if compressErr := bundle.New(cfg.CompressionLevel).Compress(members, combinedPath); compressErr != nil {
		metadata.Warnings = append(metadata.Warnings, fmt.Sprintf("combined container failed: %v", compressErr))
		return
	}

	result.CombinedArchive = combinedPath
	metadata.PackedOK = packedIncluded
	metadata.LooseOK = looseIncluded
	metadata.Combined = true
	reporter.Compressed(combinedPath)
}

// cleanupArchives removes any archives that were produced before a later
// phase failed, per spec.md §4.9 phase 6's best-effort cleanup policy.
func cleanupArchives(paths []string) {
	for _, path := range paths {
		os.Remove(path)
	}
}

// checkSpace estimates required free space as 3x the generated root's size
// and compares it against the available space on the filesystem containing
// outRoot, failing fast before any copies begin.
func checkSpace(generatedRoot, outRoot string) error {
	size, err := fsutil.DirSize(generatedRoot)
	if err != nil {
		return errors.Wrap(err, "unable to measure generated root size")
	}

	if err := os.MkdirAll(outRoot, 0755); err != nil {
		return errors.Wrap(err, "unable to create output directory")
	}

	available, err := fsutil.AvailableSpace(outRoot)
	if err != nil {
		return errors.Wrap(err, "unable to query available space")
	}

	required := uint64(size) * spaceSafetyFactor
	if available < required {
		return &InsufficientSpace{Required: required, Available: available, Path: outRoot}
	}
	return nil
}

// writeMetadata writes the Metadata/ directory: INSTALLATION.txt,
// SUMMARY.txt, package_info.json, and build_log.txt, per spec.md §4.9 phase
// 5 and §6's output layout.
func writeMetadata(outputDir string, metadata RunMetadata, classification *classify.Result) error {
	metadataDir := filepath.Join(outputDir, "Metadata")
	if err := os.MkdirAll(metadataDir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(metadataDir, "INSTALLATION.txt"), []byte(installationText(metadata)), 0644); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(metadataDir, "SUMMARY.txt"), []byte(summaryText(metadata, classification)), 0644); err != nil {
		return err
	}

	descriptor, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(metadataDir, "package_info.json"), descriptor, 0644); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(metadataDir, "build_log.txt"), []byte(buildLogText(metadata)), 0644); err != nil {
		return err
	}

	return nil
}

// installationText renders plain-text installation instructions, UTF-8
// with LF line endings and no escaped-backslash artifacts, per spec.md
// §6's output layout contract.
func installationText(metadata RunMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Installation instructions for %s\n\n", metadata.ModName)
	if metadata.Combined {
		if metadata.PackedOK || metadata.LooseOK {
			fmt.Fprintf(&b, "1. Install %s.zip with your mod manager.\n", metadata.ModName)
		} else {
			b.WriteString("No installable containers were produced for this run; see build_log.txt.\n")
		}
		return b.String()
	}
	if metadata.PackedOK {
		fmt.Fprintf(&b, "1. Install %s_Packed.zip with your mod manager.\n", metadata.ModName)
	}
	if metadata.LooseOK {
		fmt.Fprintf(&b, "2. Install %s_Loose.zip with your mod manager, after the packed container so its loose files take priority.\n", metadata.ModName)
	}
	if !metadata.PackedOK && !metadata.LooseOK {
		b.WriteString("No installable containers were produced for this run; see build_log.txt.\n")
	}
	return b.String()
}

// summaryText renders a human-readable run summary.
func summaryText(metadata RunMetadata, classification *classify.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", metadata.ModName, metadata.Game)
	fmt.Fprintf(&b, "pack=%d loose=%d skip=%d errors=%d chunks=%d\n",
		metadata.PackCount, metadata.LooseCount, metadata.SkipCount, metadata.ErrorCount, metadata.ChunkCount)
	for _, w := range metadata.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	for _, e := range classification.Errors {
		fmt.Fprintf(&b, "error: %s: %s\n", e.RelPath, e.Reason)
	}
	return b.String()
}

// buildLogText renders the per-run log referenced by spec.md §4.9 phase 5.
func buildLogText(metadata RunMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "build started %s\n", metadata.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "packed_ok=%v loose_ok=%v combined=%v\n", metadata.PackedOK, metadata.LooseOK, metadata.Combined)
	for _, w := range metadata.Warnings {
		fmt.Fprintf(&b, "%s\n", w)
	}
	return b.String()
}
