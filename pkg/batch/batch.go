// Package batch implements the BatchOrchestrator: it discovers candidate
// mods under a collection root via pkg/discover and runs the Packager over
// each one with bounded concurrency and per-mod isolation, mirroring the
// teacher's pattern of a top-level driver fanning work out across a
// dedicated, separately sized worker pool (pkg/parallelism.SIMDWorkerArray
// generalized the same way pkg/workerpool generalizes it for the
// Classifier, but sized independently per spec.md §5's "batch mode reduces
// the inner classifier width" guidance).
package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/caoforge/capack/pkg/archivebuild"
	"github.com/caoforge/capack/pkg/config"
	"github.com/caoforge/capack/pkg/discover"
	"github.com/caoforge/capack/pkg/fingerprint"
	"github.com/caoforge/capack/pkg/fsutil"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/logging"
	"github.com/caoforge/capack/pkg/packager"
	"github.com/caoforge/capack/pkg/plugintemplate"
	"github.com/caoforge/capack/pkg/progress"
	"github.com/caoforge/capack/pkg/stage"
	"github.com/caoforge/capack/pkg/workerpool"
)

// Status is the per-mod outcome recorded in a BatchReport.
type Status string

const (
	// StatusOK indicates the mod's packager run completed, though the
	// packed or loose side may individually carry a warning.
	StatusOK Status = "ok"
	// StatusSkipped indicates the mod was never handed to the Packager
	// (e.g. no plugin candidate was found during discovery).
	StatusSkipped Status = "skipped"
	// StatusFailed indicates the Packager run itself returned an error.
	StatusFailed Status = "failed"
)

// ModReport is the outcome of processing a single discovered mod.
type ModReport struct {
	Name          string             `json:"name"`
	Status        Status             `json:"status"`
	SkipReason    string             `json:"skip_reason,omitempty"`
	Error         string             `json:"error,omitempty"`
	PackCount     int                `json:"pack_count"`
	LooseCount    int                `json:"loose_count"`
	SkipCount     int                `json:"skip_count"`
	ErrorCount    int                `json:"error_count"`
	PackedArchive   string   `json:"packed_archive,omitempty"`
	LooseArchive    string   `json:"loose_archive,omitempty"`
	CombinedArchive string   `json:"combined_archive,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Report is the aggregate outcome of a single process_collection run,
// written to {outRoot}/batch_report.json per spec.md §6.
type Report struct {
	CollectionRoot string      `json:"collection_root"`
	CreatedAt      time.Time   `json:"created_at"`
	Mods           []ModReport `json:"mods"`
	Processed      int         `json:"processed"`
	Skipped        int         `json:"skipped"`
	Failed         int         `json:"failed"`
}

// Orchestrator discovers mods under a collection root and runs the
// Packager over each one.
type Orchestrator struct {
	scanner        *gamedir.Scanner
	hasher         *fingerprint.Hasher
	archiveBuilder archivebuild.Builder
	pluginManager  *plugintemplate.Manager
	logger         *logging.Logger
}

// orphanStagingAge is how old an abandoned capack-stage- directory must be
// before New sweeps it, per SPEC_FULL.md §6's housekeeping requirement.
const orphanStagingAge = 24 * time.Hour

// New creates an Orchestrator. logger may be nil. As a side effect, New
// sweeps os.TempDir() for orphaned staging roots, mirroring
// packager.New: ProcessCollection's stagingParent is caller-supplied and
// per-mod staging lives under it, but an interrupted run can still leave a
// root behind under the OS temp directory used by ad hoc single-mod
// Packager calls, so the same sweep runs here.
func New(scanner *gamedir.Scanner, hasher *fingerprint.Hasher, archiveBuilder archivebuild.Builder, pluginManager *plugintemplate.Manager, logger *logging.Logger) *Orchestrator {
	stage.SweepOrphans(os.TempDir(), orphanStagingAge)
	return &Orchestrator{
		scanner:        scanner,
		hasher:         hasher,
		archiveBuilder: archiveBuilder,
		pluginManager:  pluginManager,
		logger:         logger,
	}
}

// ProcessCollection discovers every candidate mod under collectionRoot and
// runs the Packager over each, bounded by cfg.BatchConcurrency. referenceRoot
// is shared read-only across every mod in the batch. Per-mod staging roots
// are distinct subdirectories of stagingParent, so concurrent runs never
// overlap.
func (o *Orchestrator) ProcessCollection(ctx context.Context, collectionRoot, referenceRoot, stagingParent, outRoot string, game gamedir.Kind, cfg config.Configuration, reporter progress.Reporter) (*Report, error) {
	reporter = progress.OrNoop(reporter)
	cfg = cfg.WithDefaults()

	mods, err := discover.Collection(collectionRoot)
	if err != nil {
		return nil, errors.Wrap(err, "unable to discover collection")
	}

	report := &Report{CollectionRoot: collectionRoot, CreatedAt: time.Now(), Mods: make([]ModReport, len(mods))}

	var processable []int
	for i, mod := range mods {
		if mod.SkipReason != "" {
			report.Mods[i] = ModReport{Name: mod.Name, Status: StatusSkipped, SkipReason: mod.SkipReason}
			if o.logger != nil {
				o.logger.Warnf("skipping %s: %s", mod.Name, mod.SkipReason)
			}
			continue
		}
		processable = append(processable, i)
	}

	concurrency := cfg.BatchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	runErr := workerpool.Run(ctx, concurrency, processable, func(ctx context.Context, i int) error {
		mod := mods[i]

		p := packager.New(o.scanner, o.hasher, o.archiveBuilder, o.pluginManager, o.logger)
		modStagingParent := filepath.Join(stagingParent, mod.Name)
		if err := os.MkdirAll(modStagingParent, 0755); err != nil {
			mu.Lock()
			report.Mods[i] = ModReport{Name: mod.Name, Status: StatusFailed, Error: err.Error()}
			mu.Unlock()
			return nil
		}

		assetRoot, err := stageAssetSubtree(mod, modStagingParent)
		if err != nil {
			mu.Lock()
			report.Mods[i] = ModReport{Name: mod.Name, Status: StatusFailed, Error: err.Error()}
			mu.Unlock()
			return nil
		}

		result, err := p.BuildPackage(ctx, assetRoot, referenceRoot, modStagingParent, filepath.Join(outRoot, mod.Name), game, mod.Name, cfg, reporter)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Mods[i] = ModReport{Name: mod.Name, Status: StatusFailed, Error: err.Error()}
			return nil
		}

		pack, loose, skip, errs := result.Classification.Counts()
		report.Mods[i] = ModReport{
			Name:            mod.Name,
			Status:          StatusOK,
			PackCount:       pack,
			LooseCount:      loose,
			SkipCount:       skip,
			ErrorCount:      errs,
			PackedArchive:   result.PackedArchive,
			LooseArchive:    result.LooseArchive,
			CombinedArchive: result.CombinedArchive,
			Warnings:        result.Metadata.Warnings,
		}
		return nil
	})
	if runErr != nil {
		return report, errors.Wrap(runErr, "batch processing failed")
	}

	for _, m := range report.Mods {
		switch m.Status {
		case StatusSkipped:
			report.Skipped++
		case StatusFailed:
			report.Failed++
		case StatusOK:
			report.Processed++
		}
	}

	if err := writeReport(outRoot, report); err != nil {
		return report, errors.Wrap(err, "unable to write batch report")
	}

	return report, nil
}

// stageAssetSubtree materializes mod's asset-bearing subtree (excluding its
// plugin and junk files, per spec.md §4.10's discovery contract) under
// modStagingParent/assets, returning that directory's path for use as the
// Packager's generatedRoot. Classification must never see the plugin file
// itself or junk files as pack/loose/skip candidates.
func stageAssetSubtree(mod discover.Mod, modStagingParent string) (string, error) {
	assetRoot := filepath.Join(modStagingParent, "assets")
	for _, relative := range mod.AssetFiles {
		src := filepath.Join(mod.Root, filepath.FromSlash(relative))
		dst := filepath.Join(assetRoot, filepath.FromSlash(relative))
		if err := fsutil.CopyOrLinkFile(src, dst); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(assetRoot, 0755); err != nil {
		return "", err
	}
	return assetRoot, nil
}

func writeReport(outRoot string, report *Report) error {
	if err := os.MkdirAll(outRoot, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outRoot, "batch_report.json"), data, 0644)
}
