package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caoforge/capack/cmd"
	"github.com/caoforge/capack/pkg/batch"
	"github.com/caoforge/capack/pkg/gamedir"
)

var batchCommand = &cobra.Command{
	Use:   "batch <collection-root> <reference-root> <out-dir>",
	Short: "Discover mods under a collection root and package each one",
	Args:  cobra.ExactArgs(3),
	Run:   cmd.Mainify(batchMain),
}

var batchConfiguration struct {
	configPath  string
	game        string
	concurrency int
	debug       bool
}

func init() {
	flags := batchCommand.Flags()
	flags.StringVar(&batchConfiguration.configPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&batchConfiguration.game, "game", "", "Target game: skyrim or fallout4")
	flags.IntVar(&batchConfiguration.concurrency, "concurrency", 0, "Number of mods to process concurrently (default: min(4, cores))")
	flags.BoolVar(&batchConfiguration.debug, "debug", false, "Enable debug logging")
}

func batchMain(command *cobra.Command, arguments []string) error {
	collectionRoot, referenceRoot, outDir := arguments[0], arguments[1], arguments[2]

	cfg, err := loadConfiguration(batchConfiguration.configPath)
	if err != nil {
		return err
	}
	if batchConfiguration.game != "" {
		kind, ok := gamedir.ParseKind(batchConfiguration.game)
		if !ok {
			return fmt.Errorf("unknown game: %q", batchConfiguration.game)
		}
		cfg.Game = kind
	}
	if batchConfiguration.concurrency > 0 {
		cfg.BatchConcurrency = batchConfiguration.concurrency
	}
	if cfg.Game == gamedir.KindUnknown {
		return fmt.Errorf("no game specified: pass --game or set it in the configuration file")
	}

	logger := newCLILogger(batchConfiguration.debug)
	scanner := newScanner()
	hasher := newHasher()
	archiveBuilder := buildArchiveBuilder(cfg.Game)
	pluginManager := newPluginManager(cfg.PluginTemplateOverride, cfg.PluginTemplateOverrideExtension)

	orchestrator := batch.New(scanner, hasher, archiveBuilder, pluginManager, logger)

	report, err := orchestrator.ProcessCollection(context.Background(), collectionRoot, referenceRoot, "", outDir, cfg.Game, cfg, nil)
	if err != nil {
		return err
	}

	logger.Printf("processed=%d skipped=%d failed=%d", report.Processed, report.Skipped, report.Failed)
	for _, mod := range report.Mods {
		if mod.Status == batch.StatusSkipped {
			logger.Printf("%s: skipped (%s)", mod.Name, mod.SkipReason)
		} else if mod.Status == batch.StatusFailed {
			logger.Warnf("%s: failed: %s", mod.Name, mod.Error)
		}
	}

	return nil
}
