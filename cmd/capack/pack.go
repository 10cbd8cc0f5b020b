package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caoforge/capack/cmd"
	"github.com/caoforge/capack/pkg/config"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/packager"
)

var packCommand = &cobra.Command{
	Use:   "pack <generated-root> <reference-root> <out-dir>",
	Short: "Classify and package a single mod's generated assets",
	Args:  cobra.ExactArgs(3),
	Run:   cmd.Mainify(packMain),
}

var packConfiguration struct {
	configPath string
	game       string
	modName    string
	dryRun     bool
	debug      bool
}

func init() {
	flags := packCommand.Flags()
	flags.StringVar(&packConfiguration.configPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&packConfiguration.game, "game", "", "Target game: skyrim or fallout4")
	flags.StringVar(&packConfiguration.modName, "name", "", "Mod name, used as the plugin and archive stem")
	flags.BoolVar(&packConfiguration.dryRun, "dry-run", false, "Classify and plan chunks without building any output")
	flags.BoolVar(&packConfiguration.debug, "debug", false, "Enable debug logging")
}

func packMain(command *cobra.Command, arguments []string) error {
	generatedRoot, referenceRoot, outDir := arguments[0], arguments[1], arguments[2]

	cfg, err := loadConfiguration(packConfiguration.configPath)
	if err != nil {
		return err
	}
	if packConfiguration.game != "" {
		kind, ok := gamedir.ParseKind(packConfiguration.game)
		if !ok {
			return fmt.Errorf("unknown game: %q", packConfiguration.game)
		}
		cfg.Game = kind
	}
	if packConfiguration.modName != "" {
		cfg.ModName = packConfiguration.modName
	}
	if packConfiguration.dryRun {
		cfg.DryRun = true
	}
	if cfg.Game == gamedir.KindUnknown {
		return fmt.Errorf("no game specified: pass --game or set it in the configuration file")
	}
	if cfg.ModName == "" {
		return fmt.Errorf("no mod name specified: pass --name or set it in the configuration file")
	}

	logger := newCLILogger(packConfiguration.debug)
	scanner := newScanner()
	hasher := newHasher()
	archiveBuilder := buildArchiveBuilder(cfg.Game)
	pluginManager := newPluginManager(cfg.PluginTemplateOverride, cfg.PluginTemplateOverrideExtension)

	p := packager.New(scanner, hasher, archiveBuilder, pluginManager, logger)

	result, err := p.BuildPackage(context.Background(), generatedRoot, referenceRoot, "", outDir, cfg.Game, cfg.ModName, cfg, nil)
	if err != nil {
		return err
	}

	pack, loose, skip, errs := result.Classification.Counts()
	logger.Printf("pack=%d loose=%d skip=%d errors=%d", pack, loose, skip, errs)
	if result.PackedArchive != "" {
		logger.Printf("packed archive: %s", result.PackedArchive)
	}
	if result.LooseArchive != "" {
		logger.Printf("loose archive: %s", result.LooseArchive)
	}
	if result.CombinedArchive != "" {
		logger.Printf("combined archive: %s", result.CombinedArchive)
	}

	return nil
}

// loadConfiguration loads a YAML configuration from path if non-empty, or
// returns a zero-value Configuration otherwise. A missing file is an error
// only when a path was explicitly requested.
func loadConfiguration(path string) (config.Configuration, error) {
	if path == "" {
		return config.Configuration{}, nil
	}
	return config.Load(path)
}
