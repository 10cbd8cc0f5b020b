package main

import (
	"os"

	"github.com/caoforge/capack/pkg/archivebuild"
	"github.com/caoforge/capack/pkg/archivebuild/bsarch"
	"github.com/caoforge/capack/pkg/archivebuild/sevenzip"
	"github.com/caoforge/capack/pkg/fingerprint"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/logging"
	"github.com/caoforge/capack/pkg/plugintemplate"
)

// buildArchiveBuilder constructs the default ArchiveBuilder chain: BSArch
// first, falling back to a 7-Zip-based wrapper configured for the given
// game's native archive extension, per spec.md §4.12.
func buildArchiveBuilder(game gamedir.Kind) archivebuild.Builder {
	archiveType := game.ArchiveExtension()
	return archivebuild.NewChain(
		bsarch.New(),
		sevenzip.New(archiveType),
	)
}

func newScanner() *gamedir.Scanner {
	return gamedir.NewScanner()
}

func newHasher() *fingerprint.Hasher {
	return fingerprint.New(nil)
}

func newPluginManager(override, overrideExtension string) *plugintemplate.Manager {
	manager := plugintemplate.New()
	manager.Override = override
	manager.OverrideExtension = overrideExtension
	return manager
}

func newCLILogger(debug bool) *logging.Logger {
	level := logging.LevelInfo
	if debug {
		level = logging.LevelDebug
	}
	return logging.NewLogger(level, os.Stdout)
}
