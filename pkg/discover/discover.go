// Package discover implements the BatchOrchestrator's mod-discovery pass:
// treating each immediate subdirectory of a collection root as a candidate
// mod, locating its plugin file, and enumerating its asset-bearing subtree
// while filtering out junk files.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// junkPatterns are glob patterns (matched against the base file name,
// lowercased) identifying files that are never part of a mod's asset
// subtree, grounded on the same doublestar glob-matching library the
// teacher uses for its own ignore-pattern matching in
// pkg/synchronization/core/ignore.
var junkPatterns = []string{
	".ds_store",
	"thumbs.db",
	"desktop.ini",
	"*.tmp",
	"*.bak",
	".*",
}

// pluginExtensions are the file extensions (with leading dot, lowercase)
// that qualify a file as a plugin candidate.
var pluginExtensions = map[string]bool{
	".esp": true,
	".esl": true,
	".esm": true,
}

// IsJunk reports whether name (a base file name, not a path) matches one of
// the junk patterns and should be excluded from a mod's asset subtree.
func IsJunk(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range junkPatterns {
		if matched, _ := doublestar.Match(pattern, lower); matched {
			return true
		}
	}
	return false
}

// IsPlugin reports whether name (a base file name) has a plugin extension.
func IsPlugin(name string) bool {
	return pluginExtensions[strings.ToLower(filepath.Ext(name))]
}

// Mod describes a discovered candidate mod folder.
type Mod struct {
	// Name is the mod's directory name, used as the default ModName.
	Name string
	// Root is the absolute path to the mod's directory.
	Root string
	// PluginCandidates are the plugin files found directly under Root,
	// sorted lexicographically.
	PluginCandidates []string
	// SkipReason is non-empty if the mod cannot be processed (e.g. no
	// plugin candidates found); in that case AssetFiles is not populated.
	SkipReason string
	// AssetFiles are the non-plugin, non-junk files discovered under Root,
	// relative to Root, forward-slash delimited.
	AssetFiles []string
}

// SelectedPlugin returns the mod's selected plugin candidate: the
// lexicographically first one, per spec.md §4.10's default selection
// policy.
func (m Mod) SelectedPlugin() string {
	if len(m.PluginCandidates) == 0 {
		return ""
	}
	return m.PluginCandidates[0]
}

// Collection discovers every candidate mod under collectionRoot: each
// immediate subdirectory is treated as a candidate, a plugin file is
// located, and the asset-bearing subtree is enumerated.
func Collection(collectionRoot string) ([]Mod, error) {
	entries, err := os.ReadDir(collectionRoot)
	if err != nil {
		return nil, err
	}

	var mods []Mod
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		mod, err := discoverMod(collectionRoot, entry.Name())
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}

	return mods, nil
}

func discoverMod(collectionRoot, name string) (Mod, error) {
	root := filepath.Join(collectionRoot, name)
	mod := Mod{Name: name, Root: root}

	var plugins []string
	var assets []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := d.Name()
		if IsPlugin(base) {
			relative, relErr := filepath.Rel(root, path)
			if relErr == nil && !strings.Contains(relative, string(filepath.Separator)) {
				plugins = append(plugins, base)
			}
			return nil
		}
		if IsJunk(base) {
			return nil
		}
		relative, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		assets = append(assets, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return Mod{}, err
	}

	sort.Strings(plugins)
	mod.PluginCandidates = plugins

	if len(plugins) == 0 {
		mod.SkipReason = "no plugin"
		return mod, nil
	}

	sort.Strings(assets)
	mod.AssetFiles = assets
	return mod, nil
}
