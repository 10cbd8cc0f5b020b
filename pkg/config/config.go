// Package config defines the configuration surface from spec.md §6 and
// loads it from human-readable YAML, mirroring the teacher's
// pkg/configuration + pkg/encoding combination.
package config

import (
	"runtime"
	"unicode"

	"github.com/pkg/errors"

	"github.com/caoforge/capack/pkg/encoding"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/logging"
)

// Configuration is the full set of options recognized by the pipeline, per
// spec.md §6. Every field has a sensible zero value or is defaulted by
// WithDefaults.
type Configuration struct {
	// Threads is the Classifier worker count. Default: min(cores, 8).
	Threads int `yaml:"threads,omitempty"`
	// ChunkSizeBytes is the per-chunk cap in the ArchiveChunker. Default: 2 GiB.
	ChunkSizeBytes ByteSize `yaml:"chunk_size_bytes,omitempty"`
	// CompressionLevel is the Compressor level, 1..9. Default: 3. A zero
	// value is replaced by the default, so level 0 (store) cannot be selected
	// through Configuration.
	CompressionLevel int `yaml:"compression_level,omitempty"`
	// Game selects the archive extension, plugin template, and fallback
	// directory set.
	Game gamedir.Kind `yaml:"game"`
	// ModName is the plugin and archive stem. It must be filesystem-safe
	// and contain no whitespace.
	ModName string `yaml:"mod_name"`
	// PluginTemplateOverride is a path to a caller-provided plugin template
	// that overrides the compiled-in one.
	PluginTemplateOverride string `yaml:"plugin_template_override,omitempty"`
	// PluginTemplateOverrideExtension is the extension to use for a plugin
	// cloned from PluginTemplateOverride.
	PluginTemplateOverrideExtension string `yaml:"plugin_template_override_extension,omitempty"`
	// SeparateComponents selects between two independent containers (on,
	// the default) and a single legacy container (off).
	SeparateComponents *bool `yaml:"separate_components,omitempty"`
	// BatchConcurrency is the BatchOrchestrator's mod-level worker count.
	// Default: min(4, cores).
	BatchConcurrency int `yaml:"batch_concurrency,omitempty"`
	// CleanupStaging removes staging directories at the end of a run when
	// true (the default).
	CleanupStaging *bool `yaml:"cleanup_staging,omitempty"`
	// DryRun runs classification and chunk planning but skips archive
	// building, plugin emission, and compression.
	DryRun bool `yaml:"dry_run,omitempty"`
}

const (
	// DefaultChunkSizeBytes is the default 2 GiB per-chunk cap.
	DefaultChunkSizeBytes ByteSize = 2 * 1024 * 1024 * 1024
	// DefaultCompressionLevel is the default Compressor level.
	DefaultCompressionLevel = 3
	// DefaultBatchConcurrency is the upper bound of the default
	// BatchOrchestrator worker count, which is min(4, cores).
	DefaultBatchConcurrency = 4
)

// WithDefaults returns a copy of c with every unset field replaced by its
// documented default.
func (c Configuration) WithDefaults() Configuration {
	if c.ChunkSizeBytes == 0 {
		c.ChunkSizeBytes = DefaultChunkSizeBytes
	}
	if c.CompressionLevel == 0 {
		c.CompressionLevel = DefaultCompressionLevel
	}
	if c.BatchConcurrency == 0 {
		c.BatchConcurrency = DefaultBatchConcurrency
		if cores := runtime.NumCPU(); cores >= 1 && cores < c.BatchConcurrency {
			c.BatchConcurrency = cores
		}
	}
	if c.SeparateComponents == nil {
		on := true
		c.SeparateComponents = &on
	}
	if c.CleanupStaging == nil {
		on := true
		c.CleanupStaging = &on
	}
	return c
}

// SeparateComponentsEnabled reports the effective value of
// SeparateComponents, defaulting to true.
func (c Configuration) SeparateComponentsEnabled() bool {
	return c.SeparateComponents == nil || *c.SeparateComponents
}

// CleanupStagingEnabled reports the effective value of CleanupStaging,
// defaulting to true.
func (c Configuration) CleanupStagingEnabled() bool {
	return c.CleanupStaging == nil || *c.CleanupStaging
}

// Load reads and unmarshals a Configuration from a YAML file at path.
func Load(path string) (Configuration, error) {
	var configuration Configuration
	if err := encoding.LoadAndUnmarshalYAML(path, &configuration); err != nil {
		return Configuration{}, err
	}
	return configuration, nil
}

// Save marshals configuration as YAML and atomically writes it to path.
func Save(path string, logger *logging.Logger, configuration Configuration) error {
	return encoding.MarshalAndSaveYAML(path, logger, configuration)
}

// EnsureModNameValid ensures that name is valid for use as a plugin and
// archive stem: it must start with a letter and contain only letters,
// digits, dashes, and underscores, with no whitespace.
func EnsureModNameValid(name string) error {
	if name == "" {
		return errors.New("mod name must not be empty")
	}
	for i, r := range name {
		if unicode.IsLetter(r) {
			continue
		} else if i == 0 {
			return errors.New("mod name must start with a letter")
		} else if unicode.IsNumber(r) || r == '-' || r == '_' {
			continue
		}
		return errors.Errorf("invalid mod name character at index %d: %q", i, r)
	}
	return nil
}
