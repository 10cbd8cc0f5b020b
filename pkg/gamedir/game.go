package gamedir

import "fmt"

// Kind identifies the Creation Engine game that a package is being built
// for. It determines the archive extension, the default plugin template,
// and the fallback directory set used when no reference install is
// available.
type Kind uint8

const (
	// KindUnknown is the zero value and is never valid for use.
	KindUnknown Kind = iota
	// KindSkyrim identifies Skyrim (and Skyrim Special Edition).
	KindSkyrim
	// KindFallout4 identifies Fallout 4.
	KindFallout4
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSkyrim:
		return "skyrim"
	case KindFallout4:
		return "fallout4"
	default:
		return "unknown"
	}
}

// ParseKind converts a string-based representation of a game into a Kind. It
// returns a boolean indicating whether or not the conversion was valid.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "skyrim":
		return KindSkyrim, true
	case "fallout4":
		return KindFallout4, true
	default:
		return KindUnknown, false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so that Kind can be
// loaded directly from YAML configuration.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown game: %q", string(text))
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ArchiveExtension returns the native archive extension (without a leading
// dot) used by the engine for this game.
func (k Kind) ArchiveExtension() string {
	switch k {
	case KindFallout4:
		return "ba2"
	default:
		return "bsa"
	}
}

// fallbackDirectories returns the per-game compiled-in set of canonical
// engine directories plus a curated set of common community toolchain
// directories, merged with the directories common to every supported game.
func (k Kind) fallbackDirectories() []string {
	common := []string{
		"meshes",
		"textures",
		"sounds",
		"scripts",
		"interface",
		"seq",
		"music",
		"shadersfx",
		"lodsettings",
		"grass",
		"voices",
		"video",
		"strings",
		"facegendata",
		// Common community toolchain directories, not part of the engine's
		// own directory set but routinely produced by BodySlide and similar
		// generators.
		"calientetools",
		"tools",
		"skse",
		"f4se",
		"nvse",
		"source",
	}
	switch k {
	case KindFallout4:
		return append(common, "materials", "programs", "vis")
	default:
		return append(common, "skeletonmeshes")
	}
}
