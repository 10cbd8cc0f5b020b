// Package gamedir determines the set of top-level data directories that a
// Creation Engine install recognizes, merging directories actually present
// in a reference install with a per-game compiled-in fallback set.
package gamedir

import (
	"os"
	"strings"
	"sync"
)

// KnownDirs is the known-dirs set used by PathNormalizer and the
// Classifier to recognize game-relative paths.
type KnownDirs struct {
	// Detected holds the lowercase names of immediate children of the
	// reference root that are directories.
	Detected map[string]struct{}
	// Fallback holds the per-game compiled-in set of canonical engine
	// directories and common community toolchain directories.
	Fallback map[string]struct{}
	// Combined is the union of Detected and Fallback.
	Combined map[string]struct{}
}

// Contains reports whether name (assumed already lowercase) is a member of
// the combined known-dirs set.
func (k KnownDirs) Contains(name string) bool {
	_, ok := k.Combined[name]
	return ok
}

func newSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}

func union(a, b map[string]struct{}) map[string]struct{} {
	combined := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		combined[name] = struct{}{}
	}
	for name := range b {
		combined[name] = struct{}{}
	}
	return combined
}

// cacheKey identifies a cached scan by reference root and game.
type cacheKey struct {
	referenceRoot string
	game          Kind
}

// Scanner produces and caches KnownDirs for (reference root, game) pairs.
// A Scanner is safe for concurrent use. The zero value is ready to use.
type Scanner struct {
	mu    sync.Mutex
	cache map[cacheKey]KnownDirs
}

// NewScanner creates a new, empty Scanner.
func NewScanner() *Scanner {
	return &Scanner{
		cache: make(map[cacheKey]KnownDirs),
	}
}

// Scan produces the KnownDirs set for the given reference root and game,
// merging directories detected in the reference root with the game's
// fallback set. The result is cached by (referenceRoot, game); subsequent
// calls with the same pair return the cached result without re-reading the
// filesystem.
//
// Scan never fails: if the reference root cannot be read (or doesn't
// exist), Detected is empty and Combined equals Fallback.
//
// Scan's construction path must never invoke anything that itself depends
// on the cache it is populating; it always computes directly from the
// filesystem and the compiled-in fallback table.
func (s *Scanner) Scan(referenceRoot string, game Kind) KnownDirs {
	key := cacheKey{referenceRoot: referenceRoot, game: game}

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	fallback := newSet(game.fallbackDirectories())
	detected := detectDirectories(referenceRoot)
	known := KnownDirs{
		Detected: detected,
		Fallback: fallback,
		Combined: union(detected, fallback),
	}

	s.mu.Lock()
	if s.cache == nil {
		s.cache = make(map[cacheKey]KnownDirs)
	}
	s.cache[key] = known
	s.mu.Unlock()

	return known
}

// detectDirectories returns the lowercase names of the immediate
// subdirectories of root. It returns an empty (non-nil) set if root cannot
// be read.
func detectDirectories(root string) map[string]struct{} {
	entries, err := os.ReadDir(root)
	if err != nil {
		return map[string]struct{}{}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return newSet(names)
}
