// Package pathnorm reduces absolute or partially-qualified filesystem paths
// to game-data-relative paths, the form the Creation Engine uses to address
// assets inside archives and loose-file trees.
package pathnorm

import "strings"

// RelPath is a normalized, forward-slash-delimited path rooted at a known
// game data directory (e.g. "meshes/actors/character/body.nif"). Comparisons
// against a reference tree are case-insensitive, so RelPath preserves the
// original casing for display while Key provides the lowercase form used for
// lookups.
type RelPath string

// Key returns the lowercase form of the path used for case-insensitive
// comparisons and map lookups.
func (r RelPath) Key() string {
	return strings.ToLower(string(r))
}

// String implements fmt.Stringer.
func (r RelPath) String() string {
	return string(r)
}
