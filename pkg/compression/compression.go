// Package compression wraps the flate algorithm for use as a ZIP member
// compressor. It is adapted from the teacher's wire-protocol compressor
// (pkg/compression in mutagen-io/mutagen): that version always flushed
// after every write because it framed a live network stream, where each
// write must reach the peer promptly, and it hardcoded a single
// compression level since the protocol never needs to vary it. A bundle
// member compressor has no peer and writes whole files in large chunks, so
// this version drops the auto-flush behavior (it would hurt the
// compression ratio for no benefit here) and takes the level as a
// parameter so pkg/bundle can honor the configurable Level from spec.md
// §4.8 (0 store .. 9 max). Decompression is not part of this package's
// surface: capack only ever writes bundles, it never reads one back, so
// there is no caller for a decompressing reader (the teacher's wire
// protocol needed one because it terminated both ends of the stream).
package compression

import (
	"compress/flate"
	"io"

	"github.com/pkg/errors"
)

// DefaultLevel is used when NewCompressingWriter is given a level outside
// flate's valid range.
const DefaultLevel = 6

// NewCompressingWriter wraps an io.Writer in a flate compressor at the given
// level. A level outside 0 (store) .. 9 (maximum) falls back to DefaultLevel.
func NewCompressingWriter(destination io.Writer, level int) (io.WriteCloser, error) {
	if level < 0 || level > 9 {
		level = DefaultLevel
	}
	writer, err := flate.NewWriter(destination, level)
	if err != nil {
		return nil, errors.Wrap(err, "unable to construct flate writer")
	}
	return writer, nil
}
