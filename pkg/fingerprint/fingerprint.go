// Package fingerprint computes stable content digests over files. It is the
// sole component permitted to decide whether two files are byte-identical
// for classification purposes.
package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// blockSize is the read chunk size used when streaming file contents through
// the digest. Files are never loaded into memory in full.
const blockSize = 64 * 1024

// Digest is a fixed-width content fingerprint, hex-encoded for use as a map
// key and for display in metadata and logs.
type Digest string

// Equal reports whether two digests represent the same content, by exact
// string comparison. The empty digest is never equal to anything, including
// another empty digest.
func (d Digest) Equal(other Digest) bool {
	return d != "" && d == other
}

// Error indicates that a file's content could not be hashed.
type Error struct {
	// Path is the file that could not be hashed.
	Path string
	// Reason describes the underlying I/O failure.
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("unable to hash %q: %s", e.Path, e.Reason)
}

// Factory constructs a new hash.Hash for the configured algorithm. The
// default factory is SHA-1, matching the reference choice in the data
// model; any collision-resistant digest of at least 160 bits is acceptable
// provided both sides of a comparison use the same factory.
type Factory func() hash.Hash

// SHA1 is the reference digest algorithm.
func SHA1() hash.Hash {
	return sha1.New()
}

// Hasher streams file contents through a digest algorithm in fixed-size
// blocks, never holding a whole file in memory.
type Hasher struct {
	factory Factory
}

// New creates a Hasher using the given digest factory. If factory is nil,
// SHA1 is used.
func New(factory Factory) *Hasher {
	if factory == nil {
		factory = SHA1
	}
	return &Hasher{factory: factory}
}

// HashFile computes the fingerprint of the file at path, streaming its
// contents in fixed-size blocks. It returns an *Error (not a bare error) on
// any read failure so that callers can attach it to a per-file
// classification error without a type assertion.
func (h *Hasher) HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", &Error{Path: path, Reason: err.Error()}
	}
	defer file.Close()

	digester := h.factory()
	buffer := make([]byte, blockSize)
	if _, err := io.CopyBuffer(digester, file, buffer); err != nil {
		return "", &Error{Path: path, Reason: err.Error()}
	}

	return Digest(hex.EncodeToString(digester.Sum(nil))), nil
}
