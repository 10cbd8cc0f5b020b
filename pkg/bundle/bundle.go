// Package bundle produces the distributable compressed containers
// (Packager's "_Packed" and "_Loose" outputs) from a staged directory. It
// implements the Compressor contract from spec.md §4.8 as a ZIP writer
// using a flate compressor registered at the configured level (0 store ..
// 9 max). No pure-Go 7-Zip writer is available (see DESIGN.md), so ZIP is
// the bundle container; this is distinct from the native-archive-only
// rule in pkg/archivebuild, which governs the game archive format, not
// this distributable wrapper.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caoforge/capack/pkg/compression"
	"github.com/caoforge/capack/pkg/pathnorm"
)

// DefaultLevel is the default compression level, matching spec.md §6's
// configuration surface.
const DefaultLevel = 3

// Error indicates that compression failed.
type Error struct {
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("unable to compress bundle: %s", e.Reason)
}

// Compressor produces a single compressed container from a staging
// directory. Level is an integer 0..9 with conventional semantics (0 =
// store, 9 = maximum).
type Compressor struct {
	Level int
}

// New creates a Compressor at the given level. A level outside 0..9 is
// clamped to DefaultLevel.
func New(level int) *Compressor {
	if level < 0 || level > 9 {
		level = DefaultLevel
	}
	return &Compressor{Level: level}
}

// Member is a single file to be written into the bundle at RelPath,
// sourced from the absolute path SourcePath. The staged-file count is
// already known from classification, so Compress never performs its own
// enumeration pass over members beyond what the caller supplies.
type Member struct {
	RelPath    pathnorm.RelPath
	SourcePath string
}

// Compress writes members into a ZIP archive at outputPath, using the
// configured compression level. Each member's RelPath (forward-slash,
// original casing preserved) becomes its archive member name.
func (c *Compressor) Compress(members []Member, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return &Error{Reason: fmt.Sprintf("unable to create output directory: %v", err)}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return &Error{Reason: fmt.Sprintf("unable to create output file: %v", err)}
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	level := c.Level
	writer.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return compression.NewCompressingWriter(w, level)
	})

	for _, member := range members {
		if err := c.addMember(writer, member); err != nil {
			writer.Close()
			return err
		}
	}

	if err := writer.Close(); err != nil {
		return &Error{Reason: fmt.Sprintf("unable to finalize archive: %v", err)}
	}

	return nil
}

func (c *Compressor) addMember(writer *zip.Writer, member Member) error {
	source, err := os.Open(member.SourcePath)
	if err != nil {
		return &Error{Reason: fmt.Sprintf("unable to open %s: %v", member.SourcePath, err)}
	}
	defer source.Close()

	method := zip.Deflate
	if c.Level == 0 {
		method = zip.Store
	}

	header := &zip.FileHeader{
		Name:   string(member.RelPath),
		Method: method,
	}

	writerEntry, err := writer.CreateHeader(header)
	if err != nil {
		return &Error{Reason: fmt.Sprintf("unable to add %s to archive: %v", member.RelPath, err)}
	}

	if _, err := io.Copy(writerEntry, source); err != nil {
		return &Error{Reason: fmt.Sprintf("unable to write %s to archive: %v", member.RelPath, err)}
	}

	return nil
}

// MembersFromDirectory walks a staging directory and returns a Member for
// every regular file found, with RelPath computed relative to root.
func MembersFromDirectory(root string) ([]Member, error) {
	var members []Member
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		members = append(members, Member{
			RelPath:    pathnorm.RelPath(filepath.ToSlash(relative)),
			SourcePath: path,
		})
		return nil
	})
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("unable to enumerate staging directory: %v", err)}
	}
	return members, nil
}
