package bundle

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/caoforge/capack/pkg/pathnorm"
)

func TestCompressRoundTrip(t *testing.T) {
	src := t.TempDir()
	filePath := filepath.Join(src, "meshes", "a.nif")
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filePath, []byte("mesh-bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	members := []Member{{RelPath: pathnorm.RelPath("meshes/a.nif"), SourcePath: filePath}}
	outputPath := filepath.Join(t.TempDir(), "bundle.zip")

	compressor := New(DefaultLevel)
	if err := compressor.Compress(members, outputPath); err != nil {
		t.Fatal(err)
	}

	reader, err := zip.OpenReader(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	if len(reader.File) != 1 {
		t.Fatalf("expected 1 member, got %d", len(reader.File))
	}
	if reader.File[0].Name != "meshes/a.nif" {
		t.Errorf("unexpected member name: %s", reader.File[0].Name)
	}

	rc, err := reader.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	buf := make([]byte, 32)
	n, _ := rc.Read(buf)
	if string(buf[:n]) != "mesh-bytes" {
		t.Errorf("unexpected content: %q", buf[:n])
	}
}

func TestCompressLevelZeroUsesStore(t *testing.T) {
	src := t.TempDir()
	filePath := filepath.Join(src, "a.txt")
	if err := os.WriteFile(filePath, []byte("store-me"), 0644); err != nil {
		t.Fatal(err)
	}

	members := []Member{{RelPath: pathnorm.RelPath("a.txt"), SourcePath: filePath}}
	outputPath := filepath.Join(t.TempDir(), "store.zip")

	if err := New(0).Compress(members, outputPath); err != nil {
		t.Fatal(err)
	}

	reader, err := zip.OpenReader(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	if reader.File[0].Method != zip.Store {
		t.Errorf("expected Store method at level 0, got %d", reader.File[0].Method)
	}
}

func TestMembersFromDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}

	members, err := MembersFromDirectory(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
}
