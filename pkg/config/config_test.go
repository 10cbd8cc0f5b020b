package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/caoforge/capack/pkg/gamedir"
)

func TestWithDefaults(t *testing.T) {
	c := Configuration{}.WithDefaults()

	if c.ChunkSizeBytes != DefaultChunkSizeBytes {
		t.Errorf("expected default chunk size, got %d", c.ChunkSizeBytes)
	}
	if c.CompressionLevel != DefaultCompressionLevel {
		t.Errorf("expected default compression level, got %d", c.CompressionLevel)
	}
	if !c.SeparateComponentsEnabled() {
		t.Error("expected separate components on by default")
	}
	if !c.CleanupStagingEnabled() {
		t.Error("expected cleanup staging on by default")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capack.yml")

	off := false
	original := Configuration{
		Game:             gamedir.KindFallout4,
		ModName:          "MyBodySlideMod",
		ChunkSizeBytes:   ByteSize(1024 * 1024 * 1024),
		CompressionLevel: 5,
		SeparateComponents: &off,
	}

	if err := Save(path, nil, original); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Game != gamedir.KindFallout4 {
		t.Errorf("expected fallout4, got %s", loaded.Game)
	}
	if loaded.ModName != "MyBodySlideMod" {
		t.Errorf("unexpected mod name: %s", loaded.ModName)
	}
	if loaded.ChunkSizeBytes != original.ChunkSizeBytes {
		t.Errorf("expected chunk size %d, got %d", original.ChunkSizeBytes, loaded.ChunkSizeBytes)
	}
	if loaded.SeparateComponentsEnabled() {
		t.Error("expected separate components to remain off after round trip")
	}
}

func TestEnsureModNameValid(t *testing.T) {
	valid := []string{"MyMod", "Armor-Replacer", "BodySlide2"}
	for _, name := range valid {
		if err := EnsureModNameValid(name); err != nil {
			t.Errorf("expected %q to be valid, got %v", name, err)
		}
	}

	invalid := []string{"", "2Mod", "my mod", "mod/name"}
	for _, name := range invalid {
		if err := EnsureModNameValid(name); err == nil {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err == nil {
		t.Fatal("expected error for missing configuration file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
