package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIsJunk(t *testing.T) {
	junk := []string{".DS_Store", "Thumbs.db", "desktop.ini", "scratch.tmp", "backup.bak", ".hidden"}
	for _, name := range junk {
		if !IsJunk(name) {
			t.Errorf("expected %q to be junk", name)
		}
	}
	notJunk := []string{"body.nif", "texture.dds", "readme.txt"}
	for _, name := range notJunk {
		if IsJunk(name) {
			t.Errorf("expected %q to not be junk", name)
		}
	}
}

func TestIsPlugin(t *testing.T) {
	for _, name := range []string{"Mod.esp", "Mod.esl", "Mod.esm", "MOD.ESP"} {
		if !IsPlugin(name) {
			t.Errorf("expected %q to be a plugin", name)
		}
	}
	if IsPlugin("mod.bsa") {
		t.Error("expected .bsa to not be a plugin")
	}
}

// TestCollectionScenarioF mirrors spec.md Scenario F: three mods, one
// missing a plugin.
func TestCollectionScenarioF(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "ModA", "ModA.esp"))
	writeFile(t, filepath.Join(root, "ModA", "meshes", "a.nif"))
	writeFile(t, filepath.Join(root, "ModA", "Thumbs.db"))

	writeFile(t, filepath.Join(root, "ModB", "meshes", "b.nif"))

	writeFile(t, filepath.Join(root, "ModC", "ModC.esp"))
	writeFile(t, filepath.Join(root, "ModC", "textures", "c.dds"))

	mods, err := Collection(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 3 {
		t.Fatalf("expected 3 candidate mods, got %d", len(mods))
	}

	byName := make(map[string]Mod)
	for _, m := range mods {
		byName[m.Name] = m
	}

	if byName["ModA"].SkipReason != "" {
		t.Errorf("expected ModA to be processable, got skip reason %q", byName["ModA"].SkipReason)
	}
	if byName["ModA"].SelectedPlugin() != "ModA.esp" {
		t.Errorf("unexpected plugin for ModA: %s", byName["ModA"].SelectedPlugin())
	}
	for _, asset := range byName["ModA"].AssetFiles {
		if asset == "Thumbs.db" {
			t.Error("expected junk file to be excluded from asset subtree")
		}
	}

	if byName["ModB"].SkipReason != "no plugin" {
		t.Errorf("expected ModB to be skipped with 'no plugin', got %q", byName["ModB"].SkipReason)
	}

	if byName["ModC"].SkipReason != "" {
		t.Errorf("expected ModC to be processable, got skip reason %q", byName["ModC"].SkipReason)
	}
}

func TestSelectedPluginPicksLexicographicallyFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Mod", "Zeta.esp"))
	writeFile(t, filepath.Join(root, "Mod", "Alpha.esl"))
	writeFile(t, filepath.Join(root, "Mod", "meshes", "a.nif"))

	mods, err := Collection(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 1 {
		t.Fatalf("expected 1 mod, got %d", len(mods))
	}
	if mods[0].SelectedPlugin() != "Alpha.esl" {
		t.Errorf("expected lexicographically first plugin Alpha.esl, got %s", mods[0].SelectedPlugin())
	}
}
