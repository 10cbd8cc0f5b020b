package stage

import (
	"os"
	"testing"
	"time"
)

func TestNewCreatesUniqueDirectories(t *testing.T) {
	parent := t.TempDir()

	a, err := New(parent)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := New(parent)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if a.Path() == b.Path() {
		t.Error("expected unique staging root paths")
	}
	for _, root := range []*Root{a, b} {
		if info, err := os.Stat(root.Path()); err != nil || !info.IsDir() {
			t.Errorf("expected staging root %s to exist as a directory", root.Path())
		}
	}
}

func TestCloseRemovesDirectory(t *testing.T) {
	root, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(root.Join("file.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := root.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(root.Path()); !os.IsNotExist(err) {
		t.Error("expected staging root to be removed")
	}
}

func TestSweepOrphansRemovesOldRootsOnly(t *testing.T) {
	parent := t.TempDir()

	old, err := New(parent)
	if err != nil {
		t.Fatal(err)
	}
	recent, err := New(parent)
	if err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old.Path(), past, past); err != nil {
		t.Fatal(err)
	}

	SweepOrphans(parent, 24*time.Hour)

	if _, err := os.Stat(old.Path()); !os.IsNotExist(err) {
		t.Error("expected old staging root to be swept")
	}
	if _, err := os.Stat(recent.Path()); err != nil {
		t.Error("expected recent staging root to survive the sweep")
	}
}
