package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.bin")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHashFileStable(t *testing.T) {
	hasher := New(nil)

	path := writeTemp(t, "hello, creation engine")
	first, err := hasher.HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := hasher.HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) {
		t.Errorf("expected stable digest, got %s then %s", first, second)
	}
}

func TestHashFileDiffersOnContent(t *testing.T) {
	hasher := New(nil)

	a := writeTemp(t, "content a")
	b := writeTemp(t, "content b")

	digestA, err := hasher.HashFile(a)
	if err != nil {
		t.Fatal(err)
	}
	digestB, err := hasher.HashFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if digestA.Equal(digestB) {
		t.Error("expected different content to produce different digests")
	}
}

func TestHashFileMissing(t *testing.T) {
	hasher := New(nil)

	_, err := hasher.HashFile(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, ok := err.(*Error); !ok {
		t.Errorf("expected *Error, got %T", err)
	}
}

func TestHashFileLargerThanBlockSize(t *testing.T) {
	hasher := New(nil)

	content := make([]byte, blockSize*3+17)
	for i := range content {
		content[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "large.bin")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	digest, err := hasher.HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if digest == "" {
		t.Error("expected non-empty digest")
	}
}
