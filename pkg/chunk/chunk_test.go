package chunk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/caoforge/capack/pkg/archivebuild"
	"github.com/caoforge/capack/pkg/classify"
	"github.com/caoforge/capack/pkg/gamedir"
	"github.com/caoforge/capack/pkg/pathnorm"
)

func entry(rel string, size int64, source string) classify.Entry {
	return classify.Entry{RelPath: pathnorm.RelPath(rel), SourcePath: source, Size: size}
}

// TestPlanChunksOversizeScenario mirrors spec.md Scenario B: a 2.3 GiB
// oversize singleton plus the remainder packed into additional bins.
func TestPlanChunksOversizeScenario(t *testing.T) {
	const gib = int64(1024 * 1024 * 1024)

	packSet := []classify.Entry{
		entry("meshes/huge.nif", int64(2.3*float64(gib)), "/gen/huge.nif"),
		entry("meshes/a.nif", int64(1.1*float64(gib)), "/gen/a.nif"),
		entry("meshes/b.nif", int64(1.1*float64(gib)), "/gen/b.nif"),
	}

	plan := PlanChunks(packSet, DefaultChunkSize)

	if len(plan) != 3 {
		t.Fatalf("expected 3 bins, got %d", len(plan))
	}
	if !plan[0].Oversize || len(plan[0].Members) != 1 {
		t.Errorf("expected bin 0 to be the oversize singleton, got %+v", plan[0])
	}
	for i := 1; i < len(plan); i++ {
		if plan[i].TotalSize() > DefaultChunkSize {
			t.Errorf("bin %d exceeds limit: %d > %d", i, plan[i].TotalSize(), DefaultChunkSize)
		}
	}
}

func TestPlanChunksNoOverLimitBinsUnlessSingleton(t *testing.T) {
	const limit = int64(100)
	packSet := []classify.Entry{
		entry("a", 60, "/gen/a"),
		entry("b", 60, "/gen/b"),
		entry("c", 30, "/gen/c"),
	}

	plan := PlanChunks(packSet, limit)
	for i, spec := range plan {
		if !spec.Oversize && spec.TotalSize() > limit {
			t.Errorf("bin %d exceeds limit without being a singleton: %d > %d", i, spec.TotalSize(), limit)
		}
	}

	total := 0
	for _, spec := range plan {
		total += len(spec.Members)
	}
	if total != len(packSet) {
		t.Errorf("expected %d total members across bins, got %d", len(packSet), total)
	}
}

func TestChunkFileNameCAOConvention(t *testing.T) {
	cases := []struct {
		idx, total int
		expected   string
	}{
		{0, 3, "Mod.bsa"},
		{1, 3, "Mod0.bsa"},
		{2, 3, "Mod1.bsa"},
	}
	for _, c := range cases {
		got := ChunkFileName("Mod", "bsa", c.idx, c.total)
		if got != c.expected {
			t.Errorf("ChunkFileName(%d, %d) = %q, want %q", c.idx, c.total, got, c.expected)
		}
	}
}

type stubBuilder struct{ built []string }

func (s *stubBuilder) Name() string    { return "stub" }
func (s *stubBuilder) Available() bool { return true }
func (s *stubBuilder) Build(_ context.Context, stagingDir, outputPath string, _ gamedir.Kind) error {
	s.built = append(s.built, stagingDir)
	return os.WriteFile(outputPath, []byte("archive-bytes"), 0644)
}

func TestExecuteStagesAndBuildsEachChunk(t *testing.T) {
	genRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(genRoot, "meshes"), 0755); err != nil {
		t.Fatal(err)
	}
	aPath := filepath.Join(genRoot, "meshes", "a.nif")
	bPath := filepath.Join(genRoot, "meshes", "b.nif")
	if err := os.WriteFile(aPath, []byte("AAAA"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bPath, []byte("BBBB"), 0644); err != nil {
		t.Fatal(err)
	}

	packSet := []classify.Entry{
		entry("meshes/a.nif", 4, aPath),
		entry("meshes/b.nif", 4, bPath),
	}
	plan := PlanChunks(packSet, 4) // force two bins: 4-byte limit, 4-byte files

	stagingDir := t.TempDir()
	outDir := t.TempDir()
	builder := &stubBuilder{}

	produced, err := Execute(context.Background(), plan, stagingDir, outDir, "TestMod", builder, gamedir.KindSkyrim, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(produced) != 2 {
		t.Fatalf("expected 2 archives, got %d", len(produced))
	}
	if filepath.Base(produced[0]) != "TestMod.bsa" {
		t.Errorf("expected first archive unsuffixed, got %s", filepath.Base(produced[0]))
	}
	if filepath.Base(produced[1]) != "TestMod0.bsa" {
		t.Errorf("expected second archive suffixed 0, got %s", filepath.Base(produced[1]))
	}

	for _, p := range produced {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() == 0 {
			t.Errorf("archive %s is empty", p)
		}
	}
}

func TestExecuteFailsIntegrityOnDuplicateMembers(t *testing.T) {
	genRoot := t.TempDir()
	path := filepath.Join(genRoot, "a.nif")
	if err := os.WriteFile(path, []byte("AAAA"), 0644); err != nil {
		t.Fatal(err)
	}

	plan := Plan{
		{Members: []Member{{RelPath: pathnorm.RelPath("a.nif"), SourcePath: path, Size: 4}}},
		{Members: []Member{{RelPath: pathnorm.RelPath("a.nif"), SourcePath: path, Size: 4}}},
	}

	_, err := Execute(context.Background(), plan, t.TempDir(), t.TempDir(), "TestMod", &stubBuilder{}, gamedir.KindSkyrim, nil)
	if err == nil {
		t.Fatal("expected integrity error for duplicate member paths")
	}
}
