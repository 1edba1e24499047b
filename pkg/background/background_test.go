package background

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartindex/smartindex/pkg/config"
	"github.com/smartindex/smartindex/pkg/parser"
	"github.com/smartindex/smartindex/pkg/parser/queries"
	"github.com/smartindex/smartindex/pkg/shard"
	"github.com/smartindex/smartindex/pkg/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	root := t.TempDir()

	pm := parser.NewParserManager(testLogger())
	t.Cleanup(func() { pm.Close() })
	qm := queries.NewQueryManager(pm, testLogger())
	ex := worker.NewExtractor(pm, qm, testLogger())

	cfg := config.DefaultConfig()
	exclude := NewExcludeFunc(root, cfg.ExcludePatterns)

	idx, err := New(root, cfg, exclude, ex, testLogger())
	require.NoError(t, err)
	require.NoError(t, idx.Init())
	return idx, root
}

func writeFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEnsureUpToDateColdStartWithExistingShards(t *testing.T) {
	idx, root := newTestIndex(t)

	a := writeFile(t, root, "a.ts", "export const Foo = 1;")
	b := writeFile(t, root, "b.ts", "export const Bar = 2;")
	c := writeFile(t, root, "c.ts", "export const Baz = 3;")

	require.NoError(t, idx.EnsureUpToDate([]string{a, b, c}, nil, nil))

	fresh, _ := New(root, idx.cfg, idx.exclude, idx.extractor, testLogger())
	require.NoError(t, fresh.Init())

	count := 0
	require.NoError(t, fresh.store.ListAll(func(sh *shard.FileShard) error {
		count++
		return nil
	}))
	require.Equal(t, 3, count)

	defs := fresh.FindDefinitions("Foo")
	require.Len(t, defs, 1)

	require.NoError(t, fresh.EnsureUpToDate([]string{a, b, c}, nil, nil))
}

func TestDeclarationVsReferenceDisambiguation(t *testing.T) {
	idx, root := newTestIndex(t)

	src := "export const x = 1;\nfunction f() { const x = 2; return x; }\nf(); x;\n"
	path := writeFile(t, root, "a.ts", src)

	require.NoError(t, idx.UpdateFile(path))

	refs := idx.FindReferencesByName("x", map[string]struct{}{"": {}})
	require.Len(t, refs, 1)
	require.Equal(t, uint32(2), refs[0].Line)
	require.False(t, refs[0].IsLocal)
}

func TestExternalEditCatchUp(t *testing.T) {
	idx, root := newTestIndex(t)

	path := writeFile(t, root, "a.ts", "export const Foo = 1;")
	require.NoError(t, idx.EnsureUpToDate([]string{path}, nil, nil))
	require.Empty(t, idx.FindDefinitions("Renamed"))

	time.Sleep(10 * time.Millisecond)
	writeFile(t, root, "a.ts", "export const Renamed = 1;")
	require.NoError(t, idx.UpdateFile(path))

	require.NotEmpty(t, idx.FindDefinitions("Renamed"))
	require.Empty(t, idx.FindDefinitions("Foo"))
}

func TestExclusionPurge(t *testing.T) {
	idx, root := newTestIndex(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist"), 0o755))
	path := writeFile(t, root, "dist/old.ts", "export const OldThing = 1;")

	// Index it before exclusion applies.
	noExclude := NewExcludeFunc(root, nil)
	idx.exclude = wrapExcludeCacheDir(noExclude, idx.cacheDir)
	require.NoError(t, idx.EnsureUpToDate([]string{path}, nil, nil))
	require.NotEmpty(t, idx.FindDefinitions("OldThing"))

	idx.exclude = wrapExcludeCacheDir(NewExcludeFunc(root, []string{"**/dist/**"}), idx.cacheDir)
	require.NoError(t, idx.EnsureUpToDate([]string{path}, nil, nil))

	require.Empty(t, idx.FindDefinitions("OldThing"))
}

func TestCorruptShardRecovery(t *testing.T) {
	idx, root := newTestIndex(t)
	path := writeFile(t, root, "a.ts", "export const Foo = 1;")
	require.NoError(t, idx.EnsureUpToDate([]string{path}, nil, nil))

	shardPath := idx.store.PathFor(path)
	require.NoError(t, os.WriteFile(shardPath, []byte{}, 0o644))

	idx.mu.Lock()
	idx.removeURILocked(path)
	idx.mu.Unlock()

	idx.hydrate(path)
	require.Empty(t, idx.getSymbolsForURI(path))
}

func TestGetFileTypeAnnotationsSurvivesRehydration(t *testing.T) {
	idx, root := newTestIndex(t)
	path := writeFile(t, root, "a.ts", "const service: UserService = new UserService();")
	require.NoError(t, idx.EnsureUpToDate([]string{path}, nil, nil))

	annots := idx.GetFileTypeAnnotations(path)
	require.Equal(t, "UserService", annots["service"])

	fresh, _ := New(root, idx.cfg, idx.exclude, idx.extractor, testLogger())
	require.NoError(t, fresh.Init())
	require.Equal(t, "UserService", fresh.GetFileTypeAnnotations(path)["service"])
}

func TestIdempotentUpdateFileProducesNoExtraWrites(t *testing.T) {
	idx, root := newTestIndex(t)
	path := writeFile(t, root, "a.ts", "export const Foo = 1;")

	require.NoError(t, idx.UpdateFile(path))
	writesAfterFirst := idx.shardRW.Load()

	require.NoError(t, idx.UpdateFile(path))
	require.Equal(t, writesAfterFirst, idx.shardRW.Load(), "a second UpdateFile with unchanged content writes no shard")
}

func TestSearchSymbolsOrdering(t *testing.T) {
	idx, root := newTestIndex(t)
	src := "export function getUser() {}\nexport function getUserById() {}\nexport function gUsr() {}\n"
	path := writeFile(t, root, "a.ts", src)
	require.NoError(t, idx.UpdateFile(path))

	results := idx.SearchSymbols("getUser", 10)
	require.NotEmpty(t, results)
	require.Equal(t, "getUser", results[0].Name)
}
