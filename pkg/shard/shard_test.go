package shard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartindex/smartindex/pkg/worker"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, nil)
	require.NoError(t, err)
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := &FileShard{
		URI:         "file:///a.ts",
		ContentHash: "deadbeef",
		Mtime:       1000,
		Symbols:     []worker.Symbol{{Name: "x", Kind: worker.SymbolKindVariable, URI: "file:///a.ts"}},
	}
	require.NoError(t, s.Put(in))

	out, err := s.Get("file:///a.ts")
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, Version, out.ShardVersion)
	require.Equal(t, "deadbeef", out.ContentHash)
	require.Len(t, out.Symbols, 1)
}

func TestGetMissingReturnsNilNotError(t *testing.T) {
	s := newTestStore(t)

	out, err := s.Get("file:///missing.ts")
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestPathForIsTwoLevelHexPrefixed(t *testing.T) {
	s := newTestStore(t)
	h := hashURI("file:///a.ts")
	path := s.PathFor("file:///a.ts")

	require.Equal(t, filepath.Join(s.root, h[0:2], h[2:4], h+".json"), path)
}

func TestVersionMismatchIsUnlinkedAndCorrupt(t *testing.T) {
	s := newTestStore(t)

	shard := &FileShard{URI: "file:///a.ts", ShardVersion: Version}
	require.NoError(t, s.Put(shard))

	path := s.PathFor("file:///a.ts")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw = []byte(`{"uri":"file:///a.ts","shardVersion":9999}`)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	out, err := s.Get("file:///a.ts")
	require.ErrorIs(t, err, ErrShardCorrupt)
	require.Nil(t, out)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "corrupt shard should have been unlinked")
}

func TestCorruptJSONIsUnlinkedAndCorrupt(t *testing.T) {
	s := newTestStore(t)
	path := s.PathFor("file:///a.ts")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	out, err := s.Get("file:///a.ts")
	require.ErrorIs(t, err, ErrShardCorrupt)
	require.Nil(t, out)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestDeleteLeavesDirectoriesInPlace(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(&FileShard{URI: "file:///a.ts"}))
	require.NoError(t, s.Delete("file:///a.ts"))

	_, err := os.Stat(filepath.Dir(s.PathFor("file:///a.ts")))
	require.NoError(t, err, "leaf directory should remain after delete")

	out, err := s.Get("file:///a.ts")
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Delete("file:///never-existed.ts"))
}

func TestListAllEnumeratesEveryShard(t *testing.T) {
	s := newTestStore(t)
	uris := []string{"file:///a.ts", "file:///b.ts", "file:///c.ts"}
	for _, u := range uris {
		require.NoError(t, s.Put(&FileShard{URI: u}))
	}

	seen := map[string]bool{}
	require.NoError(t, s.ListAll(func(sh *FileShard) error {
		seen[sh.URI] = true
		return nil
	}))

	require.Len(t, seen, 3)
	for _, u := range uris {
		require.True(t, seen[u], u)
	}
}

func TestListAllSkipsAndUnlinksCorruptEntries(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(&FileShard{URI: "file:///good.ts"}))

	badPath := s.PathFor("file:///bad.ts")
	require.NoError(t, os.MkdirAll(filepath.Dir(badPath), 0o755))
	require.NoError(t, os.WriteFile(badPath, []byte("garbage"), 0o644))

	count := 0
	require.NoError(t, s.ListAll(func(sh *FileShard) error {
		count++
		return nil
	}))
	require.Equal(t, 1, count)

	_, err := os.Stat(badPath)
	require.True(t, os.IsNotExist(err))
}

func TestClearPreservesRootDirectory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(&FileShard{URI: "file:///a.ts"}))
	require.NoError(t, s.Clear())

	_, err := os.Stat(s.root)
	require.NoError(t, err)

	out, err := s.Get("file:///a.ts")
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestStableSymbolID(t *testing.T) {
	sh := &FileShard{ContentHash: "deadbeefcafef00d"}

	plain := worker.Symbol{Name: "x"}
	require.Equal(t, "deadbeef:x", sh.StableSymbolID(plain))

	method := worker.Symbol{Name: "save", ContainerName: "UserService", SignatureHash: "a1b2"}
	require.Equal(t, "deadbeef:UserService.save#a1b2", sh.StableSymbolID(method))

	nested := worker.Symbol{Name: "helper", ContainerName: "Outer::inner"}
	require.Equal(t, "deadbeef:Outer.inner.helper", sh.StableSymbolID(nested))

	// Only content identifies the symbol — no line number involved, so a
	// shifted declaration keeps its ID.
	shifted := worker.Symbol{Name: "save", ContainerName: "UserService", SignatureHash: "a1b2", Line: 500}
	require.Equal(t, sh.StableSymbolID(method), sh.StableSymbolID(shifted))
}
