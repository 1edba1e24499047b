package merged

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartindex/smartindex/pkg/worker"
)

type fakeSource struct {
	symbols   []worker.Symbol
	refs      []worker.Reference
	typeAnnot map[string]string
}

func (f fakeSource) FindDefinitions(name string) []worker.Symbol {
	var out []worker.Symbol
	for _, s := range f.symbols {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func (f fakeSource) FindReferencesByName(name string, _ map[string]struct{}) []worker.Reference {
	var out []worker.Reference
	for _, r := range f.refs {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

func (f fakeSource) SearchSymbols(query string, limit int) []worker.Symbol {
	return f.symbols
}

func (f fakeSource) GetFileSymbols(uri string) []worker.Symbol {
	var out []worker.Symbol
	for _, s := range f.symbols {
		if s.URI == uri {
			out = append(out, s)
		}
	}
	return out
}

func (f fakeSource) GetFileReferences(uri string) []worker.Reference {
	var out []worker.Reference
	for _, r := range f.refs {
		if r.URI == uri {
			out = append(out, r)
		}
	}
	return out
}

func (f fakeSource) GetFileTypeAnnotations(uri string) map[string]string {
	return f.typeAnnot
}

type fakeOpenChecker map[string]bool

func (f fakeOpenChecker) IsOpen(uri string) bool { return f[uri] }

func TestDynamicWinsTiesOnSameURI(t *testing.T) {
	dyn := fakeSource{symbols: []worker.Symbol{{Name: "foo", URI: "a.ts", Line: 10}}}
	bg := fakeSource{symbols: []worker.Symbol{{Name: "foo", URI: "a.ts", Line: 3}}}

	m := New(dyn, bg, fakeOpenChecker{})
	results := m.FindDefinitions("foo")

	require.Len(t, results, 1)
	require.Equal(t, uint32(10), results[0].Line)
}

func TestUnrelatedFilesFromBothTiersSurvive(t *testing.T) {
	dyn := fakeSource{symbols: []worker.Symbol{{Name: "foo", URI: "a.ts", Line: 10}}}
	bg := fakeSource{symbols: []worker.Symbol{{Name: "foo", URI: "b.ts", Line: 3}}}

	m := New(dyn, bg, fakeOpenChecker{})
	results := m.FindDefinitions("foo")

	require.Len(t, results, 2)
}

func TestDedupeByLocation(t *testing.T) {
	dyn := fakeSource{symbols: []worker.Symbol{{Name: "foo", URI: "a.ts", Line: 1, Character: 2}}}
	bg := fakeSource{symbols: []worker.Symbol{{Name: "foo", URI: "c.ts", Line: 1, Character: 2}}}

	m := New(dyn, bg, fakeOpenChecker{})
	results := m.FindDefinitions("foo")
	require.Len(t, results, 2)

	seen := map[locKey]struct{}{}
	for _, r := range results {
		k := locKey{r.URI, r.Line, r.Character}
		_, dup := seen[k]
		require.False(t, dup)
		seen[k] = struct{}{}
	}
}

func TestGetFileSymbolsRoutesToOpenBuffer(t *testing.T) {
	dyn := fakeSource{symbols: []worker.Symbol{{Name: "bar", URI: "a.ts"}}}
	bg := fakeSource{symbols: []worker.Symbol{{Name: "stale", URI: "a.ts"}}}

	m := New(dyn, bg, fakeOpenChecker{"a.ts": true})
	results := m.GetFileSymbols("a.ts")
	require.Len(t, results, 1)
	require.Equal(t, "bar", results[0].Name)

	m2 := New(dyn, bg, fakeOpenChecker{})
	results2 := m2.GetFileSymbols("a.ts")
	require.Len(t, results2, 1)
	require.Equal(t, "stale", results2[0].Name)
}

func TestGetFileTypeAnnotationsRoutesToOpenBuffer(t *testing.T) {
	dyn := fakeSource{typeAnnot: map[string]string{"service": "UserService"}}
	bg := fakeSource{typeAnnot: map[string]string{"service": "StaleService"}}

	m := New(dyn, bg, fakeOpenChecker{"a.ts": true})
	require.Equal(t, "UserService", m.GetFileTypeAnnotations("a.ts")["service"])

	m2 := New(dyn, bg, fakeOpenChecker{})
	require.Equal(t, "StaleService", m2.GetFileTypeAnnotations("a.ts")["service"])
}
