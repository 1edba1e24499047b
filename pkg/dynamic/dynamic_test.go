package dynamic

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartindex/smartindex/pkg/parser"
	"github.com/smartindex/smartindex/pkg/parser/queries"
	"github.com/smartindex/smartindex/pkg/worker"
)

func newTestExtractor() *worker.Extractor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pm := parser.NewParserManager(logger)
	qm := queries.NewQueryManager(pm, logger)
	return worker.NewExtractor(pm, qm, logger)
}

func TestUpdateReplacesBufferAtomically(t *testing.T) {
	idx := New(newTestExtractor())

	require.NoError(t, idx.Update("file:///a.ts", []byte("export const foo = 1;")))
	require.NotEmpty(t, idx.FindDefinitions("foo"))

	require.NoError(t, idx.Update("file:///a.ts", []byte("export const bar = 1;")))
	require.Empty(t, idx.FindDefinitions("foo"))
	require.NotEmpty(t, idx.FindDefinitions("bar"))
}

func TestCloseRemovesBuffer(t *testing.T) {
	idx := New(newTestExtractor())
	require.NoError(t, idx.Update("file:///a.ts", []byte("export const foo = 1;")))
	require.True(t, idx.IsOpen("file:///a.ts"))

	idx.Close("file:///a.ts")
	require.False(t, idx.IsOpen("file:///a.ts"))
	require.Empty(t, idx.FindDefinitions("foo"))
}

func TestGetFileSymbolsOnlyOpenBuffers(t *testing.T) {
	idx := New(newTestExtractor())
	require.Nil(t, idx.GetFileSymbols("file:///missing.ts"))

	require.NoError(t, idx.Update("file:///a.ts", []byte("export const foo = 1;")))
	require.NotEmpty(t, idx.GetFileSymbols("file:///a.ts"))
}

func TestGetFileTypeAnnotationsOnlyOpenBuffers(t *testing.T) {
	idx := New(newTestExtractor())
	require.Nil(t, idx.GetFileTypeAnnotations("file:///missing.ts"))

	require.NoError(t, idx.Update("file:///a.ts", []byte("const service: UserService = new UserService();")))
	require.Equal(t, "UserService", idx.GetFileTypeAnnotations("file:///a.ts")["service"])

	idx.Close("file:///a.ts")
	require.Nil(t, idx.GetFileTypeAnnotations("file:///a.ts"))
}
