package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartindex/smartindex/pkg/parser"
	"github.com/smartindex/smartindex/pkg/parser/queries"
)

func setupExtractor(_ *testing.T) *Extractor {
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	return NewExtractor(pm, qm, nil)
}

func symbolsByName(result *IndexedFileResult) map[string]Symbol {
	out := make(map[string]Symbol, len(result.Symbols))
	for _, sym := range result.Symbols {
		out[sym.Name] = sym
	}
	return out
}

func TestExtractFileTypeScript(t *testing.T) {
	extractor := setupExtractor(t)

	source := []byte(`import { Logger } from './logger';

export interface User {
  id: string;
}

export class UserService {
  private log: Logger;

  getUser(id: string): User {
    return this.lookup(id);
  }
}

export function createUser(name: string): User {
  return { id: name };
}
`)
	result, err := extractor.ExtractFile("users.ts", source)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, parser.LanguageTypeScript, result.Language)

	syms := symbolsByName(result)

	user, ok := syms["User"]
	require.True(t, ok)
	assert.Equal(t, SymbolKindInterface, user.Kind)
	assert.True(t, user.Exported)

	svc, ok := syms["UserService"]
	require.True(t, ok)
	assert.Equal(t, SymbolKindClass, svc.Kind)

	getUser, ok := syms["getUser"]
	require.True(t, ok)
	assert.Equal(t, SymbolKindMethod, getUser.Kind)
	assert.Equal(t, "UserService", getUser.ContainerName)
	assert.NotEmpty(t, getUser.SignatureHash)

	fn, ok := syms["createUser"]
	require.True(t, ok)
	assert.Equal(t, SymbolKindFunction, fn.Kind)
	assert.True(t, fn.Exported)

	require.Len(t, result.Imports, 1)
	assert.Equal(t, "./logger", result.Imports[0].FromModule)
	assert.Contains(t, result.Imports[0].Imported, "Logger")
}

// The worked classification example from the index's contract: module x,
// function f, and f's local x are symbols; the return-statement x, the
// call to f, and the trailing module-level x are references.
func TestExtractFileDeclarationVsReference(t *testing.T) {
	extractor := setupExtractor(t)

	source := []byte(`export const x = 1;
function f() { const x = 2; return x; }
f(); x;
`)
	result, err := extractor.ExtractFile("a.ts", source)
	require.NoError(t, err)

	var moduleX, fnF, localX bool
	for _, sym := range result.Symbols {
		switch {
		case sym.Name == "x" && sym.Line == 0:
			moduleX = true
		case sym.Name == "f" && sym.Line == 1:
			fnF = true
			assert.Equal(t, SymbolKindFunction, sym.Kind)
		case sym.Name == "x" && sym.Line == 1:
			localX = true
		}
	}
	assert.True(t, moduleX, "module-level x is a symbol")
	assert.True(t, fnF, "f is a symbol")
	assert.True(t, localX, "f's local x is a symbol")

	var usageInF, callF, moduleUsage bool
	for _, ref := range result.References {
		switch {
		case ref.Name == "x" && ref.Line == 1:
			usageInF = true
			assert.True(t, ref.IsLocal)
			assert.Equal(t, "f", ref.ScopeId)
		case ref.Name == "f" && ref.Line == 2:
			callF = true
			assert.False(t, ref.IsLocal)
		case ref.Name == "x" && ref.Line == 2:
			moduleUsage = true
			assert.False(t, ref.IsLocal)
			assert.Empty(t, ref.ScopeId)
		}
	}
	assert.True(t, usageInF, "return x inside f is a reference")
	assert.True(t, callF, "f() is a reference")
	assert.True(t, moduleUsage, "trailing module-level x is a reference")
}

func TestExtractFileJavaScript(t *testing.T) {
	extractor := setupExtractor(t)

	source := []byte(`class OrderProcessor {
  process(order) {
    return order.total;
  }
}
module.exports = OrderProcessor;
`)
	result, err := extractor.ExtractFile("orders.js", source)
	require.NoError(t, err)
	assert.Equal(t, parser.LanguageJavaScript, result.Language)

	syms := symbolsByName(result)
	proc, ok := syms["OrderProcessor"]
	require.True(t, ok)
	assert.Equal(t, SymbolKindClass, proc.Kind)

	param, ok := syms["order"]
	require.True(t, ok)
	assert.Equal(t, SymbolKindParameter, param.Kind)
}

func TestExtractFileReExports(t *testing.T) {
	extractor := setupExtractor(t)

	source := []byte(`export { save, load } from './persistence';
export * from './models';
`)
	result, err := extractor.ExtractFile("index.ts", source)
	require.NoError(t, err)

	modules := make(map[string][]string)
	for _, re := range result.ReExports {
		modules[re.FromModule] = append(modules[re.FromModule], re.Imported...)
	}
	assert.Contains(t, modules, "./persistence")
	assert.ElementsMatch(t, []string{"save", "load"}, modules["./persistence"])
	assert.Contains(t, modules, "./models")
}

func TestExtractFileUnsupportedLanguage(t *testing.T) {
	extractor := setupExtractor(t)

	result, err := extractor.ExtractFile("notes.txt", []byte("plain text"))
	assert.Error(t, err)
	assert.Nil(t, result)
}

// A syntax error must not fail extraction: tree-sitter recovers, and the
// declarations it could still see are extracted from the partial tree.
func TestExtractFilePartialOnSyntaxError(t *testing.T) {
	extractor := setupExtractor(t)

	source := []byte(`export function good() {}
function broken( {
`)
	result, err := extractor.ExtractFile("broken.ts", source)
	require.NoError(t, err)
	require.NotNil(t, result)

	syms := symbolsByName(result)
	_, ok := syms["good"]
	assert.True(t, ok, "declarations before the error survive")
}

func TestExtractFileDomainMetadata(t *testing.T) {
	extractor := setupExtractor(t)

	source := []byte(`export const loginSuccess = createAction("[Auth] Login Success");
export const loadUsers = createEffect(() => stream());
const plain = compute();
`)
	result, err := extractor.ExtractFile("auth.actions.ts", source)
	require.NoError(t, err)

	syms := symbolsByName(result)

	login, ok := syms["loginSuccess"]
	require.True(t, ok)
	require.NotNil(t, login.DomainMetadata)
	assert.Equal(t, DomainMetadataAction, login.DomainMetadata.Kind)
	assert.Equal(t, "[Auth] Login Success", login.DomainMetadata.TypeString)

	load, ok := syms["loadUsers"]
	require.True(t, ok)
	require.NotNil(t, load.DomainMetadata)
	assert.Equal(t, DomainMetadataEffect, load.DomainMetadata.Kind)

	plain, ok := syms["plain"]
	require.True(t, ok)
	assert.Nil(t, plain.DomainMetadata, "unrecognized calls stay neutral")
}
