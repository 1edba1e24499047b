package queries

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartindex/smartindex/pkg/parser"
)

func newManagers(t *testing.T) (*parser.ParserManager, *QueryManager) {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := NewQueryManager(pm, nil)
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return pm, qm
}

// Every bundled query string must compile against its grammar — a
// malformed pattern here would otherwise only surface on the first file
// of that language the indexer meets.
func TestAllQueriesCompile(t *testing.T) {
	_, qm := newManagers(t)

	for _, lang := range []parser.Language{parser.LanguageTypeScript, parser.LanguageJavaScript} {
		for _, qtype := range []QueryType{QueryTypeSymbols, QueryTypeImports, QueryTypeTypes, QueryTypeReferences} {
			q, err := qm.GetQuery(lang, qtype, false)
			require.NoError(t, err, "%s/%s", lang, qtype)
			assert.NotNil(t, q)
		}
	}

	// TSX compiles against its own grammar variant.
	q, err := qm.GetQuery(parser.LanguageTypeScript, QueryTypeSymbols, true)
	require.NoError(t, err)
	assert.NotNil(t, q)
}

func TestGetQueryCaches(t *testing.T) {
	_, qm := newManagers(t)

	first, err := qm.GetQuery(parser.LanguageTypeScript, QueryTypeSymbols, false)
	require.NoError(t, err)
	second, err := qm.GetQuery(parser.LanguageTypeScript, QueryTypeSymbols, false)
	require.NoError(t, err)
	assert.Same(t, first, second, "repeated GetQuery must return the cached compilation")
}

func TestExecuteQuerySymbols(t *testing.T) {
	pm, qm := newManagers(t)

	source := []byte(`export class UserService {
  getUser(id: string) {}
}
const limit = 10;
`)
	tree, err := pm.Parse(source, parser.LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()

	query, err := qm.GetQuery(parser.LanguageTypeScript, QueryTypeSymbols, false)
	require.NoError(t, err)

	matches, err := qm.ExecuteQuery(tree, query, source)
	require.NoError(t, err)

	names := make(map[string]string) // name text → category
	for _, m := range matches {
		for _, c := range m.Captures {
			if c.Field == "name" {
				names[c.Text] = c.Category
			}
		}
	}
	assert.Equal(t, "class", names["UserService"])
	assert.Equal(t, "method", names["getUser"])
	assert.Equal(t, "variable", names["limit"])
}

func TestExecuteQueryImports(t *testing.T) {
	pm, qm := newManagers(t)

	source := []byte(`import { Logger as Log } from './logger';
import React from 'react';
`)
	tree, err := pm.Parse(source, parser.LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()

	query, err := qm.GetQuery(parser.LanguageTypeScript, QueryTypeImports, false)
	require.NoError(t, err)

	matches, err := qm.ExecuteQuery(tree, query, source)
	require.NoError(t, err)

	var sources, named, aliases, defaults []string
	for _, m := range matches {
		for _, c := range m.Captures {
			switch c.Name {
			case "import.source":
				sources = append(sources, c.Text)
			case "import.named":
				named = append(named, c.Text)
			case "import.alias":
				aliases = append(aliases, c.Text)
			case "import.default":
				defaults = append(defaults, c.Text)
			}
		}
	}
	assert.Contains(t, sources, "./logger")
	assert.Contains(t, sources, "react")
	assert.Contains(t, named, "Logger")
	assert.Contains(t, aliases, "Log")
	assert.Contains(t, defaults, "React")
}

func TestExecuteQueryNilArguments(t *testing.T) {
	pm, qm := newManagers(t)

	query, err := qm.GetQuery(parser.LanguageTypeScript, QueryTypeSymbols, false)
	require.NoError(t, err)

	_, err = qm.ExecuteQuery(nil, query, nil)
	assert.Error(t, err)

	tree, err := pm.Parse([]byte("const x = 1;"), parser.LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()
	_, err = qm.ExecuteQuery(tree, nil, nil)
	assert.Error(t, err)
}

func TestGetQueryUnknownLanguage(t *testing.T) {
	_, qm := newManagers(t)
	_, err := qm.GetQuery(parser.LanguageUnknown, QueryTypeSymbols, false)
	assert.Error(t, err)
}

func TestParseCaptureName(t *testing.T) {
	category, field := parseCaptureName("function.name")
	assert.Equal(t, "function", category)
	assert.Equal(t, "name", field)

	category, field = parseCaptureName("import.type.named")
	assert.Equal(t, "import", category)
	assert.Equal(t, "type.named", field)

	category, field = parseCaptureName("body")
	assert.Equal(t, "body", category)
	assert.Empty(t, field)
}

// Locations follow the LSP numeric contract: 0-based lines, 0-based
// UTF-16 code-unit characters — a non-BMP rune before an identifier
// widens its character offset by two.
func TestNodeLocationUTF16(t *testing.T) {
	pm, qm := newManagers(t)

	source := []byte("const s = \"\U0001F600\"; const tail = 1;\n")
	tree, err := pm.Parse(source, parser.LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()

	query, err := qm.GetQuery(parser.LanguageTypeScript, QueryTypeSymbols, false)
	require.NoError(t, err)
	matches, err := qm.ExecuteQuery(tree, query, source)
	require.NoError(t, err)

	for _, m := range matches {
		for _, c := range m.Captures {
			if c.Field == "name" && c.Text == "tail" {
				assert.Equal(t, uint32(0), c.Location.StartLine)
				// "const s = "😀"; const " — the emoji is 4 UTF-8 bytes
				// but 2 UTF-16 units, so the byte column exceeds this.
				assert.Equal(t, uint32(22), c.Location.StartCharacter)
				return
			}
		}
	}
	t.Fatal("did not find the tail capture")
}

func TestConcurrentGetAndExecute(t *testing.T) {
	pm, qm := newManagers(t)

	source := []byte("export function f(a, b) { return a + b; }\n")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := pm.Parse(source, parser.LanguageJavaScript, false)
			if !assert.NoError(t, err) {
				return
			}
			defer tree.Close()

			query, err := qm.GetQuery(parser.LanguageJavaScript, QueryTypeSymbols, false)
			if !assert.NoError(t, err) {
				return
			}
			matches, err := qm.ExecuteQuery(tree, query, source)
			assert.NoError(t, err)
			assert.NotEmpty(t, matches)
		}()
	}
	wg.Wait()
}
