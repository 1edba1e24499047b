package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		path string
		want Language
	}{
		{"src/app.ts", LanguageTypeScript},
		{"src/App.tsx", LanguageTypeScript},
		{"src/worker.mts", LanguageTypeScript},
		{"lib/index.js", LanguageJavaScript},
		{"lib/View.jsx", LanguageJavaScript},
		{"lib/cli.mjs", LanguageJavaScript},
		{"file:///repo/src/app.ts", LanguageTypeScript},
		{"README.md", LanguageUnknown},
		{"Makefile", LanguageUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectLanguage(tc.path), "path %q", tc.path)
	}

	assert.True(t, IsTSXFile("src/App.tsx"))
	assert.True(t, IsTSXFile("src/App.TSX"))
	assert.False(t, IsTSXFile("src/app.ts"))
	assert.False(t, IsTSXFile("lib/View.jsx"))
}

func TestParseTypeScript(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	source := []byte("export class UserService {\n  save(user: User): void {}\n}\n")
	tree, err := manager.Parse(source, LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError())
}

func TestParseTSX(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	source := []byte("export const App = () => <div>hello</div>;\n")
	tree, err := manager.Parse(source, LanguageTypeScript, true)
	require.NoError(t, err)
	defer tree.Close()

	assert.False(t, tree.RootNode().HasError())
}

func TestParseJavaScript(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	source := []byte("function greet(name) { return 'hi ' + name; }\ngreet('x');\n")
	tree, err := manager.Parse(source, LanguageJavaScript, false)
	require.NoError(t, err)
	defer tree.Close()

	assert.False(t, tree.RootNode().HasError())
}

func TestParseSyntaxErrorStillYieldsTree(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	source := []byte("function broken( {\nconst x = ;\n")
	tree, err := manager.Parse(source, LanguageTypeScript, false)
	require.NoError(t, err, "a syntax error must not fail the parse")
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}

func TestParseUnknownLanguage(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	_, err := manager.Parse([]byte("x"), LanguageUnknown, false)
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	tree, err := manager.ParseFile([]byte("const x: number = 1;\n"), "src/app.ts")
	require.NoError(t, err)
	tree.Close()

	_, err = manager.ParseFile([]byte("whatever"), "notes.txt")
	assert.Error(t, err)
}
