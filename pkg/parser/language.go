package parser

import (
	"path/filepath"
	"strings"
)

// Language selects which tree-sitter grammar parses a file.
type Language int

const (
	LanguageUnknown Language = iota
	LanguageTypeScript
	LanguageJavaScript
)

func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	}
	return "unknown"
}

// DetectLanguage maps a file path (a bare path or a file:// URI — only
// the extension matters) to the grammar that parses it. `.tsx` files
// report LanguageTypeScript; IsTSXFile separately selects the TSX
// grammar variant, since the TS and TSX grammars diverge on JSX-shaped
// nodes.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	}
	return LanguageUnknown
}

// IsTSXFile reports whether path needs the TSX grammar variant.
func IsTSXFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tsx")
}
