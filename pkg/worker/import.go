// Import and re-export extraction implementation.
package worker

import (
	"strings"

	"github.com/smartindex/smartindex/pkg/parser/queries"
)

// extractImports processes import query matches into ImportInfo structs.
//
// One ImportInfo is emitted per "from module" clause: the query yields
// one match per binding (each carrying the statement's source), and
// matches sharing a (line, module) pair are merged here. Default,
// namespace, and named imports all count as imported bindings; an
// aliased specifier matches two query patterns, so names are deduped
// while merging.
func (e *Extractor) extractImports(matches []queries.QueryMatch, uri string) []ImportInfo {
	type stmtKey struct {
		line       uint32
		fromModule string
	}
	indexByStmt := make(map[stmtKey]int)
	imports := make([]ImportInfo, 0)

	appendName := func(info *ImportInfo, name string) {
		for _, existing := range info.Imported {
			if existing == name {
				return
			}
		}
		info.Imported = append(info.Imported, name)
	}

	for _, match := range matches {
		if !hasCategory(match, "import") {
			continue
		}

		sourceCapture := findCapture(match.Captures, "import", "source")
		if sourceCapture == nil {
			sourceCapture = findCapture(match.Captures, "import", "commonjs.source")
		}
		if sourceCapture == nil {
			continue
		}

		k := stmtKey{
			line:       sourceCapture.Location.StartLine,
			fromModule: strings.Trim(sourceCapture.Text, "\"'"),
		}
		i, seen := indexByStmt[k]
		if !seen {
			i = len(imports)
			indexByStmt[k] = i
			imports = append(imports, ImportInfo{
				FromModule: k.fromModule,
				URI:        uri,
				Line:       k.line,
			})
		}

		for _, capture := range match.Captures {
			switch capture.Field {
			case "default", "commonjs.default",
				"namespace", "commonjs.namespace",
				"named", "commonjs.named",
				"commonjs.key":
				appendName(&imports[i], capture.Text)
			case "alias", "commonjs.value":
				imports[i].Alias = capture.Text
			}
		}
	}

	// A side-effect import (import './polyfill') binds nothing and emits
	// no ImportInfo.
	out := imports[:0]
	for _, info := range imports {
		if len(info.Imported) > 0 {
			out = append(out, info)
		}
	}
	return out
}

// extractReExports processes import query matches into ReExportInfo
// structs, covering `export { a, b } from './mod'` and `export * from
// './mod'` forms. The query emits one match per named specifier plus a
// statement-level match, all carrying the same source, so matches are
// merged into one ReExportInfo per (line, module).
func (e *Extractor) extractReExports(matches []queries.QueryMatch, uri string) []ReExportInfo {
	type stmtKey struct {
		line       uint32
		fromModule string
	}
	indexByStmt := make(map[stmtKey]int)
	reExports := make([]ReExportInfo, 0)

	for _, match := range matches {
		sourceCapture := findCapture(match.Captures, "export", "reexport.source")
		if sourceCapture == nil {
			continue
		}

		k := stmtKey{
			line:       sourceCapture.Location.StartLine,
			fromModule: strings.Trim(sourceCapture.Text, "\"'"),
		}
		i, seen := indexByStmt[k]
		if !seen {
			i = len(reExports)
			indexByStmt[k] = i
			reExports = append(reExports, ReExportInfo{
				FromModule: k.fromModule,
				URI:        uri,
				Line:       k.line,
			})
		}

		for _, capture := range match.Captures {
			if capture.Field == "reexport.name" {
				reExports[i].Imported = append(reExports[i].Imported, capture.Text)
			}
		}
	}

	return reExports
}

// hasCategory reports whether any capture in match starts with prefix.
func hasCategory(match queries.QueryMatch, prefix string) bool {
	for _, capture := range match.Captures {
		if strings.HasPrefix(capture.Category, prefix) {
			return true
		}
	}
	return false
}

// findCapture finds a capture with matching category and field.
func findCapture(captures []queries.QueryCapture, category, field string) *queries.QueryCapture {
	for i := range captures {
		if captures[i].Category == category && captures[i].Field == field {
			return &captures[i]
		}
	}
	return nil
}
