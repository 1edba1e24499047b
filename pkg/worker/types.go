// Package worker implements the Worker (Parser) component: it lowers one
// file's source text to a canonical IndexedFileResult of symbols,
// references, imports and re-exports, classifying every identifier
// occurrence as a declaration (symbol) or a usage (reference).
//
// Each file is parsed once; all information is extracted from the same
// AST tree.
package worker

import "github.com/smartindex/smartindex/pkg/parser"

// IndexedFileResult is the canonical output of indexing one file — the
// shape every entry point (initial scan, dynamic update, watcher-driven
// reindex) converges on before the result is written into a tier.
type IndexedFileResult struct {
	URI             string
	Language        parser.Language
	Symbols         []Symbol
	References      []Reference
	Imports         []ImportInfo
	ReExports       []ReExportInfo
	TypeAnnotations map[string]string
	Diagnostics     []Diagnostic
}

// SymbolKind identifies the declaration kind of a Symbol.
type SymbolKind string

const (
	SymbolKindClass     SymbolKind = "class"
	SymbolKindInterface SymbolKind = "interface"
	SymbolKindTypeAlias SymbolKind = "typeAlias"
	SymbolKindEnum      SymbolKind = "enum"
	SymbolKindFunction  SymbolKind = "function"
	SymbolKindMethod    SymbolKind = "method"
	SymbolKindProperty  SymbolKind = "property"
	SymbolKindVariable  SymbolKind = "variable"
	SymbolKindParameter SymbolKind = "parameter"
)

// DomainMetadataKind tags a Symbol with an optional framework role.
type DomainMetadataKind string

const (
	DomainMetadataAction DomainMetadataKind = "action"
	DomainMetadataEffect DomainMetadataKind = "effect"
)

// DomainMetadata is the optional tagged record attached to a Symbol when a
// recognized framework shape (e.g. createAction/createEffect) is detected.
// Absent for neutral code — recognition failure must never alter output.
type DomainMetadata struct {
	Kind       DomainMetadataKind `json:"kind"`
	TypeString string             `json:"typeString,omitempty"`
}

// Symbol is a declaration-context identifier occurrence.
//
// Line is 0-based; Character is a 0-based UTF-16 code-unit offset (the
// LSP numeric contract). The range always points at the identifier
// token, never its enclosing construct.
type Symbol struct {
	Name           string          `json:"name"`
	Kind           SymbolKind      `json:"kind"`
	URI            string          `json:"uri"`
	Line           uint32          `json:"line"`
	Character      uint32          `json:"character"`
	ContainerName  string          `json:"containerName,omitempty"`
	SignatureHash  string          `json:"signatureHash,omitempty"`
	DomainMetadata *DomainMetadata `json:"domainMetadata,omitempty"`

	// Exported reports whether the declaration is wrapped in an
	// export_statement. Feeds the LSP Glue layer's smart-indexer/findDeadCode
	// request, which only considers exported symbols.
	Exported bool `json:"exported,omitempty"`

	// PubliclyAnnotated reports whether the declaration's leading comment
	// contains a `@public` or `@api` tag.
	PubliclyAnnotated bool `json:"publiclyAnnotated,omitempty"`
}

// Reference is a usage-context identifier occurrence.
//
// ScopeId is the "::"-joined chain of enclosing function/method/class
// names at the point of usage (e.g. "UserService::save"). IsLocal is true
// iff the referenced name is declared inside an enclosing function scope
// (not at module or class top level).
type Reference struct {
	Name      string `json:"name"`
	URI       string `json:"uri"`
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
	ScopeId   string `json:"scopeId,omitempty"`
	IsLocal   bool   `json:"isLocal"`
}

// ImportInfo records a single imported binding.
type ImportInfo struct {
	FromModule string   `json:"fromModule"`
	Imported   []string `json:"imported"`
	Alias      string   `json:"alias,omitempty"`
	URI        string   `json:"uri"`
	Line       uint32   `json:"line"`
}

// ReExportInfo records a single re-exported binding.
type ReExportInfo struct {
	FromModule string   `json:"fromModule"`
	Imported   []string `json:"imported"`
	Alias      string   `json:"alias,omitempty"`
	URI        string   `json:"uri"`
	Line       uint32   `json:"line"`
}

// DiagnosticSeverity mirrors the coarse severities the Worker can emit for
// partial-parse situations.
type DiagnosticSeverity string

const (
	DiagnosticSeverityError   DiagnosticSeverity = "error"
	DiagnosticSeverityWarning DiagnosticSeverity = "warning"
)

// Diagnostic is a non-fatal parse issue surfaced alongside a partial result.
type Diagnostic struct {
	Severity  DiagnosticSeverity `json:"severity"`
	Message   string             `json:"message"`
	Line      uint32             `json:"line"`
	Character uint32             `json:"character"`
}
