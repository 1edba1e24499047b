// Package worker implements unified per-file extraction of symbols,
// references, and imports/re-exports.
package worker

import (
	"fmt"
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/smartindex/smartindex/pkg/parser"
	"github.com/smartindex/smartindex/pkg/parser/queries"
)

// Extractor performs unified extraction of symbols, references, and
// imports/re-exports.
//
// Critical optimization: parses each file ONCE and runs every query on
// the same AST tree.
//
// Usage:
//
//	extractor := NewExtractor(parserManager, queryManager, logger)
//	result, err := extractor.ExtractFile(uri, sourceCode)
//	if err != nil {
//	    return err
//	}
//	// Use result.Symbols, result.References, result.Imports, result.ReExports
type Extractor struct {
	parserManager *parser.ParserManager
	queryManager  *queries.QueryManager
	logger        *slog.Logger
}

// NewExtractor creates a new unified Worker.
func NewExtractor(pm *parser.ParserManager, qm *queries.QueryManager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		parserManager: pm,
		queryManager:  qm,
		logger:        logger,
	}
}

// ExtractFile parses a file ONCE and extracts ALL information from the
// same AST tree.
//
// Steps:
//  1. Detect language from file extension (uri is treated as a path for
//     extension-sniffing purposes; it may be a file:// URI or bare path).
//  2. Parse file once using ParserManager.
//  3. Execute the symbols, imports, and references queries on the same
//     tree.
//  4. Build Symbols (including parameter bindings and domain metadata).
//  5. Build References, classifying every non-declaration identifier
//     occurrence and computing scope id / isLocal.
//  6. Build Imports/ReExports.
//  7. Extract type annotations (enables later call-site type hints).
//  8. Close the tree (memory cleanup) and return IndexedFileResult.
//
// On a parse error the tree-sitter parser still returns a best-effort
// tree (tree-sitter is error-tolerant by design); ExtractFile does not
// fail the whole file for isolated syntax errors.
func (e *Extractor) ExtractFile(uri string, sourceCode []byte) (*IndexedFileResult, error) {
	lang := parser.DetectLanguage(uri)
	if lang == parser.LanguageUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", uri)
	}

	isTSX := parser.IsTSXFile(uri)

	tree, err := e.parserManager.Parse(sourceCode, lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", uri, err)
	}
	defer tree.Close()

	symbolQuery, err := e.queryManager.GetQuery(lang, queries.QueryTypeSymbols, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol query for %s: %w", lang, err)
	}
	importQuery, err := e.queryManager.GetQuery(lang, queries.QueryTypeImports, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get import query for %s: %w", lang, err)
	}
	referenceQuery, err := e.queryManager.GetQuery(lang, queries.QueryTypeReferences, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get reference query for %s: %w", lang, err)
	}

	symbolMatches, err := e.queryManager.ExecuteQuery(tree, symbolQuery, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to execute symbol query: %w", err)
	}
	importMatches, err := e.queryManager.ExecuteQuery(tree, importQuery, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to execute import query: %w", err)
	}
	referenceMatches, err := e.queryManager.ExecuteQuery(tree, referenceQuery, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to execute reference query: %w", err)
	}

	symbols := e.extractSymbols(symbolMatches, tree, sourceCode, uri, lang)
	// The symbol matches ride along so extractReferences can find the
	// function-local declarations that decide each Reference's IsLocal.
	references := e.extractReferences(append(referenceMatches, symbolMatches...), sourceCode, uri, lang)
	imports := e.extractImports(importMatches, uri)
	reExports := e.extractReExports(importMatches, uri)

	typeAnnotations := make(map[string]string)
	if lang == parser.LanguageTypeScript || lang == parser.LanguageJavaScript {
		typeAnnotations = e.extractTypeAnnotations(tree, sourceCode, lang, isTSX)
	}

	e.logger.Debug("indexed file",
		"uri", uri,
		"language", lang,
		"symbols", len(symbols),
		"references", len(references),
		"imports", len(imports),
		"reExports", len(reExports))

	return &IndexedFileResult{
		URI:             uri,
		Language:        lang,
		Symbols:         symbols,
		References:      references,
		Imports:         imports,
		ReExports:       reExports,
		TypeAnnotations: typeAnnotations,
	}, nil
}

// extractTypeAnnotations extracts TypeScript/JavaScript type annotations
// from the AST, enabling later call-site type-hint lookups:
//
//	const service: UserService = new UserService();
//	service.getUser() → hinted as UserService.getUser()
//
// Returns a map: varName → typeName.
func (e *Extractor) extractTypeAnnotations(tree *ts.Tree, sourceCode []byte, lang parser.Language, isTSX bool) map[string]string {
	annotations := make(map[string]string)

	typesQuery, err := e.queryManager.GetQuery(lang, queries.QueryTypeTypes, isTSX)
	if err != nil {
		e.logger.Debug("failed to get types query", "language", lang, "error", err)
		return annotations
	}

	matches, err := e.queryManager.ExecuteQuery(tree, typesQuery, sourceCode)
	if err != nil {
		e.logger.Debug("failed to execute types query", "error", err)
		return annotations
	}

	// Capture indices from queries/types/typescript.go:
	//   @type.var.name - variable/parameter/property name
	//   @type.name     - type name (simple types)
	//   @type.base     - base type for generics
	//   @type.arg      - type argument (preferred for generics)
	for _, match := range matches {
		varName := ""
		var typeNames []string
		var typeArgs []string
		typeBase := ""

		for _, capture := range match.Captures {
			switch capture.Name {
			case "type.var.name":
				varName = capture.Text
			case "type.name":
				if capture.Text != "" {
					typeNames = append(typeNames, capture.Text)
				}
			case "type.base":
				typeBase = capture.Text
			case "type.arg":
				if capture.Text != "" {
					typeArgs = append(typeArgs, capture.Text)
				}
			}
		}

		if varName == "" {
			continue
		}

		finalType := ""
		switch {
		case len(typeArgs) > 0:
			finalType = typeArgs[0]
		case len(typeNames) > 0:
			finalType = typeNames[0]
		case typeBase != "":
			finalType = typeBase
		}

		if finalType != "" {
			annotations[varName] = finalType
		}
	}

	return annotations
}
