// Package parser wraps the tree-sitter grammars for TypeScript and
// JavaScript behind a pooled, concurrency-safe parse entry point. The
// Worker parses every file through a shared ParserManager; queries over
// the resulting trees are compiled and cached by the queries subpackage.
package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/smartindex/smartindex/pkg/util"
)

// grammarKey identifies one parser pool: the TS and TSX grammars are
// distinct even though both report LanguageTypeScript.
type grammarKey struct {
	lang  Language
	isTSX bool
}

// ParserManager owns one lazily-built parser pool per grammar. Parse is
// safe for concurrent use from any number of goroutines; each pool
// allows up to util.DefaultParallelism() simultaneous parses of the
// same grammar.
//
// Returned trees belong to the caller and must be Closed after use. The
// manager itself must be Closed to free the pooled parsers.
type ParserManager struct {
	mu     sync.RWMutex
	pools  map[grammarKey]*parserPool
	logger *slog.Logger
}

func NewParserManager(logger *slog.Logger) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:  make(map[grammarKey]*parserPool),
		logger: logger,
	}
}

// Parse parses source with the grammar selected by (lang, isTSX). isTSX
// only matters for TypeScript. A source with syntax errors still yields
// a best-effort tree — tree-sitter is error-tolerant, and partial trees
// still index; a parse error never fails the file.
func (pm *ParserManager) Parse(source []byte, lang Language, isTSX bool) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pool, err := pm.pool(lang, isTSX)
	if err != nil {
		return nil, err
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, err
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("%s parser returned no tree", lang)
	}
	if tree.RootNode().HasError() {
		pm.logger.Debug("parse tree contains errors", "language", lang.String())
	}
	return tree, nil
}

// ParseFile parses source using the grammar detected from path's
// extension.
func (pm *ParserManager) ParseFile(source []byte, path string) (*ts.Tree, error) {
	lang := DetectLanguage(path)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}
	return pm.Parse(source, lang, IsTSXFile(path))
}

// GetLanguagePointer exposes the raw grammar pointer so QueryManager can
// compile queries against the same grammar a file was parsed with.
func (pm *ParserManager) GetLanguagePointer(lang Language, isTSX bool) (unsafe.Pointer, error) {
	switch lang {
	case LanguageTypeScript:
		if isTSX {
			return ts_typescript.LanguageTSX(), nil
		}
		return ts_typescript.LanguageTypescript(), nil
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	}
	return nil, fmt.Errorf("unsupported language: %s", lang)
}

// Close frees every pooled parser. The manager cannot be used afterward.
func (pm *ParserManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for key, pool := range pm.pools {
		pool.close()
		pm.logger.Debug("closed parser pool", "language", key.lang.String(), "tsx", key.isTSX)
	}
	pm.pools = make(map[grammarKey]*parserPool)
	return nil
}

func (pm *ParserManager) pool(lang Language, isTSX bool) (*parserPool, error) {
	key := grammarKey{lang: lang, isTSX: isTSX}

	pm.mu.RLock()
	pool, ok := pm.pools[key]
	pm.mu.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pool, ok = pm.pools[key]; ok {
		return pool, nil
	}

	langPtr, err := pm.GetLanguagePointer(lang, isTSX)
	if err != nil {
		return nil, err
	}
	pool = newParserPool(lang, langPtr, isTSX, util.DefaultParallelism(), pm.logger)
	pm.pools[key] = pool
	return pool, nil
}
