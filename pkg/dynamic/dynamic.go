// Package dynamic implements the Dynamic Index component: a
// pure in-memory mirror of the Background Index's query surface, scoped
// to buffers currently open in the editor.
package dynamic

import (
	"fmt"
	"sync"

	"github.com/smartindex/smartindex/pkg/worker"
)

// entry is one open buffer's latest indexed result.
type entry struct {
	symbols         []worker.Symbol
	references      []worker.Reference
	typeAnnotations map[string]string
	text            []byte
}

// Index is the Dynamic Index. Every method is safe for concurrent use;
// Update replaces a buffer's prior entry atomically so queries never see
// a torn read mixing old and new symbols for the same URI.
type Index struct {
	extractor *worker.Extractor

	mu      sync.RWMutex
	buffers map[string]entry
}

// New constructs an empty Dynamic Index. extractor is the shared Worker
// used to parse buffer text on every update.
func New(extractor *worker.Extractor) *Index {
	return &Index{
		extractor: extractor,
		buffers:   make(map[string]entry),
	}
}

// Update parses text via the Worker and replaces uri's prior entry in
// one atomic step, so concurrent queries never see a torn read. Does not
// touch disk.
func (d *Index) Update(uri string, text []byte) error {
	result, err := d.extractor.ExtractFile(uri, text)
	if err != nil {
		return fmt.Errorf("indexing open buffer %q: %w", uri, err)
	}

	d.mu.Lock()
	d.buffers[uri] = entry{
		symbols:         result.Symbols,
		references:      result.References,
		typeAnnotations: result.TypeAnnotations,
		text:            text,
	}
	d.mu.Unlock()
	return nil
}

// Text returns the last text passed to Update for uri, or nil if uri
// isn't open. Used by the LSP Glue layer's completion provider to find
// the identifier prefix at the cursor —
// a concern only the Dynamic tier can serve, since it's the only place
// buffer text itself is retained.
func (d *Index) Text(uri string) []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buffers[uri].text
}

// Close removes uri's entry — the editor closed the buffer. The
// background shard, if any, continues to serve queries for this URI
// afterward.
func (d *Index) Close(uri string) {
	d.mu.Lock()
	delete(d.buffers, uri)
	d.mu.Unlock()
}

// IsOpen reports whether uri currently has a live buffer entry.
func (d *Index) IsOpen(uri string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.buffers[uri]
	return ok
}

// OpenURIs returns a snapshot of every URI currently tracked.
func (d *Index) OpenURIs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.buffers))
	for uri := range d.buffers {
		out = append(out, uri)
	}
	return out
}

// AllSymbols returns every Symbol held across all open buffers, used by
// the LSP Glue layer's smart-indexer/findDeadCode command.
func (d *Index) AllSymbols() []worker.Symbol {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []worker.Symbol
	for _, e := range d.buffers {
		out = append(out, e.symbols...)
	}
	return out
}

// FindDefinitions returns every open-buffer Symbol named name.
func (d *Index) FindDefinitions(name string) []worker.Symbol {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []worker.Symbol
	for _, e := range d.buffers {
		for _, sym := range e.symbols {
			if sym.Name == name {
				out = append(out, sym)
			}
		}
	}
	return out
}

// FindReferencesByName returns every open-buffer Reference named name,
// dropping local references outside scopeFilter (same rule as the
// Background Index). A nil scopeFilter applies no filtering.
func (d *Index) FindReferencesByName(name string, scopeFilter map[string]struct{}) []worker.Reference {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []worker.Reference
	for _, e := range d.buffers {
		for _, ref := range e.references {
			if ref.Name != name {
				continue
			}
			if ref.IsLocal && scopeFilter != nil {
				if _, allowed := scopeFilter[ref.ScopeId]; !allowed {
					continue
				}
			}
			out = append(out, ref)
		}
	}
	return out
}

// SearchSymbols searches only open buffers, keeping every symbol whose
// name contains query as a case-insensitive subsequence. The matches are
// not ranked or sorted, so when more than limit match, which ones are
// kept is not defined; the Merged Index ranks the combined result.
func (d *Index) SearchSymbols(query string, limit int) []worker.Symbol {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []worker.Symbol
	for _, e := range d.buffers {
		for _, sym := range e.symbols {
			if matchesQuery(query, sym.Name) {
				out = append(out, sym)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesQuery(query, name string) bool {
	qi := 0
	ql := toLower(query)
	nl := toLower(name)
	for i := 0; i < len(nl) && qi < len(ql); i++ {
		if nl[i] == ql[qi] {
			qi++
		}
	}
	return qi == len(ql)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// GetFileSymbols returns uri's symbols if the buffer is open, else nil.
func (d *Index) GetFileSymbols(uri string) []worker.Symbol {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buffers[uri].symbols
}

// GetFileReferences returns uri's references if the buffer is open, else
// nil.
func (d *Index) GetFileReferences(uri string) []worker.Reference {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buffers[uri].references
}

// GetFileTypeAnnotations returns uri's varName→typeName map if the buffer
// is open, else nil.
func (d *Index) GetFileTypeAnnotations(uri string) map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buffers[uri].typeAnnotations
}
