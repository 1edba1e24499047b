package background

import (
	"sort"

	"github.com/smartindex/smartindex/pkg/searchrank"
	"github.com/smartindex/smartindex/pkg/worker"
)

// AllSymbols returns every Symbol tracked across the whole workspace,
// hydrating any URI whose symbols aren't resident in memory. Used by the
// LSP Glue layer's smart-indexer/findDeadCode command, which
// needs the full symbol population rather than a single name lookup.
func (idx *Index) AllSymbols() []worker.Symbol {
	idx.mu.RLock()
	uris := make([]string, 0, len(idx.fileMetadata))
	for uri := range idx.fileMetadata {
		uris = append(uris, uri)
	}
	idx.mu.RUnlock()

	var out []worker.Symbol
	for _, uri := range uris {
		out = append(out, idx.getSymbolsForURI(uri)...)
	}
	return out
}

// FindDefinitions returns every Symbol named name across all indexed
// files, lazily hydrating any URI whose symbols aren't resident in
// memory.
func (idx *Index) FindDefinitions(name string) []worker.Symbol {
	idx.mu.RLock()
	uris := idx.symbolNameIndex[name]
	uriList := make([]string, 0, len(uris))
	for uri := range uris {
		uriList = append(uriList, uri)
	}
	idx.mu.RUnlock()

	var out []worker.Symbol
	for _, uri := range uriList {
		for _, sym := range idx.getSymbolsForURI(uri) {
			if sym.Name == name {
				out = append(out, sym)
			}
		}
	}
	return out
}

// FindReferencesByName returns every Reference named name, dropping local
// references whose scopeId is not present in scopeFilter, so same-named
// locals in unrelated functions stay out of cross-file results. A nil
// scopeFilter applies no filtering.
func (idx *Index) FindReferencesByName(name string, scopeFilter map[string]struct{}) []worker.Reference {
	idx.mu.RLock()
	uris := idx.referenceNameIndex[name]
	uriList := make([]string, 0, len(uris))
	for uri := range uris {
		uriList = append(uriList, uri)
	}
	idx.mu.RUnlock()

	var out []worker.Reference
	for _, uri := range uriList {
		for _, ref := range idx.getReferencesForURI(uri) {
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

// GetFileSymbols returns the symbols held for uri, hydrating from the
// shard store if the URI isn't resident in memory.
func (idx *Index) GetFileSymbols(uri string) []worker.Symbol {
	return idx.getSymbolsForURI(uri)
}

// GetFileReferences returns the references held for uri, hydrating from
// the shard store if the URI isn't resident in memory. Used by the LSP
// Glue layer to resolve which symbol or reference sits under a cursor.
func (idx *Index) GetFileReferences(uri string) []worker.Reference {
	return idx.getReferencesForURI(uri)
}

// GetFileTypeAnnotations returns the varName→typeName map extracted for
// uri, hydrating from the shard store if the URI isn't resident in memory.
// Used by the LSP Glue layer's hover provider to surface a variable's
// declared type alongside its symbol information.
func (idx *Index) GetFileTypeAnnotations(uri string) map[string]string {
	return idx.getTypeAnnotationsForURI(uri)
}

func (idx *Index) getSymbolsForURI(uri string) []worker.Symbol {
	idx.mu.RLock()
	symbols, ok := idx.symbolsByURI[uri]
	idx.mu.RUnlock()
	if ok {
		return symbols
	}
	idx.hydrate(uri)
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.symbolsByURI[uri]
}

func (idx *Index) getReferencesForURI(uri string) []worker.Reference {
	idx.mu.RLock()
	refs, ok := idx.referencesByURI[uri]
	idx.mu.RUnlock()
	if ok {
		return refs
	}
	idx.hydrate(uri)
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.referencesByURI[uri]
}

func (idx *Index) getTypeAnnotationsForURI(uri string) map[string]string {
	idx.mu.RLock()
	annots, ok := idx.typeAnnotsByURI[uri]
	idx.mu.RUnlock()
	if ok {
		return annots
	}
	idx.hydrate(uri)
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.typeAnnotsByURI[uri]
}

// hydrate loads uri's shard from disk into the in-memory maps when a name
// lookup resolved to a URI whose payload isn't resident — at most one
// shard read per matched URI per query.
func (idx *Index) hydrate(uri string) {
	if cached, ok := idx.hydrateCache.Get(uri); ok {
		idx.mu.Lock()
		idx.symbolsByURI[uri] = cached.Symbols
		idx.referencesByURI[uri] = cached.References
		if len(cached.TypeAnnotations) > 0 {
			idx.typeAnnotsByURI[uri] = cached.TypeAnnotations
		}
		idx.mu.Unlock()
		return
	}

	sh, err := idx.store.Get(uri)
	idx.hydration.Add(1)
	if err != nil || sh == nil {
		return
	}

	idx.hydrateCache.Add(uri, sh)
	idx.mu.Lock()
	idx.symbolsByURI[uri] = sh.Symbols
	idx.referencesByURI[uri] = sh.References
	if len(sh.TypeAnnotations) > 0 {
		idx.typeAnnotsByURI[uri] = sh.TypeAnnotations
	}
	idx.mu.Unlock()
}

// SearchSymbols implements workspace-symbol prefix search:
// q must be a case-insensitive subsequence of a matching symbol's name.
// Results are ordered exact-prefix, then acronym, then subsequence, each
// group by ascending name length then lexicographic, capped at limit.
func (idx *Index) SearchSymbols(query string, limit int) []worker.Symbol {
	type nameMatch struct {
		name string
		rank searchrank.Rank
		uris []string
	}

	idx.mu.RLock()
	var nameMatches []nameMatch
	for name, uris := range idx.symbolNameIndex {
		rank := searchrank.Classify(query, name)
		if rank == searchrank.None {
			continue
		}
		uriList := make([]string, 0, len(uris))
		for uri := range uris {
			uriList = append(uriList, uri)
		}
		nameMatches = append(nameMatches, nameMatch{name: name, rank: rank, uris: uriList})
	}
	idx.mu.RUnlock()

	// getSymbolsForURI hydrates on a cache miss, which needs idx.mu
	// unlocked to take its own RLock/Lock — do it before re-reading.
	for _, nm := range nameMatches {
		for _, uri := range nm.uris {
			idx.getSymbolsForURI(uri)
		}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type candidate struct {
		sym  worker.Symbol
		rank searchrank.Rank
	}
	var candidates []candidate

	for _, nm := range nameMatches {
		for _, uri := range nm.uris {
			for _, sym := range idx.symbolsByURI[uri] {
				if sym.Name == nm.name {
					candidates = append(candidates, candidate{sym: sym, rank: nm.rank})
				}
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return searchrank.Less(candidates[i].rank, candidates[j].rank, candidates[i].sym.Name, candidates[j].sym.Name)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]worker.Symbol, len(candidates))
	for i, c := range candidates {
		out[i] = c.sym
	}
	return out
}
