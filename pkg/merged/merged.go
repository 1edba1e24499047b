// Package merged implements the Merged Index component: the
// single query façade every LSP request goes through, unifying the
// Dynamic and Background tiers with dedup and dynamic-wins-ties
// semantics.
package merged

import (
	"sort"

	"github.com/smartindex/smartindex/pkg/searchrank"
	"github.com/smartindex/smartindex/pkg/worker"
)

// QuerySource is the capability set both tiers implement. The Merged
// Index is polymorphic over this capability set, not over a type
// hierarchy: both *dynamic.Index and *background.Index satisfy it
// structurally, and neither needs to import this package.
type QuerySource interface {
	FindDefinitions(name string) []worker.Symbol
	FindReferencesByName(name string, scopeFilter map[string]struct{}) []worker.Reference
	SearchSymbols(query string, limit int) []worker.Symbol
	GetFileSymbols(uri string) []worker.Symbol
	GetFileReferences(uri string) []worker.Reference
	GetFileTypeAnnotations(uri string) map[string]string
}

// OpenChecker lets the Merged Index ask whether a URI currently has a
// live Dynamic Index entry: per-file queries route to the Dynamic tier
// alone when the buffer is open, else to the Background tier.
type OpenChecker interface {
	IsOpen(uri string) bool
}

// Index is the Merged Index query façade.
type Index struct {
	dynamic    QuerySource
	background QuerySource
	openCheck  OpenChecker
}

// New constructs a Merged Index over the given tiers. background may be
// nil when enableBackgroundIndex is false: all queries then
// resolve from the Dynamic Index alone.
func New(dynamicTier QuerySource, backgroundTier QuerySource, openCheck OpenChecker) *Index {
	return &Index{dynamic: dynamicTier, background: backgroundTier, openCheck: openCheck}
}

// locKey is the dedup key: Merged Index never returns two results with
// identical (uri,line,character).
type locKey struct {
	uri  string
	line uint32
	char uint32
}

// FindDefinitions merges dynamic.FindDefinitions and
// background.FindDefinitions, deduplicated with dynamic winning ties: if
// both tiers report the same URI with different positions, only the
// dynamic entries for that URI survive.
func (m *Index) FindDefinitions(name string) []worker.Symbol {
	var dynSyms []worker.Symbol
	if m.dynamic != nil {
		dynSyms = m.dynamic.FindDefinitions(name)
	}
	var bgSyms []worker.Symbol
	if m.background != nil {
		bgSyms = m.background.FindDefinitions(name)
	}

	dynURIs := make(map[string]struct{}, len(dynSyms))
	for _, s := range dynSyms {
		dynURIs[s.URI] = struct{}{}
	}

	seen := make(map[locKey]struct{})
	out := make([]worker.Symbol, 0, len(dynSyms)+len(bgSyms))

	for _, s := range dynSyms {
		k := locKey{s.URI, s.Line, s.Character}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	for _, s := range bgSyms {
		if _, fresher := dynURIs[s.URI]; fresher {
			continue // dynamic wins ties: background entries for an open URI are dropped
		}
		k := locKey{s.URI, s.Line, s.Character}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// FindReferencesByName merges both tiers the same way as FindDefinitions.
func (m *Index) FindReferencesByName(name string, scopeFilter map[string]struct{}) []worker.Reference {
	var dynRefs []worker.Reference
	if m.dynamic != nil {
		dynRefs = m.dynamic.FindReferencesByName(name, scopeFilter)
	}
	var bgRefs []worker.Reference
	if m.background != nil {
		bgRefs = m.background.FindReferencesByName(name, scopeFilter)
	}

	dynURIs := make(map[string]struct{}, len(dynRefs))
	for _, r := range dynRefs {
		dynURIs[r.URI] = struct{}{}
	}

	seen := make(map[locKey]struct{})
	out := make([]worker.Reference, 0, len(dynRefs)+len(bgRefs))

	for _, r := range dynRefs {
		k := locKey{r.URI, r.Line, r.Character}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	for _, r := range bgRefs {
		if _, fresher := dynURIs[r.URI]; fresher {
			continue
		}
		k := locKey{r.URI, r.Line, r.Character}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SearchSymbols merges workspace-symbol search across both tiers, dedupes
// by (uri,line,character), then re-sorts with the same ordering
// background.SearchSymbols uses: exact-prefix, then acronym, then
// subsequence, each group by ascending name length then lexicographic.
// Each tier's own SearchSymbols may already apply this
// ordering internally, but re-classifying every deduped symbol here
// against query is what keeps the merged result correctly grouped once
// the two tiers' lists are interleaved — the Dynamic Index's own
// SearchSymbols, in particular, returns plain subsequence matches with no
// rank grouping at all.
func (m *Index) SearchSymbols(query string, limit int) []worker.Symbol {
	capacity := limit
	if capacity <= 0 {
		capacity = 256
	}

	var all []worker.Symbol
	if m.dynamic != nil {
		all = append(all, m.dynamic.SearchSymbols(query, capacity)...)
	}
	if m.background != nil {
		all = append(all, m.background.SearchSymbols(query, capacity)...)
	}

	seen := make(map[locKey]struct{}, len(all))
	deduped := make([]worker.Symbol, 0, len(all))
	for _, s := range all {
		k := locKey{s.URI, s.Line, s.Character}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, s)
	}

	type ranked struct {
		sym  worker.Symbol
		rank searchrank.Rank
	}
	candidates := make([]ranked, len(deduped))
	for i, s := range deduped {
		candidates[i] = ranked{sym: s, rank: searchrank.Classify(query, s.Name)}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return searchrank.Less(candidates[i].rank, candidates[j].rank, candidates[i].sym.Name, candidates[j].sym.Name)
	})

	for i, c := range candidates {
		deduped[i] = c.sym
	}

	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped
}

// GetFileSymbols returns dynamic's symbols for uri when the buffer is
// open, else falls through to the background tier.
func (m *Index) GetFileSymbols(uri string) []worker.Symbol {
	if m.openCheck != nil && m.openCheck.IsOpen(uri) && m.dynamic != nil {
		return m.dynamic.GetFileSymbols(uri)
	}
	if m.background != nil {
		return m.background.GetFileSymbols(uri)
	}
	return nil
}

// GetFileReferences mirrors GetFileSymbols' open-buffer routing for
// references, used by the LSP Glue layer to resolve the occurrence under
// a cursor.
func (m *Index) GetFileReferences(uri string) []worker.Reference {
	if m.openCheck != nil && m.openCheck.IsOpen(uri) && m.dynamic != nil {
		return m.dynamic.GetFileReferences(uri)
	}
	if m.background != nil {
		return m.background.GetFileReferences(uri)
	}
	return nil
}

// GetFileTypeAnnotations mirrors GetFileSymbols' open-buffer routing for
// a file's varName→typeName map, used by the LSP Glue layer's hover
// provider to annotate a variable reference with its declared type.
func (m *Index) GetFileTypeAnnotations(uri string) map[string]string {
	if m.openCheck != nil && m.openCheck.IsOpen(uri) && m.dynamic != nil {
		return m.dynamic.GetFileTypeAnnotations(uri)
	}
	if m.background != nil {
		return m.background.GetFileTypeAnnotations(uri)
	}
	return nil
}

// Location is the flat navigation-result shape every richer
// "location link" result is normalized to before deduplication.
type Location struct {
	URI       string
	Line      uint32
	Character uint32
}

// LocationLink is the richer shape some navigation providers return;
// ToLocation normalizes it to the flat Location form this package
// deduplicates on.
type LocationLink struct {
	TargetURI       string
	TargetLine      uint32
	TargetCharacter uint32
}

// ToLocation flattens a LocationLink into a Location.
func (l LocationLink) ToLocation() Location {
	return Location{URI: l.TargetURI, Line: l.TargetLine, Character: l.TargetCharacter}
}
