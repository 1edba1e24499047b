package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/smartindex/smartindex/pkg/worker"
)

// toUInteger converts a uint32 index to protocol.UInteger.
func toUInteger(n uint32) protocol.UInteger {
	return protocol.UInteger(n)
}

// symbolLocation builds an LSP Location spanning sym's identifier token
// — a Symbol's range always points at the name, never its enclosing
// construct.
func symbolLocation(sym worker.Symbol) protocol.Location {
	return protocol.Location{
		URI: sym.URI,
		Range: protocol.Range{
			Start: protocol.Position{Line: toUInteger(sym.Line), Character: toUInteger(sym.Character)},
			End:   protocol.Position{Line: toUInteger(sym.Line), Character: toUInteger(sym.Character + uint32(len(sym.Name)))},
		},
	}
}

// referenceLocation builds an LSP Location spanning ref's identifier
// token.
func referenceLocation(ref worker.Reference) protocol.Location {
	return protocol.Location{
		URI: ref.URI,
		Range: protocol.Range{
			Start: protocol.Position{Line: toUInteger(ref.Line), Character: toUInteger(ref.Character)},
			End:   protocol.Position{Line: toUInteger(ref.Line), Character: toUInteger(ref.Character + uint32(len(ref.Name)))},
		},
	}
}

// occurrence is whichever Symbol or Reference sits under a cursor.
type occurrence struct {
	name      string
	isLocal   bool
	scopeId   string
	line      uint32
	character uint32
}

// occurrenceAtPosition finds the Symbol or Reference in uri whose
// identifier token contains (line, character), checking symbols first
// (declarations take priority over a same-position usage, which cannot
// actually coexist but keeps the search deterministic).
func (s *Server) occurrenceAtPosition(uri string, line, character uint32) (occurrence, bool) {
	if s.deps.Merged == nil {
		return occurrence{}, false
	}

	for _, sym := range s.deps.Merged.GetFileSymbols(uri) {
		if sym.Line == line && character >= sym.Character && character <= sym.Character+uint32(len(sym.Name)) {
			return occurrence{name: sym.Name, line: sym.Line, character: sym.Character}, true
		}
	}
	for _, ref := range s.deps.Merged.GetFileReferences(uri) {
		if ref.Line == line && character >= ref.Character && character <= ref.Character+uint32(len(ref.Name)) {
			return occurrence{name: ref.Name, isLocal: ref.IsLocal, scopeId: ref.ScopeId, line: ref.Line, character: ref.Character}, true
		}
	}
	return occurrence{}, false
}
