package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/smartindex/smartindex/pkg/worker"
)

// textDocumentDefinition handles textDocument/definition.
//
//nolint:nilnil // LSP protocol: nil result means "no definition found"
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	pos := params.Position
	s.logger.Debug("definition request", "uri", uri, "line", pos.Line, "character", pos.Character)

	occ, found := s.occurrenceAtPosition(uri, uint32(pos.Line), uint32(pos.Character))
	if !found || s.deps.Merged == nil {
		return nil, nil
	}

	defs := s.deps.Merged.FindDefinitions(occ.name)
	if len(defs) == 0 {
		return nil, nil
	}
	return dedupeLocations(defs), nil
}

func dedupeLocations(symbols []worker.Symbol) []protocol.Location {
	type key struct {
		uri  string
		line uint32
		char uint32
	}
	seen := make(map[key]struct{}, len(symbols))
	out := make([]protocol.Location, 0, len(symbols))
	for _, sym := range symbols {
		k := key{sym.URI, sym.Line, sym.Character}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, symbolLocation(sym))
	}
	return out
}
