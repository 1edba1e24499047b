package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences handles textDocument/references. A local
// occurrence's references are scoped to its own scopeId so same-named
// locals in unrelated functions stay out of the result; a module-scope
// occurrence has no scope filter.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	pos := params.Position
	s.logger.Debug("references request", "uri", uri, "line", pos.Line, "character", pos.Character)

	occ, found := s.occurrenceAtPosition(uri, uint32(pos.Line), uint32(pos.Character))
	if !found || s.deps.Merged == nil {
		return nil, nil
	}

	var scopeFilter map[string]struct{}
	if occ.isLocal {
		scopeFilter = map[string]struct{}{occ.scopeId: {}}
	}

	refs := s.deps.Merged.FindReferencesByName(occ.name, scopeFilter)
	out := make([]protocol.Location, 0, len(refs))
	for _, ref := range refs {
		out = append(out, referenceLocation(ref))
	}

	if params.Context.IncludeDeclaration {
		for _, sym := range s.deps.Merged.FindDefinitions(occ.name) {
			out = append(out, symbolLocation(sym))
		}
	}
	return out, nil
}
