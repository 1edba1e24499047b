package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentRename handles textDocument/rename: renames every
// definition and reference of the occurrence under the cursor, reusing
// FindDefinitions/FindReferencesByName exactly as references/definition
// do and applying the same local-scope filter a bare references request
// would.
//
//nolint:nilnil // LSP protocol: nil result means nothing to rename
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	uri := params.TextDocument.URI
	pos := params.Position
	s.logger.Debug("rename request", "uri", uri, "line", pos.Line, "character", pos.Character, "newName", params.NewName)

	if s.deps.Merged == nil {
		return nil, nil
	}

	occ, found := s.occurrenceAtPosition(uri, uint32(pos.Line), uint32(pos.Character))
	if !found {
		return nil, nil
	}

	var scopeFilter map[string]struct{}
	if occ.isLocal {
		scopeFilter = map[string]struct{}{occ.scopeId: {}}
	}

	changes := make(map[string][]protocol.TextEdit)
	for _, sym := range s.deps.Merged.FindDefinitions(occ.name) {
		appendRenameEdit(changes, sym.URI, sym.Line, sym.Character, sym.Name, params.NewName)
	}
	for _, ref := range s.deps.Merged.FindReferencesByName(occ.name, scopeFilter) {
		appendRenameEdit(changes, ref.URI, ref.Line, ref.Character, ref.Name, params.NewName)
	}

	if len(changes) == 0 {
		return nil, nil
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

func appendRenameEdit(changes map[string][]protocol.TextEdit, uri string, line, character uint32, oldName, newName string) {
	changes[uri] = append(changes[uri], protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: toUInteger(line), Character: toUInteger(character)},
			End:   protocol.Position{Line: toUInteger(line), Character: toUInteger(character + uint32(len(oldName)))},
		},
		NewText: newName,
	})
}
