package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/smartindex/smartindex/pkg/worker"
)

// textDocumentHover handles textDocument/hover: resolves the occurrence
// under the cursor to its declaring Symbol (via the Dynamic/Background
// symbol table directly for a declaration, or a FindDefinitions lookup
// for a usage) and renders its kind, container, and any domain metadata
// as Markdown.
//
//nolint:nilnil // LSP protocol: nil result means no hover info
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	pos := params.Position
	s.logger.Debug("hover request", "uri", uri, "line", pos.Line, "character", pos.Character)

	if s.deps.Merged == nil {
		return nil, nil
	}

	occ, found := s.occurrenceAtPosition(uri, uint32(pos.Line), uint32(pos.Character))
	if !found {
		return nil, nil
	}

	sym, found := s.resolveSymbolForHover(uri, occ)
	if !found {
		return nil, nil
	}

	declaredType := s.deps.Merged.GetFileTypeAnnotations(uri)[occ.name]

	content := protocol.MarkupContent{
		Kind:  protocol.MarkupKindMarkdown,
		Value: hoverMarkdown(sym, declaredType),
	}
	rng := symbolLocation(sym).Range
	return &protocol.Hover{Contents: content, Range: &rng}, nil
}

// resolveSymbolForHover finds the Symbol that best describes occ: if occ
// sits on its own declaration, that Symbol; otherwise the first
// definition FindDefinitions(occ.name) reports, preferring one declared
// in the same file.
func (s *Server) resolveSymbolForHover(uri string, occ occurrence) (worker.Symbol, bool) {
	for _, sym := range s.deps.Merged.GetFileSymbols(uri) {
		if sym.Name == occ.name && sym.Line == occ.line && sym.Character == occ.character {
			return sym, true
		}
	}

	defs := s.deps.Merged.FindDefinitions(occ.name)
	if len(defs) == 0 {
		return worker.Symbol{}, false
	}
	for _, sym := range defs {
		if sym.URI == uri {
			return sym, true
		}
	}
	return defs[0], true
}

// hoverMarkdown renders sym's hover card. declaredType, when non-empty, is
// the occurrence's own file's type-annotation lookup for the hovered
// name (e.g. `const service: UserService = ...` → "UserService") —
// it describes the occurrence, not necessarily sym itself, so it's shown
// as a separate line rather than folded into sym's own declaration kind.
func hoverMarkdown(sym worker.Symbol, declaredType string) string {
	var b strings.Builder
	if sym.ContainerName != "" {
		fmt.Fprintf(&b, "**%s** `%s.%s`\n\n", sym.Kind, containerDisplayName(sym.ContainerName), sym.Name)
	} else {
		fmt.Fprintf(&b, "**%s** `%s`\n\n", sym.Kind, sym.Name)
	}
	if sym.DomainMetadata != nil {
		fmt.Fprintf(&b, "domain role: `%s`", sym.DomainMetadata.Kind)
		if sym.DomainMetadata.TypeString != "" {
			fmt.Fprintf(&b, " (`%s`)", sym.DomainMetadata.TypeString)
		}
		b.WriteString("\n\n")
	}
	if declaredType != "" {
		fmt.Fprintf(&b, "declared type: `%s`\n\n", declaredType)
	}
	fmt.Fprintf(&b, "%s:%d", sym.URI, sym.Line+1)
	return b.String()
}
