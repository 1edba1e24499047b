package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/smartindex/smartindex/pkg/worker"
)

// textDocumentDocumentSymbol handles textDocument/documentSymbol,
// building a hierarchy from each Symbol's ContainerName: a symbol whose
// ContainerName equals another symbol's "ContainerName::Name" path is
// that symbol's child, keyed on the Worker's own scope-chain string.
//
//nolint:nilnil // LSP protocol: nil result means no symbols
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	uri := params.TextDocument.URI
	s.logger.Debug("documentSymbol request", "uri", uri)

	if s.deps.Merged == nil {
		return nil, nil
	}
	symbols := s.deps.Merged.GetFileSymbols(uri)
	if len(symbols) == 0 {
		return nil, nil
	}
	return buildSymbolHierarchy(symbols), nil
}

func symbolPath(sym worker.Symbol) string {
	if sym.ContainerName == "" {
		return sym.Name
	}
	return sym.ContainerName + "::" + sym.Name
}

func buildSymbolHierarchy(symbols []worker.Symbol) []protocol.DocumentSymbol {
	byPath := make(map[string]*protocol.DocumentSymbol, len(symbols))
	childrenOf := make(map[string][]string)
	var topLevel []string

	for _, sym := range symbols {
		path := symbolPath(sym)
		ds := symbolToDocumentSymbol(sym)
		byPath[path] = &ds
		if sym.ContainerName == "" {
			topLevel = append(topLevel, path)
		} else {
			childrenOf[sym.ContainerName] = append(childrenOf[sym.ContainerName], path)
		}
	}

	var attach func(path string) protocol.DocumentSymbol
	attach = func(path string) protocol.DocumentSymbol {
		node := *byPath[path]
		for _, childPath := range childrenOf[path] {
			node.Children = append(node.Children, attach(childPath))
		}
		return node
	}

	out := make([]protocol.DocumentSymbol, 0, len(topLevel))
	for _, path := range topLevel {
		out = append(out, attach(path))
	}
	return out
}

func symbolToDocumentSymbol(sym worker.Symbol) protocol.DocumentSymbol {
	detail := string(sym.Kind)
	loc := symbolLocation(sym)
	return protocol.DocumentSymbol{
		Name:           sym.Name,
		Detail:         &detail,
		Kind:           symbolKindToLSP(sym.Kind),
		Range:          loc.Range,
		SelectionRange: loc.Range,
	}
}

// workspaceSymbol handles workspace/symbol: both tiers searched, merged,
// deduped, and sorted by the shared searchrank ordering.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	s.logger.Debug("workspace/symbol request", "query", params.Query)

	if s.deps.Merged == nil {
		return nil, nil
	}

	const defaultLimit = 256
	symbols := s.deps.Merged.SearchSymbols(params.Query, defaultLimit)
	out := make([]protocol.SymbolInformation, 0, len(symbols))
	for _, sym := range symbols {
		info := protocol.SymbolInformation{
			Name:     sym.Name,
			Kind:     symbolKindToLSP(sym.Kind),
			Location: symbolLocation(sym),
		}
		if sym.ContainerName != "" {
			container := containerDisplayName(sym.ContainerName)
			info.ContainerName = &container
		}
		out = append(out, info)
	}
	return out, nil
}

// containerDisplayName renders a "::"-joined scope chain the way an
// editor's symbol picker shows a container breadcrumb.
func containerDisplayName(containerName string) string {
	return strings.ReplaceAll(containerName, "::", ".")
}
