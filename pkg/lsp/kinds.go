package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/smartindex/smartindex/pkg/worker"
)

// symbolKindToLSP maps a Symbol's SymbolKind to the protocol's
// numeric SymbolKind enum.
func symbolKindToLSP(kind worker.SymbolKind) protocol.SymbolKind {
	switch kind {
	case worker.SymbolKindClass:
		return protocol.SymbolKindClass
	case worker.SymbolKindInterface:
		return protocol.SymbolKindInterface
	case worker.SymbolKindTypeAlias:
		return protocol.SymbolKindTypeParameter
	case worker.SymbolKindEnum:
		return protocol.SymbolKindEnum
	case worker.SymbolKindFunction:
		return protocol.SymbolKindFunction
	case worker.SymbolKindMethod:
		return protocol.SymbolKindMethod
	case worker.SymbolKindProperty:
		return protocol.SymbolKindProperty
	case worker.SymbolKindVariable:
		return protocol.SymbolKindVariable
	case worker.SymbolKindParameter:
		return protocol.SymbolKindVariable
	default:
		return protocol.SymbolKindVariable
	}
}

// completionKindToLSP maps a Symbol's SymbolKind to the protocol's
// CompletionItemKind enum.
func completionKindToLSP(kind worker.SymbolKind) protocol.CompletionItemKind {
	switch kind {
	case worker.SymbolKindClass:
		return protocol.CompletionItemKindClass
	case worker.SymbolKindInterface:
		return protocol.CompletionItemKindInterface
	case worker.SymbolKindTypeAlias:
		return protocol.CompletionItemKindClass
	case worker.SymbolKindEnum:
		return protocol.CompletionItemKindEnum
	case worker.SymbolKindFunction:
		return protocol.CompletionItemKindFunction
	case worker.SymbolKindMethod:
		return protocol.CompletionItemKindMethod
	case worker.SymbolKindProperty:
		return protocol.CompletionItemKindProperty
	case worker.SymbolKindVariable:
		return protocol.CompletionItemKindVariable
	case worker.SymbolKindParameter:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindText
	}
}
