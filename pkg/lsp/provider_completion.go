package lsp

import (
	"bytes"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const completionLimit = 50

// textDocumentCompletion handles textDocument/completion: the identifier
// fragment immediately before the cursor is extracted from the open
// buffer's latest text and used as a workspace/symbol-style subsequence
// query against the Merged Index.
//
//nolint:nilnil // LSP protocol: nil result means no completions
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	pos := params.Position
	s.logger.Debug("completion request", "uri", uri, "line", pos.Line, "character", pos.Character)

	if s.deps.Dynamic == nil || s.deps.Merged == nil {
		return nil, nil
	}

	text := s.deps.Dynamic.Text(uri)
	if text == nil {
		return nil, nil
	}

	prefix := identifierPrefixAt(text, uint32(pos.Line), uint32(pos.Character))
	if prefix == "" {
		return nil, nil
	}

	symbols := s.deps.Merged.SearchSymbols(prefix, completionLimit)
	items := make([]protocol.CompletionItem, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if _, dup := seen[sym.Name]; dup {
			continue
		}
		seen[sym.Name] = struct{}{}

		kind := completionKindToLSP(sym.Kind)
		detail := string(sym.Kind)
		items = append(items, protocol.CompletionItem{
			Label:  sym.Name,
			Kind:   &kind,
			Detail: &detail,
		})
	}

	return protocol.CompletionList{IsIncomplete: len(symbols) >= completionLimit, Items: items}, nil
}

// identifierPrefixAt returns the run of identifier characters immediately
// preceding (line, character) in text, or "" if the cursor isn't
// immediately after one.
func identifierPrefixAt(text []byte, line, character uint32) string {
	lineStart := nthLineStart(text, line)
	if lineStart < 0 {
		return ""
	}
	lineBytes := text[lineStart:]
	if nl := bytes.IndexByte(lineBytes, '\n'); nl >= 0 {
		lineBytes = lineBytes[:nl]
	}

	col := int(character)
	if col > len(lineBytes) {
		col = len(lineBytes)
	}

	start := col
	for start > 0 && isIdentifierByte(lineBytes[start-1]) {
		start--
	}
	return string(lineBytes[start:col])
}

func isIdentifierByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// nthLineStart returns the byte offset of the start of the 0-based nth
// line in text, or -1 if text has fewer lines.
func nthLineStart(text []byte, n uint32) int {
	if n == 0 {
		return 0
	}
	offset := 0
	var lines uint32
	for {
		idx := bytes.IndexByte(text[offset:], '\n')
		if idx < 0 {
			return -1
		}
		offset += idx + 1
		lines++
		if lines == n {
			return offset
		}
	}
}
