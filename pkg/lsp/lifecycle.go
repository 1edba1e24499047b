package lsp

import (
	"os"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDidOpen handles textDocument/didOpen: the buffer's full
// text is already known, so the Dynamic Index is updated immediately
// rather than through the debounced buffer-change stream.
func (s *Server) textDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Debug("textDocument/didOpen", "uri", uri)

	if s.deps.Dynamic == nil {
		return nil
	}
	if err := s.deps.Dynamic.Update(uri, []byte(params.TextDocument.Text)); err != nil {
		s.logger.Warn("dynamic update on open failed", "uri", uri, "error", err)
	}
	return nil
}

// textDocumentDidChange handles textDocument/didChange: the Watcher's
// buffer-changed stream debounces the Dynamic update. The server
// advertises full document sync, so every change carries the complete
// text.
func (s *Server) textDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change, ok := params.ContentChanges[len(params.ContentChanges)-1].(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		s.logger.Debug("ignoring non-whole content change", "uri", uri)
		return nil
	}

	if s.deps.Orchestrator != nil {
		s.deps.Orchestrator.OnBufferChanged(uri, []byte(change.Text))
	} else if s.deps.Dynamic != nil {
		if err := s.deps.Dynamic.Update(uri, []byte(change.Text)); err != nil {
			s.logger.Warn("dynamic update on change failed", "uri", uri, "error", err)
		}
	}
	return nil
}

// textDocumentDidSave handles textDocument/didSave: an immediate
// Dynamic update plus an immediate Background updateFile. Falls back to
// reading the file from disk when the client didn't include text
// (includeText wasn't negotiated).
func (s *Server) textDocumentDidSave(_ *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Debug("textDocument/didSave", "uri", uri)

	var text []byte
	if params.Text != nil {
		text = []byte(*params.Text)
	} else {
		path, err := URIToPath(uri)
		if err != nil {
			s.logger.Warn("cannot resolve saved URI to path", "uri", uri, "error", err)
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("reading saved file failed", "uri", uri, "error", err)
			return nil
		}
		text = data
	}

	if s.deps.Orchestrator != nil {
		s.deps.Orchestrator.OnBufferSaved(uri, text)
	} else if s.deps.Dynamic != nil {
		if err := s.deps.Dynamic.Update(uri, text); err != nil {
			s.logger.Warn("dynamic update on save failed", "uri", uri, "error", err)
		}
	}
	return nil
}

// textDocumentDidClose handles textDocument/didClose.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Debug("textDocument/didClose", "uri", uri)

	if s.deps.Orchestrator != nil {
		s.deps.Orchestrator.OnBufferClosed(uri)
	} else if s.deps.Dynamic != nil {
		s.deps.Dynamic.Close(uri)
	}
	return nil
}
