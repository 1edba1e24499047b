// Package lsp implements the LSP Glue component: the external
// Language Server Protocol surface over the Merged Index, Dynamic Index,
// Background Index, and File Watcher/Orchestrator.
package lsp

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	// commonlog is a required dependency of github.com/tliron/glsp.
	// Silenced in NewServer via commonlog.Configure(0, nil) since this
	// server uses slog for all logging.
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple" // required backend for glsp

	"github.com/smartindex/smartindex/pkg/background"
	"github.com/smartindex/smartindex/pkg/dynamic"
	"github.com/smartindex/smartindex/pkg/merged"
	"github.com/smartindex/smartindex/pkg/stats"
	"github.com/smartindex/smartindex/pkg/watcher"
)

const serverName = "smart-index"

// Deps bundles every component the LSP Glue layer queries or drives.
// Background and Orchestrator may be nil when enableBackgroundIndex is
// false — their handlers then degrade to Dynamic-only results.
type Deps struct {
	Merged       *merged.Index
	Dynamic      *dynamic.Index
	Background   *background.Index
	Orchestrator *watcher.Orchestrator
	Stats        *stats.Manager
}

// Server is the smart-index language server.
type Server struct {
	logger *slog.Logger
	deps   Deps

	handler protocol.Handler
	server  *server.Server
	tracker *requestTracker

	shutdownCalled bool
	closeOnce      sync.Once
	closeErr       error
}

// NewServer constructs a Server wired to deps. If logger is nil,
// slog.Default() is used.
func NewServer(logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:  logger.With(slog.String("component", "lsp")),
		deps:    deps,
		tracker: newRequestTracker(),
	}

	commonlog.Configure(0, nil)

	s.handler = protocol.Handler{
		Initialize:    s.initialize,
		Initialized:   s.initialized,
		Shutdown:      s.shutdown,
		Exit:          s.exit,
		SetTrace:      s.setTrace,
		CancelRequest: s.cancelRequest,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		WorkspaceSymbol:            s.workspaceSymbol,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentRename:         s.textDocumentRename,

		WorkspaceExecuteCommand: s.workspaceExecuteCommand,
	}

	s.server = server.NewServer(&s.handler, serverName, false)
	return s
}

// Handler returns the protocol handler, for tests.
func (s *Server) Handler() *protocol.Handler {
	return &s.handler
}

// RunStdio runs the server over stdio transport.
func (s *Server) RunStdio() error {
	if err := s.server.RunStdio(); err != nil {
		return fmt.Errorf("run stdio: %w", err)
	}
	return nil
}

// Close closes the server's connection. Idempotent.
func (s *Server) Close() error {
	conn := s.server.GetStdio()
	if conn == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		if err := conn.Close(); err != nil {
			s.closeErr = fmt.Errorf("close connection: %w", err)
		}
	})
	return s.closeErr
}

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.logger.Info("initialize request received", "client", s.clientName(params))

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	if syncOpts, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		syncOpts.Change = &syncKind
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", "\""},
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{deadCodeCommand, statsCommand},
	}

	version := "dev"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	s.logger.Info("server initialized")
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	s.logger.Info("shutdown request received")
	s.shutdownCalled = true
	protocol.SetTraceValue(protocol.TraceValueOff)
	if s.deps.Orchestrator != nil {
		if err := s.deps.Orchestrator.Stop(); err != nil {
			s.logger.Warn("orchestrator stop failed", "error", err)
		}
	}
	return nil
}

func (s *Server) exit(_ *glsp.Context) error {
	exitCode := 0
	if !s.shutdownCalled {
		s.logger.Warn("exit called without shutdown")
		exitCode = 1
	}
	os.Exit(exitCode)
	return nil // unreachable
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// cancelRequest handles $/cancelRequest. glsp handles JSON-RPC-level
// cancellation internally; this hook marks the token cancelled for any
// handler that polls requestTracker.IsCancelled mid-query. Full
// per-request-ID correlation isn't available from glsp's handler
// signature in this version.
func (s *Server) cancelRequest(_ *glsp.Context, params *protocol.CancelParams) error {
	s.logger.Debug("cancelRequest", "id", params.ID)
	s.tracker.Cancel(fmt.Sprint(params.ID))
	return nil
}

func (s *Server) clientName(params *protocol.InitializeParams) string {
	if params.ClientInfo != nil {
		return params.ClientInfo.Name
	}
	return "unknown"
}
