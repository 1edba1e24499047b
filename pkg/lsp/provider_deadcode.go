package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/smartindex/smartindex/pkg/worker"
)

// deadCodeCommand is the command name the server advertises in its
// ExecuteCommandProvider capability. workspace/executeCommand is the
// standard LSP extension point for editor-invoked custom commands
// (unlike a bespoke non-standard method), so the command rides on it
// rather than a hand-rolled request name.
const deadCodeCommand = "smart-indexer/findDeadCode"

// deadCodeResult is one exported symbol with zero cross-file references.
type deadCodeResult struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	URI       string `json:"uri"`
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// statsCommand returns one Stats Manager snapshot, so an editor can show
// an index-status readout without a side channel to the CLI.
const statsCommand = "smart-indexer/stats"

// workspaceExecuteCommand dispatches workspace/executeCommand requests.
func (s *Server) workspaceExecuteCommand(_ *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	switch params.Command {
	case deadCodeCommand:
		return s.findDeadCode(), nil
	case statsCommand:
		if s.deps.Stats == nil {
			return nil, nil
		}
		return s.deps.Stats.Snapshot(), nil
	default:
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
}

// findDeadCode answers smart-indexer/findDeadCode: every
// exported symbol with zero references from outside its own declaring
// file, excluding any symbol whose leading comment carries a `@public`/
// `@api` annotation.
func (s *Server) findDeadCode() []deadCodeResult {
	if s.deps.Merged == nil {
		return nil
	}

	var all []worker.Symbol
	if s.deps.Background != nil {
		all = append(all, s.deps.Background.AllSymbols()...)
	}
	if s.deps.Dynamic != nil {
		all = append(all, s.deps.Dynamic.AllSymbols()...)
	}

	var dead []deadCodeResult
	for _, sym := range all {
		if !sym.Exported || sym.PubliclyAnnotated {
			continue
		}
		if hasCrossFileReference(s.deps.Merged.FindReferencesByName(sym.Name, nil), sym.URI) {
			continue
		}
		dead = append(dead, deadCodeResult{
			Name:      sym.Name,
			Kind:      string(sym.Kind),
			URI:       sym.URI,
			Line:      sym.Line,
			Character: sym.Character,
		})
	}
	return dead
}

func hasCrossFileReference(refs []worker.Reference, declaringURI string) bool {
	for _, ref := range refs {
		if ref.URI != declaringURI {
			return true
		}
	}
	return false
}
