package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// parserPool hands out tree-sitter parsers for one (language, TSX)
// grammar. Parsers are expensive CGO objects, so the pool builds them
// lazily up to its slot count and reuses them across parses; when every
// slot is in use, acquire blocks until a release.
//
// The slots channel starts full of nil placeholders: pulling a nil means
// "this slot has never been built", and the drawn slot is materialized
// into a real parser before being handed out. Releasing always returns
// the (now non-nil) parser to the channel, so the pool converges on at
// most cap(slots) live parsers.
type parserPool struct {
	lang    Language
	isTSX   bool
	grammar *ts.Language
	logger  *slog.Logger

	slots chan *ts.Parser

	mu     sync.Mutex
	built  []*ts.Parser
	closed bool
}

func newParserPool(lang Language, langPtr unsafe.Pointer, isTSX bool, size int, logger *slog.Logger) *parserPool {
	if size < 1 {
		size = 1
	}
	p := &parserPool{
		lang:    lang,
		isTSX:   isTSX,
		grammar: ts.NewLanguage(langPtr),
		logger:  logger,
		slots:   make(chan *ts.Parser, size),
	}
	for i := 0; i < size; i++ {
		p.slots <- nil
	}
	return p
}

// acquire draws a parser, building one the first time an unused slot is
// drawn. Blocks when all slots are in use.
func (p *parserPool) acquire() (*ts.Parser, error) {
	parser := <-p.slots
	if parser != nil {
		return parser, nil
	}

	parser = ts.NewParser()
	if parser == nil {
		p.slots <- nil // give the slot back unbuilt
		return nil, fmt.Errorf("creating %s parser", p.lang)
	}
	if err := parser.SetLanguage(p.grammar); err != nil {
		parser.Close()
		p.slots <- nil
		return nil, fmt.Errorf("binding %s grammar: %w", p.lang, err)
	}

	p.mu.Lock()
	p.built = append(p.built, parser)
	built := len(p.built)
	p.mu.Unlock()

	p.logger.Debug("built pooled parser", "language", p.lang.String(), "tsx", p.isTSX, "built", built)
	return parser, nil
}

// release returns a parser to its slot. Must be called exactly once per
// successful acquire.
func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return // close already freed it via the built list
	}
	p.slots <- parser
}

// close frees every parser ever built, including any still checked out.
// Callers must not acquire or parse after close; an in-flight release
// becomes a no-op.
func (p *parserPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, parser := range p.built {
		parser.Close()
	}
	p.built = nil
}

func (p *parserPool) builtCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.built)
}
