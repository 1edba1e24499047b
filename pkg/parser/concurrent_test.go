package parser

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrent parses of the same grammar must share one bounded pool
// without races or deadlocks — the Background Index's worker pool drives
// the manager from several goroutines at once.
func TestConcurrentParseSameGrammar(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	const goroutines = 64
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			source := []byte(fmt.Sprintf("export const value%d: number = %d;\n", i, i))
			tree, err := manager.Parse(source, LanguageTypeScript, false)
			if err != nil {
				errs <- err
				return
			}
			defer tree.Close()
			if tree.RootNode().HasError() {
				errs <- fmt.Errorf("goroutine %d: unexpected parse error", i)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// Mixed grammars exercise the lazy per-grammar pool creation path
// concurrently: TS, TSX, and JS parses racing on first use must each end
// up with exactly one pool.
func TestConcurrentParseMixedGrammars(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	type job struct {
		source []byte
		lang   Language
		isTSX  bool
	}
	jobs := []job{
		{[]byte("interface User { id: string }\n"), LanguageTypeScript, false},
		{[]byte("export const App = () => <span/>;\n"), LanguageTypeScript, true},
		{[]byte("module.exports = function () {};\n"), LanguageJavaScript, false},
	}

	var wg sync.WaitGroup
	for round := 0; round < 16; round++ {
		for _, j := range jobs {
			j := j
			wg.Add(1)
			go func() {
				defer wg.Done()
				tree, err := manager.Parse(j.source, j.lang, j.isTSX)
				assert.NoError(t, err)
				if tree != nil {
					tree.Close()
				}
			}()
		}
	}
	wg.Wait()

	manager.mu.RLock()
	defer manager.mu.RUnlock()
	assert.Len(t, manager.pools, 3, "one pool per grammar")
}

// The pool never builds more parsers than its slot count, no matter how
// much demand races against it.
func TestPoolBoundsParserCount(t *testing.T) {
	manager := NewParserManager(nil)
	defer manager.Close()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := manager.Parse([]byte("const a = 1;\n"), LanguageJavaScript, false)
			assert.NoError(t, err)
			if tree != nil {
				tree.Close()
			}
		}()
	}
	wg.Wait()

	manager.mu.RLock()
	pool := manager.pools[grammarKey{lang: LanguageJavaScript}]
	manager.mu.RUnlock()
	require.NotNil(t, pool)
	assert.LessOrEqual(t, pool.builtCount(), cap(pool.slots))
}
