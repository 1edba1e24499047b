package lsp

import (
	"sync"

	"github.com/google/uuid"
)

// requestTracker assigns a correlation token to long-running requests
// and records which
// tokens $/cancelRequest has marked cancelled, so a handler iterating a
// large candidate set (workspace/symbol, findDeadCode) can poll
// IsCancelled between batches and stop reading shards early.
type requestTracker struct {
	mu        sync.Mutex
	cancelled map[string]bool
}

func newRequestTracker() *requestTracker {
	return &requestTracker{cancelled: make(map[string]bool)}
}

// NewToken issues a fresh correlation token for one request.
func (t *requestTracker) NewToken() string {
	return uuid.NewString()
}

// Cancel marks token as cancelled.
func (t *requestTracker) Cancel(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled[token] = true
}

// IsCancelled reports whether token has been cancelled.
func (t *requestTracker) IsCancelled(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled[token]
}

// Forget drops token's bookkeeping once its request has completed.
func (t *requestTracker) Forget(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cancelled, token)
}
