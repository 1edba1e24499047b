package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/smartindex/smartindex/pkg/util"
	"github.com/smartindex/smartindex/pkg/worker"
)

// indexJob is a single file-indexing task submitted to the pool.
type indexJob struct {
	URI string
	// seq disambiguates supersession: a later-submitted job for the same
	// URI always wins even if an earlier one completes second.
	seq uint64
}

type indexResult struct {
	URI    string
	Seq    uint64
	Result *worker.IndexedFileResult
	Err    error
}

// pool is a bounded worker pool over the Worker/Parser. Task submission
// for a URI already queued coalesces — only the newest submission for a
// URI wins.
type pool struct {
	numWorkers int
	extractor  *worker.Extractor
	fileCache  util.FileCache
	logger     *slog.Logger

	jobs    chan indexJob
	results chan indexResult

	seqMu   sync.Mutex
	nextSeq uint64
	// latestSeq tracks the highest sequence number submitted per URI so a
	// worker can discard a stale result before publishing it.
	latestSeq map[string]uint64

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	stopped atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

func newPool(numWorkers int, extractor *worker.Extractor, fileCache util.FileCache, logger *slog.Logger) *pool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &pool{
		numWorkers: numWorkers,
		extractor:  extractor,
		fileCache:  fileCache,
		logger:     logger,
		jobs:       make(chan indexJob, numWorkers*4),
		results:    make(chan indexResult, numWorkers*4),
		latestSeq:  make(map[string]uint64),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (p *pool) start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(job)
		}
	}
}

func (p *pool) process(job indexJob) {
	// Evict before Get: the file just changed (that's why it was
	// submitted), and FileCache never re-checks a cached path against
	// disk on its own.
	if err := p.fileCache.Evict(job.URI); err != nil {
		p.logger.Warn("failed to evict stale file mapping", "uri", job.URI, "error", err)
	}
	mf, err := p.fileCache.Get(job.URI)
	if err != nil {
		p.jobsFailed.Add(1)
		p.publish(indexResult{URI: job.URI, Seq: job.seq, Err: fmt.Errorf("reading %q: %w", job.URI, err)})
		return
	}

	result, err := p.extractor.ExtractFile(job.URI, mf.Data)
	if err != nil {
		p.jobsFailed.Add(1)
		p.publish(indexResult{URI: job.URI, Seq: job.seq, Err: fmt.Errorf("extracting %q: %w", job.URI, err)})
		return
	}

	p.jobsProcessed.Add(1)
	p.publish(indexResult{URI: job.URI, Seq: job.seq, Result: result})
}

// publish discards a result if a newer submission for the same URI has
// already been enqueued.
func (p *pool) publish(res indexResult) {
	p.seqMu.Lock()
	latest, tracked := p.latestSeq[res.URI]
	superseded := tracked && res.Seq < latest
	p.seqMu.Unlock()

	if superseded {
		p.logger.Debug("discarding superseded index result", "uri", res.URI, "seq", res.Seq, "latest", latest)
		return
	}

	select {
	case p.results <- res:
	case <-p.ctx.Done():
	}
}

// submit enqueues uri for indexing, recording it as the latest submission
// for that URI.
func (p *pool) submit(uri string) error {
	if p.stopped.Load() {
		return fmt.Errorf("pool stopped")
	}

	p.seqMu.Lock()
	p.nextSeq++
	seq := p.nextSeq
	p.latestSeq[uri] = seq
	p.seqMu.Unlock()

	p.jobsSubmitted.Add(1)

	select {
	case <-p.ctx.Done():
		return fmt.Errorf("pool cancelled")
	case p.jobs <- indexJob{URI: uri, seq: seq}:
		return nil
	}
}

func (p *pool) Results() <-chan indexResult { return p.results }

// stop closes the job queue and waits for the workers to drain it: jobs
// already queued are still processed, and every result is published
// before the results channel closes. indexBatch relies on this to wait
// for a whole batch.
func (p *pool) stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}
