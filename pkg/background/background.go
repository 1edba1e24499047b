package background

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/smartindex/smartindex/pkg/config"
	"github.com/smartindex/smartindex/pkg/shard"
	"github.com/smartindex/smartindex/pkg/util"
	"github.com/smartindex/smartindex/pkg/worker"
)

// ExcludeFunc reports whether uri (or the workspace-relative path derived
// from it) must never be indexed or stored.
type ExcludeFunc func(uri string) bool

// Index is the Background Index: Shard Store + in-memory
// fileMetadata/symbolNameIndex/referenceNameIndex, a bounded worker pool,
// and the query surface every LSP request ultimately reaches through the
// Merged Index.
//
// Shared-resource policy: the name→URI maps are written only by
// this Index's own methods, serialized by mu; shard files are
// single-writer because pool.submit coalesces concurrent jobs for the
// same URI into "only the latest wins".
type Index struct {
	workspaceRoot string
	cacheDir      string
	store         *shard.Store
	exclude       ExcludeFunc
	cfg           config.Config
	extractor     *worker.Extractor
	logger        *slog.Logger

	mu                 sync.RWMutex
	fileMetadata       map[string]fileMeta
	symbolNameIndex    map[string]map[string]struct{} // name -> set<URI>
	referenceNameIndex map[string]map[string]struct{} // name -> set<URI>
	symbolsByURI       map[string][]worker.Symbol
	referencesByURI    map[string][]worker.Reference
	typeAnnotsByURI    map[string]map[string]string

	hydrateCache *lru.Cache[string, *shard.FileShard]

	// fileCache mmaps source files on demand for both the worker pool's
	// read-to-parse step and the content-hash step below, so a file
	// touched twice in the same reconciliation pass (parsed, then hashed
	// for the shard it just produced) is only mapped once.
	fileCache util.FileCache

	metaPath string
	metadata Metadata

	parses    atomic.Int64
	shardRW   atomic.Int64
	hydration atomic.Int64
	purged    atomic.Int64
	skipped   atomic.Int64
}

// New constructs a Background Index rooted at workspaceRoot, with shards
// under <workspaceRoot>/<cfg.CacheDirectory>/index.
func New(workspaceRoot string, cfg config.Config, exclude ExcludeFunc, extractor *worker.Extractor, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cacheDir := filepath.Join(workspaceRoot, cfg.CacheDirectory)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %q: %w", cacheDir, err)
	}

	store, err := shard.New(cacheDir, logger)
	if err != nil {
		return nil, err
	}

	hydrateCache, err := lru.New[string, *shard.FileShard](256)
	if err != nil {
		return nil, fmt.Errorf("creating hydration cache: %w", err)
	}

	if exclude == nil {
		exclude = func(string) bool { return false }
	}

	fileCache := util.NewFileCache(&util.FileCacheConfig{
		MaxFiles:      20000,
		MaxMemoryMB:   4096,
		EnableMetrics: true,
		Logger:        logger,
	})

	idx := &Index{
		workspaceRoot:      workspaceRoot,
		cacheDir:           cacheDir,
		store:              store,
		exclude:            wrapExcludeCacheDir(exclude, cacheDir),
		cfg:                cfg,
		extractor:          extractor,
		logger:             logger,
		fileMetadata:       make(map[string]fileMeta),
		symbolNameIndex:    make(map[string]map[string]struct{}),
		referenceNameIndex: make(map[string]map[string]struct{}),
		symbolsByURI:       make(map[string][]worker.Symbol),
		referencesByURI:    make(map[string][]worker.Reference),
		typeAnnotsByURI:    make(map[string]map[string]string),
		hydrateCache:       hydrateCache,
		fileCache:          fileCache,
		metaPath:           filepath.Join(cacheDir, "metadata.json"),
	}
	return idx, nil
}

// Close releases the Background Index's file-cache mappings. Shards
// already written to disk are unaffected; a subsequent Init rebuilds the
// in-memory indices from them as usual.
func (idx *Index) Close() error {
	return idx.fileCache.Close()
}

// wrapExcludeCacheDir hard-excludes the cache directory itself,
// regardless of what the caller's exclude function says — the index must
// never index its own shards.
func wrapExcludeCacheDir(inner ExcludeFunc, cacheDir string) ExcludeFunc {
	cleanCacheDir := filepath.Clean(cacheDir)
	return func(uri string) bool {
		if isWithinDir(uri, cleanCacheDir) {
			return true
		}
		return inner(uri)
	}
}

// isWithinDir reports whether path is dir itself or lives underneath it.
func isWithinDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// Init loads the metadata file (creating it if absent), sweeps every shard
// via ListAll to repopulate the in-memory indices, and drops shards whose
// version is stale or whose URI now matches an exclusion rule.
func (idx *Index) Init() error {
	if err := idx.loadMetadata(); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	toPurge := make([]string, 0)
	err := idx.store.ListAll(func(sh *shard.FileShard) error {
		if idx.exclude(sh.URI) {
			toPurge = append(toPurge, sh.URI)
			return nil
		}
		idx.applyShardLocked(sh)
		return nil
	})
	if err != nil {
		return fmt.Errorf("sweeping shards: %w", err)
	}

	for _, uri := range toPurge {
		if err := idx.store.Delete(uri); err != nil {
			idx.logger.Warn("failed to purge excluded shard", "uri", uri, "error", err)
			continue
		}
		idx.purged.Add(1)
	}

	return nil
}

// applyShardLocked installs sh's contents into the in-memory indices.
// Caller must hold idx.mu.
func (idx *Index) applyShardLocked(sh *shard.FileShard) {
	idx.fileMetadata[sh.URI] = fileMeta{
		ContentHash:   sh.ContentHash,
		Mtime:         sh.Mtime,
		LastIndexedAt: sh.LastIndexedAt,
	}
	idx.symbolsByURI[sh.URI] = sh.Symbols
	idx.referencesByURI[sh.URI] = sh.References
	if len(sh.TypeAnnotations) > 0 {
		idx.typeAnnotsByURI[sh.URI] = sh.TypeAnnotations
	}

	for _, sym := range sh.Symbols {
		idx.addToNameSetLocked(idx.symbolNameIndex, sym.Name, sh.URI)
	}
	for _, ref := range sh.References {
		idx.addToNameSetLocked(idx.referenceNameIndex, ref.Name, sh.URI)
	}
}

func (idx *Index) addToNameSetLocked(set map[string]map[string]struct{}, name, uri string) {
	uris, ok := set[name]
	if !ok {
		uris = make(map[string]struct{})
		set[name] = uris
	}
	uris[uri] = struct{}{}
}

// removeURILocked drops every trace of uri from the in-memory indices.
// Caller must hold idx.mu.
func (idx *Index) removeURILocked(uri string) {
	delete(idx.fileMetadata, uri)
	delete(idx.symbolsByURI, uri)
	delete(idx.referencesByURI, uri)
	delete(idx.typeAnnotsByURI, uri)
	idx.hydrateCache.Remove(uri)

	for name, uris := range idx.symbolNameIndex {
		delete(uris, uri)
		if len(uris) == 0 {
			delete(idx.symbolNameIndex, name)
		}
	}
	for name, uris := range idx.referenceNameIndex {
		delete(uris, uri)
		if len(uris) == 0 {
			delete(idx.referenceNameIndex, name)
		}
	}
}

// ComputeHashFunc hashes a file's content, used by EnsureUpToDate's
// mtime-skip/content-hash fallback. EnsureUpToDate defaults to the
// Background Index's own fileCache-backed hasher when nil; the parameter
// exists so tests can substitute a deterministic or failing hasher
// without touching disk.
type ComputeHashFunc func(path string) (string, error)

// computeHashViaCache hashes a file's content with SHA-256, reading the
// bytes through idx.fileCache rather than a dedicated os.ReadFile/mmap
// path. The worker pool (pool.go) reads the same file through the same
// cache to parse it, so a file that changed is mapped once per
// reconciliation pass and shared between extraction and hashing, not
// read twice.
func (idx *Index) computeHashViaCache(path string) (string, error) {
	mf, err := idx.fileCache.Get(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(mf.Data)
	return hex.EncodeToString(sum[:]), nil
}

// ProgressFunc reports incremental progress during EnsureUpToDate.
type ProgressFunc func(done, total int, uri string)

// EnsureUpToDate reconciles the index against disk: for
// each candidate URI, skip excluded files (purging any stale shard),
// index files with no shard, skip files whose mtime is unchanged, and
// content-hash files whose mtime changed to decide between an mtime-only
// update and a full reindex.
func (idx *Index) EnsureUpToDate(candidateURIs []string, computeHash ComputeHashFunc, onProgress ProgressFunc) error {
	if computeHash == nil {
		computeHash = idx.computeHashViaCache
	}

	toIndex := make([]string, 0, len(candidateURIs))

	for _, uri := range candidateURIs {
		if idx.exclude(uri) {
			idx.mu.RLock()
			_, hadShard := idx.fileMetadata[uri]
			idx.mu.RUnlock()
			if hadShard {
				idx.RemoveFile(uri)
			}
			continue
		}

		info, statErr := os.Stat(uri)
		if statErr != nil {
			continue
		}
		if idx.cfg.MaxIndexedFileSize > 0 && info.Size() > idx.cfg.MaxIndexedFileSize {
			idx.skipped.Add(1)
			continue
		}

		idx.mu.RLock()
		meta, known := idx.fileMetadata[uri]
		idx.mu.RUnlock()

		mtimeMs := info.ModTime().UnixMilli()

		switch {
		case !known:
			toIndex = append(toIndex, uri)
		case meta.Mtime == mtimeMs:
			idx.skipped.Add(1)
			continue
		default:
			// mtime moved; evict before hashing so a stale mapping from an
			// earlier Get doesn't mask content that actually changed.
			if err := idx.fileCache.Evict(uri); err != nil {
				idx.logger.Warn("failed to evict stale file mapping", "uri", uri, "error", err)
			}
			hash, err := computeHash(uri)
			if err != nil {
				toIndex = append(toIndex, uri)
				continue
			}
			if hash == meta.ContentHash {
				idx.mu.Lock()
				meta.Mtime = mtimeMs
				idx.fileMetadata[uri] = meta
				idx.mu.Unlock()
				idx.skipped.Add(1)
				continue
			}
			toIndex = append(toIndex, uri)
		}
	}

	return idx.indexBatch(toIndex, onProgress)
}

// indexBatch runs the worker pool over uris and waits for every result.
func (idx *Index) indexBatch(uris []string, onProgress ProgressFunc) error {
	if len(uris) == 0 {
		return nil
	}

	numWorkers := idx.cfg.MaxConcurrentIndexJobs
	if numWorkers <= 0 {
		numWorkers = util.DefaultParallelism()
	}

	p := newPool(numWorkers, idx.extractor, idx.fileCache, idx.logger)
	p.start()

	done := make(chan struct{})
	completed := 0
	go func() {
		defer close(done)
		for res := range p.Results() {
			completed++
			if res.Err != nil {
				idx.logger.Warn("indexing failed", "uri", res.URI, "error", res.Err)
			} else {
				idx.commitResult(res.Result)
			}
			if onProgress != nil {
				onProgress(completed, len(uris), res.URI)
			}
		}
	}()

	for _, uri := range uris {
		if err := p.submit(uri); err != nil {
			idx.logger.Warn("failed to submit index job", "uri", uri, "error", err)
		}
	}

	p.stop()
	<-done
	return nil
}

// commitResult writes result's shard (content-hash + mtime recorded from
// disk at write time) and mirrors it into the in-memory indices.
func (idx *Index) commitResult(result *worker.IndexedFileResult) {
	info, err := os.Stat(result.URI)
	if err != nil {
		idx.logger.Warn("file vanished before commit", "uri", result.URI, "error", err)
		return
	}

	hash, err := idx.computeHashViaCache(result.URI)
	if err != nil {
		idx.logger.Warn("failed to hash file for shard", "uri", result.URI, "error", err)
		return
	}

	sh := &shard.FileShard{
		URI:             result.URI,
		ContentHash:     hash,
		Mtime:           info.ModTime().UnixMilli(),
		Symbols:         result.Symbols,
		References:      result.References,
		Imports:         result.Imports,
		ReExports:       result.ReExports,
		TypeAnnotations: result.TypeAnnotations,
		LastIndexedAt:   time.Now().UnixMilli(),
	}

	if err := idx.store.Put(sh); err != nil {
		idx.logger.Warn("failed to write shard", "uri", result.URI, "error", err)
		return
	}
	idx.shardRW.Add(1)
	idx.parses.Add(1)

	idx.mu.Lock()
	idx.removeURILocked(result.URI)
	idx.applyShardLocked(sh)
	idx.mu.Unlock()
}

// UpdateFile reindexes uri from disk regardless of mtime — the save and
// filesystem-modification path. The file is always re-read; when its
// content hash matches the tracked entry and the shard is still on disk,
// nothing is written.
func (idx *Index) UpdateFile(uri string) error {
	if idx.exclude(uri) {
		return idx.RemoveFile(uri)
	}
	if info, err := os.Stat(uri); err == nil && idx.cfg.MaxIndexedFileSize > 0 && info.Size() > idx.cfg.MaxIndexedFileSize {
		idx.skipped.Add(1)
		return ErrOutOfBudget
	}

	if err := idx.fileCache.Evict(uri); err != nil {
		idx.logger.Warn("failed to evict stale file mapping", "uri", uri, "error", err)
	}
	mf, err := idx.fileCache.Get(uri)
	if err != nil {
		return fmt.Errorf("reading %q: %w", uri, err)
	}
	if hash, err := idx.computeHashViaCache(uri); err == nil {
		idx.mu.RLock()
		meta, known := idx.fileMetadata[uri]
		idx.mu.RUnlock()
		if _, statErr := os.Stat(idx.store.PathFor(uri)); known && meta.ContentHash == hash && statErr == nil {
			idx.skipped.Add(1)
			return nil
		}
	}
	result, err := idx.extractor.ExtractFile(uri, mf.Data)
	if err != nil {
		return fmt.Errorf("extracting %q: %w", uri, err)
	}
	idx.commitResult(result)
	return nil
}

// RemoveFile deletes uri's shard and drops it from every in-memory map
//.
func (idx *Index) RemoveFile(uri string) error {
	if err := idx.store.Delete(uri); err != nil {
		return err
	}
	idx.mu.Lock()
	idx.removeURILocked(uri)
	idx.mu.Unlock()
	idx.purged.Add(1)
	return nil
}

// Clear recursively purges every shard and resets all in-memory state
//.
func (idx *Index) Clear() error {
	if err := idx.store.Clear(); err != nil {
		return err
	}
	idx.mu.Lock()
	idx.fileMetadata = make(map[string]fileMeta)
	idx.symbolNameIndex = make(map[string]map[string]struct{})
	idx.referenceNameIndex = make(map[string]map[string]struct{})
	idx.symbolsByURI = make(map[string][]worker.Symbol)
	idx.referencesByURI = make(map[string][]worker.Reference)
	idx.typeAnnotsByURI = make(map[string]map[string]string)
	idx.hydrateCache.Purge()
	idx.mu.Unlock()
	return nil
}

// Stats returns a point-in-time readout for the Stats Manager.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	tracked := len(idx.fileMetadata)
	idx.mu.RUnlock()

	return Stats{
		FilesTracked:    tracked,
		ParsesPerformed: idx.parses.Load(),
		ShardReads:      idx.shardRW.Load(),
		ShardWrites:     idx.shardRW.Load(),
		ShardHydrations: idx.hydration.Load(),
		FilesPurged:     idx.purged.Load(),
		FilesSkipped:    idx.skipped.Load(),
		LastFullIndexAt: idx.metadata.LastFullIndexAt,
	}
}

func (idx *Index) loadMetadata() error {
	data, err := os.ReadFile(idx.metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			idx.metadata = Metadata{ShardVersion: shard.Version}
			return idx.saveMetadata()
		}
		return fmt.Errorf("reading metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		idx.logger.Warn("metadata file corrupt, recreating", "error", err)
		idx.metadata = Metadata{ShardVersion: shard.Version}
		return idx.saveMetadata()
	}
	idx.metadata = meta
	return nil
}

func (idx *Index) saveMetadata() error {
	idx.metadata.ShardVersion = shard.Version
	data, err := json.MarshalIndent(idx.metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(idx.metaPath, data, 0o644)
}

// MarkFullIndex stamps metadata.json with the current time as the last
// full-index timestamp, and optionally the git HEAD hint.
func (idx *Index) MarkFullIndex(gitHeadHint string) error {
	idx.metadata.LastFullIndexAt = time.Now().UnixMilli()
	if gitHeadHint != "" {
		idx.metadata.LastGitHeadHint = gitHeadHint
	}
	return idx.saveMetadata()
}

// NewExcludeFunc builds an ExcludeFunc from doublestar glob patterns
// matched against the path relative to workspaceRoot.
func NewExcludeFunc(workspaceRoot string, patterns []string) ExcludeFunc {
	return func(uri string) bool {
		rel, err := filepath.Rel(workspaceRoot, uri)
		if err != nil {
			rel = uri
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range patterns {
			if matched, _ := doublestar.PathMatch(pattern, rel); matched {
				return true
			}
		}
		return false
	}
}
