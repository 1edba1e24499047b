package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache serves source-file bytes to the indexing pipeline through
// read-only memory mappings. One reconciliation pass touches a changed
// file twice — once to parse it, once to content-hash the shard it
// produced — and the cache lets both reads share a single mapping
// instead of copying the file through the page cache twice.
//
// The cache never watches the filesystem: a cached path keeps serving
// the same entry, with the length the file had when it was mapped, until
// Evict. The mapping is shared with the file, so an in-place rewrite
// shows through it; a file read through the fallback path keeps its old
// copy. Callers that know a path's content changed must Evict before the
// next Get.
type FileCache interface {
	// Get returns the mapped bytes for path, mapping it on first access.
	Get(path string) (*MappedFile, error)

	// Evict drops path, unmapping it if mapped. A no-op for uncached
	// paths.
	Evict(path string) error

	// Size reports how many files are currently cached.
	Size() int

	// Stats returns a point-in-time counter snapshot.
	Stats() FileCacheStats

	// Close unmaps everything. The cache is reusable afterward (it just
	// starts empty again), but Close is normally the last call.
	Close() error
}

// MappedFile is one cached file. Data is the mapping itself — slicing it
// touches only the pages the slice covers. For files that could not be
// mmapped (and for empty files), Data is a plain in-memory copy and File
// is nil.
type MappedFile struct {
	Path string
	Data []byte
	File *os.File
	Size int64
}

// FileCacheStats counts cache activity since construction.
type FileCacheStats struct {
	FilesCached  int
	Hits         int64
	Misses       int64
	MmapFailures int64
	MappedBytes  int64
}

// FileCacheConfig bounds the cache. Zero limits mean unlimited.
type FileCacheConfig struct {
	// MaxFiles caps cached entries; Get errors once it is reached.
	MaxFiles int

	// MaxMemoryMB caps total mapped bytes. Virtual address space, not
	// resident memory — only the pages a caller actually reads get
	// faulted in.
	MaxMemoryMB int

	// EnableMetrics turns the Stats counters on.
	EnableMetrics bool

	Logger *slog.Logger
}

// NewFileCache builds an empty cache. A nil config gets modest defaults
// sized for a large monorepo's source tree.
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = &FileCacheConfig{MaxFiles: 10000, MaxMemoryMB: 2048, EnableMetrics: true}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &fileCache{
		maxFiles: config.MaxFiles,
		maxBytes: int64(config.MaxMemoryMB) * 1 << 20,
		metrics:  config.EnableMetrics,
		logger:   logger,
		entries:  make(map[string]*MappedFile),
	}
}

type fileCache struct {
	maxFiles int
	maxBytes int64
	metrics  bool
	logger   *slog.Logger

	mu          sync.RWMutex
	entries     map[string]*MappedFile
	mappedBytes int64

	statsMu sync.Mutex
	stats   FileCacheStats
}

func (fc *fileCache) Get(path string) (*MappedFile, error) {
	fc.mu.RLock()
	mf, ok := fc.entries[path]
	fc.mu.RUnlock()
	if ok {
		fc.count(func(s *FileCacheStats) { s.Hits++ })
		return mf, nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if mf, ok = fc.entries[path]; ok {
		fc.count(func(s *FileCacheStats) { s.Hits++ })
		return mf, nil
	}
	fc.count(func(s *FileCacheStats) { s.Misses++ })

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if fc.maxFiles > 0 && len(fc.entries) >= fc.maxFiles {
		return nil, fmt.Errorf("file cache full: %d files cached", len(fc.entries))
	}
	if fc.maxBytes > 0 && fc.mappedBytes+info.Size() > fc.maxBytes {
		return nil, fmt.Errorf("file cache memory budget exhausted: %d bytes mapped", fc.mappedBytes)
	}

	mf, err = fc.load(path, info.Size())
	if err != nil {
		return nil, err
	}
	fc.entries[path] = mf
	fc.mappedBytes += mf.Size
	return mf, nil
}

// load maps path read-only, falling back to a plain read when mmap is
// unavailable (some filesystems refuse it) or the file is empty (zero
// bytes cannot be mapped).
func (fc *fileCache) load(path string, size int64) (*MappedFile, error) {
	if size == 0 {
		return &MappedFile{Path: path, Data: nil, Size: 0}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		fc.count(func(s *FileCacheStats) { s.MmapFailures++ })
		fc.logger.Debug("mmap failed, reading file instead", "path", path, "error", err)

		buf, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read %q after mmap failure (%v): %w", path, err, readErr)
		}
		return &MappedFile{Path: path, Data: buf, Size: int64(len(buf))}, nil
	}

	return &MappedFile{Path: path, Data: data, File: f, Size: size}, nil
}

func (fc *fileCache) Evict(path string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	mf, ok := fc.entries[path]
	if !ok {
		return nil
	}
	delete(fc.entries, path)
	fc.mappedBytes -= mf.Size
	return unmapEntry(mf)
}

func (fc *fileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.entries)
}

func (fc *fileCache) Stats() FileCacheStats {
	fc.mu.RLock()
	cached := len(fc.entries)
	mapped := fc.mappedBytes
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()
	out := fc.stats
	out.FilesCached = cached
	out.MappedBytes = mapped
	return out
}

func (fc *fileCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var firstErr error
	for path, mf := range fc.entries {
		if err := unmapEntry(mf); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %q: %w", path, err)
		}
	}
	fc.entries = make(map[string]*MappedFile)
	fc.mappedBytes = 0
	return firstErr
}

func (fc *fileCache) count(update func(*FileCacheStats)) {
	if !fc.metrics {
		return
	}
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}

func unmapEntry(mf *MappedFile) error {
	var errs []error
	if mf.File != nil {
		m := mmap.MMap(mf.Data)
		if err := m.Unmap(); err != nil {
			errs = append(errs, err)
		}
		if err := mf.File.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}
