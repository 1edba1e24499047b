// Package shard implements the Shard Store component: durable
// per-file JSON records under a two-level hex-prefixed directory, with
// atomic writes and a compiled-in version guard.
package shard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/smartindex/smartindex/pkg/worker"
)

// Version is the compiled-in shard format. A shard whose ShardVersion
// doesn't match is discarded on load and the file re-indexed.
const Version = 1

// FileShard is the persistent record for one source file.
type FileShard struct {
	URI             string                `json:"uri"`
	ContentHash     string                `json:"contentHash"`
	Mtime           int64                 `json:"mtime"`
	ShardVersion    int                   `json:"shardVersion"`
	Symbols         []worker.Symbol       `json:"symbols"`
	References      []worker.Reference    `json:"references"`
	Imports         []worker.ImportInfo   `json:"imports"`
	ReExports       []worker.ReExportInfo `json:"reExports"`
	TypeAnnotations map[string]string     `json:"typeAnnotations,omitempty"`
	LastIndexedAt   int64                 `json:"lastIndexedAt"`
}

// StableSymbolID returns sym's content-based identifier within this
// shard: "<fileHash[0:8]>:<containerPath>.<name>", suffixed with
// "#<signatureHash>" when the symbol has one (overload discrimination).
// Inserting lines above the symbol changes neither the container path
// nor the hash prefix, so the ID survives position shifts and can
// stitch references across re-indexings. These IDs identify symbols
// across shards; they are never used as shard filenames — shards are
// addressed by URI hash (see PathFor).
func (s *FileShard) StableSymbolID(sym worker.Symbol) string {
	prefix := s.ContentHash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	path := sym.Name
	if sym.ContainerName != "" {
		path = strings.ReplaceAll(sym.ContainerName, "::", ".") + "." + sym.Name
	}
	id := prefix + ":" + path
	if sym.SignatureHash != "" {
		id += "#" + sym.SignatureHash
	}
	return id
}

// Store is a durable shard repository rooted at a cache directory, with
// each shard addressed by the hash of its URI.
type Store struct {
	root   string // <cacheRoot>/index
	logger *slog.Logger
}

// New creates a Store rooted at <cacheDir>/index, creating it if absent.
func New(cacheDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root := filepath.Join(cacheDir, "index")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating shard root %q: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

// PathFor returns the on-disk path for uri's shard:
// <h[0:2]>/<h[2:4]>/<h>.json where h = sha256(uri) hex, so no directory
// level ever holds more than 256 subdirectories.
func (s *Store) PathFor(uri string) string {
	h := hashURI(uri)
	return filepath.Join(s.root, h[0:2], h[2:4], h+".json")
}

func hashURI(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:])
}

// Put serializes shard and writes it atomically (write-tmp + rename), so a
// crash mid-write never corrupts a previously-readable shard.
func (s *Store) Put(shard *FileShard) error {
	shard.ShardVersion = Version

	path := s.PathFor(shard.URI)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating shard directory %q: %w", dir, err)
	}

	data, err := json.Marshal(shard)
	if err != nil {
		return fmt.Errorf("marshaling shard for %q: %w", shard.URI, err)
	}

	tmp, err := os.CreateTemp(dir, ".shard-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp shard file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp shard file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp shard file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming shard into place: %w", err)
	}
	return nil
}

// ErrShardCorrupt is returned when a shard exists on disk but cannot be
// trusted: either its JSON is malformed or its ShardVersion is stale.
var ErrShardCorrupt = fmt.Errorf("shard corrupt")

// Get reads and parses the shard for uri. A missing file returns
// (nil, nil) — callers treat absence as a cache miss, not an error.
// A shard whose version doesn't match the compiled-in constant, or whose
// JSON fails to parse, is unlinked and ErrShardCorrupt is returned so the
// caller can re-index.
func (s *Store) Get(uri string) (*FileShard, error) {
	path := s.PathFor(uri)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading shard %q: %w", path, err)
	}

	var shard FileShard
	if err := json.Unmarshal(data, &shard); err != nil {
		s.logger.Warn("shard corrupt, unlinking", "uri", uri, "path", path, "error", err)
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s: %v", ErrShardCorrupt, uri, err)
	}

	if shard.ShardVersion != Version {
		s.logger.Debug("shard version mismatch, unlinking", "uri", uri, "got", shard.ShardVersion, "want", Version)
		os.Remove(path)
		return nil, fmt.Errorf("%w: version mismatch for %s (got %d, want %d)", ErrShardCorrupt, uri, shard.ShardVersion, Version)
	}

	return &shard, nil
}

// Delete unlinks the shard for uri. Leaf/intermediate directories are left
// in place — they are not pruned.
func (s *Store) Delete(uri string) error {
	err := os.Remove(s.PathFor(uri))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting shard for %q: %w", uri, err)
	}
	return nil
}

// ListAll recursively walks the two-level shard tree and invokes fn with
// each shard it can successfully load. Entries that fail to parse or carry
// a stale version are unlinked along the way rather than surfaced as a
// traversal error.
func (s *Store) ListAll(fn func(*FileShard) error) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			s.logger.Warn("failed to read shard during traversal", "path", path, "error", readErr)
			return nil
		}

		var shard FileShard
		if jsonErr := json.Unmarshal(data, &shard); jsonErr != nil {
			s.logger.Warn("corrupt shard during traversal, unlinking", "path", path, "error", jsonErr)
			os.Remove(path)
			return nil
		}
		if shard.ShardVersion != Version {
			s.logger.Debug("stale-version shard during traversal, unlinking", "path", path)
			os.Remove(path)
			return nil
		}

		return fn(&shard)
	})
}

// Clear recursively removes every shard, preserving the root directory
// itself.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading shard root %q: %w", s.root, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			return fmt.Errorf("clearing %q: %w", e.Name(), err)
		}
	}
	return nil
}
