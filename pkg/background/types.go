// Package background implements the Background Index component: it owns
// the Shard Store plus the in-memory metadata that lets queries resolve
// a name to a URI without hydrating every shard on disk.
package background

// Metadata is the persisted metadata.json sidecar beside the shard
// tree.
type Metadata struct {
	ShardVersion    int    `json:"shardVersion"`
	LastFullIndexAt int64  `json:"lastFullIndexAt"`
	LastGitHeadHint string `json:"lastGitHeadHint,omitempty"`
}

// fileMeta is the in-memory per-URI bookkeeping entry backing the
// mtime/content-hash change detection.
type fileMeta struct {
	ContentHash   string
	Mtime         int64
	LastIndexedAt int64
}

// Stats is a point-in-time readout of the Background Index's counters,
// consumed by the Stats Manager.
type Stats struct {
	FilesTracked    int
	ParsesPerformed int64
	ShardReads      int64
	ShardWrites     int64
	ShardHydrations int64
	FilesPurged     int64
	FilesSkipped    int64
	LastFullIndexAt int64
}
