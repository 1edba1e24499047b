package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartindex/smartindex/pkg/background"
	"github.com/smartindex/smartindex/pkg/config"
	"github.com/smartindex/smartindex/pkg/dynamic"
	"github.com/smartindex/smartindex/pkg/parser"
	"github.com/smartindex/smartindex/pkg/parser/queries"
	"github.com/smartindex/smartindex/pkg/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTiers(t *testing.T) (*dynamic.Index, *background.Index, string) {
	t.Helper()
	root := t.TempDir()

	pm := parser.NewParserManager(testLogger())
	t.Cleanup(func() { pm.Close() })
	qm := queries.NewQueryManager(pm, testLogger())
	ex := worker.NewExtractor(pm, qm, testLogger())

	cfg := config.DefaultConfig()
	exclude := background.NewExcludeFunc(root, cfg.ExcludePatterns)

	bg, err := background.New(root, cfg, exclude, ex, testLogger())
	require.NoError(t, err)
	require.NoError(t, bg.Init())

	dyn := dynamic.New(ex)
	return dyn, bg, root
}

// eventually polls cond until it becomes true or timeout elapses, since the
// orchestrator's debounce timers settle on background goroutines.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, cond(), "condition did not become true within %s", timeout)
}

func TestOnBufferChangedOnlyUpdatesDynamic(t *testing.T) {
	dyn, bg, _ := newTestTiers(t)
	o := New(dyn, bg, nil, 30*time.Millisecond, testLogger())
	defer o.Stop()

	o.OnBufferChanged("file:///a.ts", []byte("export const foo = 1;"))

	eventually(t, time.Second, func() bool {
		return len(dyn.FindDefinitions("foo")) > 0
	})
	require.Empty(t, bg.FindDefinitions("foo"))
}

func TestOnBufferChangedCoalescesRapidEdits(t *testing.T) {
	dyn, bg, _ := newTestTiers(t)
	o := New(dyn, bg, nil, 50*time.Millisecond, testLogger())
	defer o.Stop()

	o.OnBufferChanged("file:///a.ts", []byte("export const foo = 1;"))
	time.Sleep(10 * time.Millisecond)
	o.OnBufferChanged("file:///a.ts", []byte("export const bar = 1;"))

	eventually(t, time.Second, func() bool {
		return len(dyn.FindDefinitions("bar")) > 0
	})
	require.Empty(t, dyn.FindDefinitions("foo"))
}

func TestOnBufferSavedIsImmediate(t *testing.T) {
	dyn, bg, root := newTestTiers(t)
	o := New(dyn, bg, nil, time.Hour, testLogger())
	defer o.Stop()

	path := filepath.Join(root, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const foo = 1;"), 0o644))

	o.OnBufferSaved(path, []byte("export const foo = 1;"))

	require.NotEmpty(t, dyn.FindDefinitions("foo"))
	require.NotEmpty(t, bg.FindDefinitions("foo"))
}

func TestOnBufferClosedCancelsPendingTimerAndClearsDynamic(t *testing.T) {
	dyn, bg, _ := newTestTiers(t)
	o := New(dyn, bg, nil, time.Hour, testLogger())
	defer o.Stop()

	o.OnBufferChanged("file:///a.ts", []byte("export const foo = 1;"))
	o.OnBufferClosed("file:///a.ts")

	bufferPending, _ := o.PendingCounts()
	require.Zero(t, bufferPending)
	require.False(t, dyn.IsOpen("file:///a.ts"))
}

func TestExclusionAppliesAtEarliestStage(t *testing.T) {
	dyn, bg, _ := newTestTiers(t)
	exclude := func(uri string) bool { return true }
	o := New(dyn, bg, exclude, 20*time.Millisecond, testLogger())
	defer o.Stop()

	o.OnBufferChanged("file:///skip.ts", []byte("export const foo = 1;"))
	time.Sleep(100 * time.Millisecond)

	bufferPending, _ := o.PendingCounts()
	require.Zero(t, bufferPending)
	require.Empty(t, dyn.FindDefinitions("foo"))
}

func TestWatchFilesystemPicksUpExternalEdits(t *testing.T) {
	dyn, bg, root := newTestTiers(t)
	o := New(dyn, bg, nil, 50*time.Millisecond, testLogger())
	defer o.Stop()

	require.NoError(t, o.WatchFilesystem(root))

	path := filepath.Join(root, "ext.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const external = 1;"), 0o644))

	eventually(t, 3*time.Second, func() bool {
		return len(bg.FindDefinitions("external")) > 0
	})
}

func TestWatchFilesystemPicksUpDeletion(t *testing.T) {
	dyn, bg, root := newTestTiers(t)
	o := New(dyn, bg, nil, 50*time.Millisecond, testLogger())
	defer o.Stop()

	path := filepath.Join(root, "gone.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const gone = 1;"), 0o644))
	require.NoError(t, bg.UpdateFile(path))
	require.NotEmpty(t, bg.FindDefinitions("gone"))

	require.NoError(t, o.WatchFilesystem(root))
	require.NoError(t, os.Remove(path))

	eventually(t, 3*time.Second, func() bool {
		return len(bg.FindDefinitions("gone")) == 0
	})
}

func TestStopIsIdempotent(t *testing.T) {
	dyn, bg, root := newTestTiers(t)
	o := New(dyn, bg, nil, 50*time.Millisecond, testLogger())
	require.NoError(t, o.WatchFilesystem(root))

	require.NoError(t, o.Stop())
	require.NoError(t, o.Stop())
}
