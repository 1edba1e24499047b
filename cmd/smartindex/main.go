// Command smartindex runs the smart-index language server: it
// wires the Worker, Shard Store, Background Index, Dynamic Index, Merged
// Index, Watcher/Orchestrator and Stats Manager together behind the LSP
// Glue layer and serves textDocument/* requests over stdio.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/smartindex/smartindex/pkg/background"
	"github.com/smartindex/smartindex/pkg/config"
	"github.com/smartindex/smartindex/pkg/dynamic"
	"github.com/smartindex/smartindex/pkg/lsp"
	"github.com/smartindex/smartindex/pkg/merged"
	"github.com/smartindex/smartindex/pkg/parser"
	"github.com/smartindex/smartindex/pkg/parser/queries"
	"github.com/smartindex/smartindex/pkg/shard"
	"github.com/smartindex/smartindex/pkg/stats"
	"github.com/smartindex/smartindex/pkg/util"
	"github.com/smartindex/smartindex/pkg/watcher"
	"github.com/smartindex/smartindex/pkg/worker"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		runServe(nil)
		return
	}

	command := os.Args[1]
	switch command {
	case "serve":
		runServe(os.Args[2:])
	case "init":
		runInit(os.Args[2:])
	case "scan":
		runScan(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "inspect":
		runInspect(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "version":
		fmt.Printf("smartindex %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`usage: smartindex <command> [flags]

commands:
  serve [--workspace path] [--log-level level]   run the language server over stdio (default)
  init [--workspace path]                        write a default .smart-index/config.json and gitignore entry
  scan [--workspace path] [--log-level level]    run one background-index pass over the workspace and exit
  watch [--workspace path] [--log-level level]   scan once, then keep indexing on filesystem changes until interrupted
  inspect --workspace path --uri file            print a file's current shard as formatted JSON
  stats [--workspace path]                       print a point-in-time Stats Manager snapshot
  version                                        print the version and exit
  help                                           print this message`)
}

// runInit writes a default config.json under the workspace's cache
// directory and ensures the cache directory is gitignored, without
// touching the index.
func runInit(args []string) {
	workspaceArg := "."
	for i := 0; i < len(args); i++ {
		if args[i] == "--workspace" && i+1 < len(args) {
			i++
			workspaceArg = args[i]
		}
	}

	root, err := resolveWorkspaceRoot(workspaceArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving workspace root: %v\n", err)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(root); err != nil {
		fmt.Fprintf(os.Stderr, "writing config: %v\n", err)
		os.Exit(1)
	}
	if err := background.EnsureGitignored(root, cfg.CacheDirectory); err != nil {
		fmt.Fprintf(os.Stderr, "updating .gitignore: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s/config.json\n", cfg.CacheDirectory)
}

// runScan performs a single EnsureUpToDate pass over the whole workspace
// and exits — the one-shot analogue of serve's initial scan, useful for
// warming the cache in CI or before opening an editor.
func runScan(args []string) {
	workspaceArg, logLevel := parseWorkspaceLogFlags(args)
	root, err := resolveWorkspaceRoot(workspaceArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving workspace root: %v\n", err)
		os.Exit(1)
	}
	logger := newCLILogger(logLevel)

	backgroundIdx, exclude, cfg, err := buildBackgroundIndex(root, logger)
	if err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
	defer backgroundIdx.Close()

	candidates, err := background.DiscoverWorkspaceFiles(root, exclude)
	if err != nil {
		logger.Error("discovering workspace files failed", "error", err)
		os.Exit(1)
	}

	var gitHeadHint string
	if cfg.EnableGitIntegration {
		if hint, err := background.GitHeadHint(root); err == nil {
			gitHeadHint = hint
		}
	}

	onProgress := func(done, total int, uri string) {
		if done%50 == 0 || done == total {
			logger.Info("scan progress", "done", done, "total", total)
		}
	}
	if err := backgroundIdx.EnsureUpToDate(candidates, nil, onProgress); err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
	if err := backgroundIdx.MarkFullIndex(gitHeadHint); err != nil {
		logger.Warn("could not persist full-index marker", "error", err)
	}
	fmt.Printf("scanned %d files\n", len(candidates))
}

// runWatch scans once, then keeps the Background Index current against
// filesystem events until interrupted (SIGINT/SIGTERM), without serving
// any LSP transport — useful for keeping a shared cache warm in CI.
func runWatch(args []string) {
	workspaceArg, logLevel := parseWorkspaceLogFlags(args)
	root, err := resolveWorkspaceRoot(workspaceArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving workspace root: %v\n", err)
		os.Exit(1)
	}
	logger := newCLILogger(logLevel)

	backgroundIdx, exclude, cfg, err := buildBackgroundIndex(root, logger)
	if err != nil {
		logger.Error("watch failed", "error", err)
		os.Exit(1)
	}
	defer backgroundIdx.Close()

	candidates, err := background.DiscoverWorkspaceFiles(root, exclude)
	if err != nil {
		logger.Error("discovering workspace files failed", "error", err)
		os.Exit(1)
	}
	if err := backgroundIdx.EnsureUpToDate(candidates, nil, nil); err != nil {
		logger.Error("initial scan failed", "error", err)
		os.Exit(1)
	}

	pm := parser.NewParserManager(logger)
	defer pm.Close()
	qm := queries.NewQueryManager(pm, logger)
	defer qm.Close()
	dynamicIdx := dynamic.New(worker.NewExtractor(pm, qm, logger))

	debounce := time.Duration(cfg.DebounceMs) * time.Millisecond
	orchestrator := watcher.New(dynamicIdx, backgroundIdx, exclude, debounce, logger)
	if err := orchestrator.WatchFilesystem(root); err != nil {
		logger.Error("starting filesystem watcher failed", "error", err)
		os.Exit(1)
	}
	defer orchestrator.Stop()

	logger.Info("watching for changes", "workspace", root)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("watch stopped")
}

// runInspect prints a single file's current shard as formatted JSON,
// followed by the stable symbol IDs derived from it.
func runInspect(args []string) {
	workspaceArg := "."
	uri := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--workspace":
			if i+1 < len(args) {
				i++
				workspaceArg = args[i]
			}
		case "--uri":
			if i+1 < len(args) {
				i++
				uri = args[i]
			}
		}
	}
	if uri == "" {
		fmt.Fprintln(os.Stderr, "inspect requires --uri <file>")
		os.Exit(1)
	}

	root, err := resolveWorkspaceRoot(workspaceArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving workspace root: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	cacheDir := filepath.Join(root, cfg.CacheDirectory)
	store, err := shard.New(cacheDir, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening shard store: %v\n", err)
		os.Exit(1)
	}

	sh, err := store.Get(uri)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading shard: %v\n", err)
		os.Exit(1)
	}
	if sh == nil {
		fmt.Fprintf(os.Stderr, "no shard on disk for %s (file has not been indexed)\n", uri)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(sh, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshaling shard: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if len(sh.Symbols) > 0 {
		fmt.Println("\nstable symbol ids:")
		for _, sym := range sh.Symbols {
			fmt.Printf("  %s\n", sh.StableSymbolID(sym))
		}
	}
}

// runStats prints a one-shot Stats Manager snapshot from a freshly
// initialized Background Index: the tracked-file count and last full-index
// time come from the cache on disk, while the parse/shard counters are
// in-memory and start at zero in this process — serve's long-running
// process holds the live numbers, but this is still useful from the CLI
// for a quick "how big is this cache" readout.
func runStats(args []string) {
	workspaceArg := "."
	for i := 0; i < len(args); i++ {
		if args[i] == "--workspace" && i+1 < len(args) {
			i++
			workspaceArg = args[i]
		}
	}

	root, err := resolveWorkspaceRoot(workspaceArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving workspace root: %v\n", err)
		os.Exit(1)
	}

	logger := newCLILogger("warn")
	backgroundIdx, _, _, err := buildBackgroundIndex(root, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening background index: %v\n", err)
		os.Exit(1)
	}
	defer backgroundIdx.Close()

	dynamicIdx := dynamic.New(nil)
	statsManager := stats.New(dynamicIdx, backgroundIdx, nil)
	snap := statsManager.Snapshot()

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshaling stats: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// parseWorkspaceLogFlags parses the --workspace/--log-level pair shared
// by scan/watch/serve.
func parseWorkspaceLogFlags(args []string) (workspace, logLevel string) {
	workspace, logLevel = ".", "info"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--workspace":
			if i+1 < len(args) {
				i++
				workspace = args[i]
			}
		case "--log-level":
			if i+1 < len(args) {
				i++
				logLevel = args[i]
			}
		}
	}
	return workspace, logLevel
}

func newCLILogger(logLevel string) *slog.Logger {
	return util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(logLevel),
		Format: util.FormatText,
		Output: os.Stderr,
	})
}

// buildBackgroundIndex loads config and constructs+initializes a
// Background Index for one-shot CLI subcommands (scan/watch/stats),
// without wiring the Dynamic Index, Watcher, or LSP Glue.
func buildBackgroundIndex(root string, logger *slog.Logger) (*background.Index, background.ExcludeFunc, config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("loading config: %w", err)
	}

	pm := parser.NewParserManager(logger)
	qm := queries.NewQueryManager(pm, logger)
	extractor := worker.NewExtractor(pm, qm, logger)

	exclude := background.NewExcludeFunc(root, cfg.ExcludePatterns)

	idx, err := background.New(root, cfg, exclude, extractor, logger)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("constructing background index: %w", err)
	}
	if err := idx.Init(); err != nil {
		return nil, nil, cfg, fmt.Errorf("initializing background index: %w", err)
	}
	return idx, exclude, cfg, nil
}

func runServe(args []string) {
	workspaceArg := "."
	logLevel := "info"

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--workspace":
			if i+1 < len(args) {
				i++
				workspaceArg = args[i]
			}
		case "--log-level":
			if i+1 < len(args) {
				i++
				logLevel = args[i]
			}
		}
	}

	root, err := resolveWorkspaceRoot(workspaceArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving workspace root: %v\n", err)
		os.Exit(1)
	}

	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(logLevel),
		Format: util.FormatJSON,
		Output: os.Stderr, // stdout is reserved for the LSP transport
	})
	util.SetDefault(logger)

	if err := serve(root, logger); err != nil {
		logger.Error("smartindex exited with error", "error", err)
		os.Exit(1)
	}
}

func resolveWorkspaceRoot(p string) (string, error) {
	if p == "." {
		return os.Getwd()
	}
	return p, nil
}

// serve wires every component and blocks serving the LSP stdio transport
// until the client sends exit.
func serve(workspaceRoot string, logger *slog.Logger) error {
	cfg, err := config.Load(workspaceRoot)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pm := parser.NewParserManager(logger)
	defer pm.Close()

	qm := queries.NewQueryManager(pm, logger)
	defer qm.Close()

	extractor := worker.NewExtractor(pm, qm, logger)

	exclude := background.NewExcludeFunc(workspaceRoot, cfg.ExcludePatterns)

	var backgroundIdx *background.Index
	if cfg.EnableBackgroundIndex {
		backgroundIdx, err = background.New(workspaceRoot, cfg, exclude, extractor, logger)
		if err != nil {
			return fmt.Errorf("constructing background index: %w", err)
		}
		defer backgroundIdx.Close()
		if err := backgroundIdx.Init(); err != nil {
			return fmt.Errorf("initializing background index: %w", err)
		}
		if err := background.EnsureGitignored(workspaceRoot, cfg.CacheDirectory); err != nil {
			logger.Warn("could not update .gitignore", "error", err)
		}

		candidates, err := background.DiscoverWorkspaceFiles(workspaceRoot, exclude)
		if err != nil {
			return fmt.Errorf("discovering workspace files: %w", err)
		}

		var gitHeadHint string
		if cfg.EnableGitIntegration {
			if hint, err := background.GitHeadHint(workspaceRoot); err == nil {
				gitHeadHint = hint
			} else {
				logger.Debug("no git head hint available", "error", err)
			}
		}

		onProgress := func(done, total int, uri string) {
			if done%50 == 0 || done == total {
				logger.Info("initial scan progress", "done", done, "total", total)
			}
		}
		if err := backgroundIdx.EnsureUpToDate(candidates, nil, onProgress); err != nil {
			return fmt.Errorf("initial workspace scan: %w", err)
		}
		if err := backgroundIdx.MarkFullIndex(gitHeadHint); err != nil {
			logger.Warn("could not persist full-index marker", "error", err)
		}
		logger.Info("initial workspace scan complete", "files", len(candidates))
	}

	dynamicIdx := dynamic.New(extractor)

	// backgroundSource stays a nil QuerySource interface (not a non-nil
	// interface wrapping a nil *background.Index) when the tier is
	// disabled, so the Merged Index's own background != nil guard works.
	var backgroundSource merged.QuerySource
	if backgroundIdx != nil {
		backgroundSource = backgroundIdx
	}
	mergedIdx := merged.New(dynamicIdx, backgroundSource, dynamicIdx)

	debounce := time.Duration(cfg.DebounceMs) * time.Millisecond
	orchestrator := watcher.New(dynamicIdx, backgroundIdx, exclude, debounce, logger)
	if err := orchestrator.WatchFilesystem(workspaceRoot); err != nil {
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}
	defer orchestrator.Stop()

	statsManager := stats.New(dynamicIdx, backgroundIdx, orchestrator)

	server := lsp.NewServer(logger, lsp.Deps{
		Merged:       mergedIdx,
		Dynamic:      dynamicIdx,
		Background:   backgroundIdx,
		Orchestrator: orchestrator,
		Stats:        statsManager,
	})

	logger.Info("smartindex ready", "workspace", workspaceRoot, "backgroundIndex", cfg.EnableBackgroundIndex)
	return server.RunStdio()
}
