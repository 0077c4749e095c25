package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/kwindex/internal/config"
	"github.com/dshills/kwindex/internal/extract"
	"github.com/dshills/kwindex/internal/indexer"
	"github.com/dshills/kwindex/internal/keywordlist"
	"github.com/dshills/kwindex/internal/matcher"
	"github.com/dshills/kwindex/internal/storage"
)

var (
	scanMode   string
	scanForce  bool
	scanHidden bool
	scanHits   bool
	scanJSON   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Index files or directories and record keyword hits",
	Long: `Chunk every file under the given paths and search the chunks for the
keyword lists enabled for ingest (KWINDEX_KEYWORD_LISTS and
KWINDEX_BUILTIN_LISTS). Unchanged files are skipped unless --force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanMode, "mode", "m", "", "extraction mode: auto, text, strings, utf16le, utf16be")
	scanCmd.Flags().BoolVarP(&scanForce, "force", "f", false, "re-index files even when unchanged")
	scanCmd.Flags().BoolVar(&scanHidden, "hidden", false, "descend into dot directories")
	scanCmd.Flags().BoolVar(&scanHits, "hits", false, "print the hits stored for the scanned sources")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(scanCmd)
}

// scanReport is the JSON form of a scan
type scanReport struct {
	Runs []scanRun `json:"runs"`
	Hits []scanHit `json:"hits,omitempty"`
}

type scanRun struct {
	JobID      string   `json:"job_id"`
	Indexed    int      `json:"documents_indexed"`
	Skipped    int      `json:"documents_skipped"`
	Failed     int      `json:"documents_failed"`
	Chunks     int      `json:"chunks_created"`
	Hits       int      `json:"hits_stored"`
	Attributes int      `json:"attributes_stored"`
	Abandoned  int      `json:"matching_abandoned,omitempty"`
	DurationMS int64    `json:"duration_ms"`
	Errors     []string `json:"errors,omitempty"`
}

func newScanRun(stats *indexer.Statistics) scanRun {
	return scanRun{
		JobID:      stats.JobID,
		Indexed:    stats.DocumentsIndexed,
		Skipped:    stats.DocumentsSkipped,
		Failed:     stats.DocumentsFailed,
		Chunks:     stats.ChunksCreated,
		Hits:       stats.HitsStored,
		Attributes: stats.AttributesStored,
		Abandoned:  stats.MatchingAbandoned,
		DurationMS: stats.Duration.Milliseconds(),
		Errors:     stats.ErrorMessages,
	}
}

type scanHit struct {
	Path       string            `json:"path"`
	ChunkID    int               `json:"chunk_id"`
	ListName   string            `json:"list_name"`
	Term       string            `json:"term"`
	HitText    string            `json:"hit_text"`
	Snippet    string            `json:"snippet,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	idx, err := newIndexer(store, cfg)
	if err != nil {
		return err
	}

	runCfg := cfg.IndexerConfig()
	runCfg.SkipUnchanged = !scanForce
	runCfg.IncludeHidden = scanHidden
	if scanMode != "" {
		mode, err := extract.ParseMode(scanMode)
		if err != nil {
			return err
		}
		runCfg.Mode = mode
	}

	ctx := cmd.Context()
	var (
		report scanReport
		roots  []string
		files  []string
	)
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", arg, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot scan %q: %w", arg, err)
		}
		roots = append(roots, path)
		if info.IsDir() {
			logger.Printf("indexing directory %s", path)
			stats, err := idx.IndexDirectory(ctx, path, runCfg)
			if err != nil {
				return fmt.Errorf("indexing %s failed: %w", path, err)
			}
			report.Runs = append(report.Runs, newScanRun(stats))
			continue
		}
		files = append(files, path)
	}
	if len(files) > 0 {
		stats, err := idx.IndexFiles(ctx, files, runCfg)
		if err != nil {
			return fmt.Errorf("indexing files failed: %w", err)
		}
		report.Runs = append(report.Runs, newScanRun(stats))
	}

	if scanHits {
		report.Hits, err = collectHits(cmd, store, roots)
		if err != nil {
			return err
		}
	}

	if scanJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, run := range report.Runs {
		cmd.Printf("Job %s: %d indexed, %d skipped, %d failed, %d chunks, %d hits (%dms)\n",
			run.JobID, run.Indexed, run.Skipped, run.Failed, run.Chunks, run.Hits, run.DurationMS)
		for _, msg := range run.Errors {
			cmd.Printf("  error: %s\n", msg)
		}
	}
	for _, h := range report.Hits {
		cmd.Printf("%s:%d [%s] %s: %s\n", h.Path, h.ChunkID, h.ListName, h.Term, h.HitText)
		for _, k := range slices.Sorted(maps.Keys(h.Attributes)) {
			cmd.Printf("    %s=%s\n", k, h.Attributes[k])
		}
	}
	return nil
}

// collectHits returns the stored hits of every source under roots
func collectHits(cmd *cobra.Command, store storage.Storage, roots []string) ([]scanHit, error) {
	ctx := cmd.Context()
	sources, err := store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	var hits []scanHit
	for _, src := range sources {
		if !underAny(src.Path, roots) {
			continue
		}
		stored, err := store.ListHitsBySource(ctx, src.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list hits of %s: %w", src.Path, err)
		}
		for _, h := range stored {
			attrs, err := store.ListAttributes(ctx, h.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list attributes: %w", err)
			}
			hits = append(hits, scanHit{
				Path:       src.Path,
				ChunkID:    h.ChunkID,
				ListName:   h.ListName,
				Term:       h.OriginalTerm,
				HitText:    h.HitText,
				Snippet:    h.Snippet,
				Attributes: attrs,
			})
		}
	}
	return hits, nil
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// openStore opens the configured database
func openStore(cfg *config.Config) (storage.Storage, error) {
	path, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// newIndexer builds an indexer over the ingest keyword lists
func newIndexer(store storage.Storage, cfg *config.Config) (*indexer.Indexer, error) {
	logger := newLogger(cfg)

	lists, err := cfg.LoadKeywordLists()
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword lists: %w", err)
	}
	bins, err := cfg.LoadBINLookup()
	if err != nil {
		return nil, fmt.Errorf("failed to load BIN table: %w", err)
	}

	ingest := keywordlist.ForIngest(lists)
	if len(ingest) == 0 {
		logger.Printf("no keyword lists enabled for ingest; documents will be chunked without hits")
	}
	m := matcher.New(ingest, cfg.MatcherConfig(), matcher.WithLogger(logger))

	opts := []indexer.Option{indexer.WithLogger(logger)}
	if bins != nil {
		opts = append(opts, indexer.WithBINLookup(bins))
	}
	return indexer.New(store, m, opts...), nil
}
