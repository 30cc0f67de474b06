package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredpottier/relato/internal/cache"
	"github.com/fredpottier/relato/internal/pipeline"
	"github.com/fredpottier/relato/internal/source"
	"github.com/fredpottier/relato/internal/store"
	"github.com/fredpottier/relato/internal/worker"
)

var (
	batchDir     string
	batchServer  string
	batchIDs     []string
	batchWorkers int
	batchTimeout time.Duration
	batchDB      string
	batchOut     string
	batchNoCache bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve a batch of documents concurrently",
	Long: `Batch resolves many document exports with a bounded worker pool.
Documents are independent units of work; parallelism never crosses a
document boundary, so each report is byte-identical to a single-document
run.

Inputs come from a directory of JSON exports (--dir) or from the index
service (--server with --id). Reports go to --out as <id>.report.json;
promoted relations are upserted into the graph store when --db is set.

Example:
  relato batch --dir exports/ --db graph.db --workers 8
  relato batch --server http://index:8080 --id doc-a --id doc-b`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of document exports (*.json)")
	batchCmd.Flags().StringVar(&batchServer, "server", "", "index service base URL")
	batchCmd.Flags().StringSliceVar(&batchIDs, "id", nil, "document id to resolve (repeatable; default: all in --dir)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "concurrent document workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 2*time.Minute, "per-document timeout")
	batchCmd.Flags().StringVar(&batchDB, "db", "", "graph store path (omit to skip persistence)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "report output directory (omit to skip reports)")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable the document export cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := buildConfig()
	cfg.Concurrency.Workers = batchWorkers
	cfg.Source.CacheEnabled = !batchNoCache

	provider, ids, err := batchProvider()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no documents to resolve")
	}

	if batchOut != "" {
		if err := os.MkdirAll(batchOut, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	var st *store.Store
	if batchDB != "" {
		st, err = store.Open(batchDB)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	resolver := pipeline.NewResolver(cfg, slog.Default())
	processor := worker.NewBatchProcessor(provider, resolver, cfg.Concurrency.Workers, batchTimeout)

	start := time.Now()
	results := processor.Process(ctx, ids)

	var failed int
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.DocumentID, r.Error)
			continue
		}
		if st != nil {
			if err := st.SaveReport(ctx, r.Report); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: persist: %v\n", r.DocumentID, err)
				continue
			}
		}
		if batchOut != "" {
			path := filepath.Join(batchOut, r.DocumentID+".report.json")
			if err := writeReport(r.Report, path); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.DocumentID, err)
				continue
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s: %d promoted, %d candidates, %d rejected\n",
				r.DocumentID, r.Report.Stats.Promoted, r.Report.Stats.Candidates, r.Report.Stats.Rejected)
		}
	}

	fmt.Printf("Resolved %d/%d documents in %s\n", len(results)-failed, len(results), time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		return fmt.Errorf("%d documents failed", failed)
	}
	return nil
}

// batchProvider selects the document provider and the id list from the
// batch flags.
func batchProvider() (source.Provider, []string, error) {
	switch {
	case batchDir != "" && batchServer != "":
		return nil, nil, fmt.Errorf("--dir and --server are mutually exclusive")
	case batchDir != "":
		p := source.NewFileProvider(batchDir)
		ids := batchIDs
		if len(ids) == 0 {
			var err error
			ids, err = p.List()
			if err != nil {
				return nil, nil, err
			}
		}
		return p, ids, nil
	case batchServer != "":
		if len(batchIDs) == 0 {
			return nil, nil, fmt.Errorf("--server requires at least one --id")
		}
		cfg := buildConfig().Source
		cfg.BaseURL = batchServer
		cfg.CacheEnabled = !batchNoCache
		var c cache.Cache
		if cfg.CacheEnabled {
			cacheDir := filepath.Join(os.TempDir(), "relato-cache")
			c = cache.NewLayeredCache(cfg.CacheTTL, cacheDir, 24*time.Hour)
		}
		return source.NewClient(cfg, c), batchIDs, nil
	default:
		return nil, nil, fmt.Errorf("one of --dir or --server is required")
	}
}
