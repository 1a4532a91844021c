package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/kittclouds/talestat/internal/ingest"
	"github.com/kittclouds/talestat/internal/logging"
	"github.com/kittclouds/talestat/internal/store"
	"github.com/kittclouds/talestat/internal/watch"
	"github.com/kittclouds/talestat/pkg/config"
	"github.com/kittclouds/talestat/pkg/corpus"
	"github.com/kittclouds/talestat/pkg/docstore"
)

// settle is how long the watcher waits for a burst of file events to end
// before re-running the corpus.
const settle = 500 * time.Millisecond

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	if cfg.LogFile != "" {
		err = logging.InitFile(cfg.LogFile, cfg.LogLevel)
	} else {
		err = logging.Init(os.Stderr, cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		logging.Error("talestat failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.BooksDir, "books", cfg.BooksDir, "Directory of plain-text books (*.txt)")
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "YAML configuration file (phrases, characters, top_n, ...)")
	fs.StringVar(&cfg.PagesPath, "pages", cfg.PagesPath, "JSON or YAML map of book id to page count")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database to persist runs into")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel documents (0 = one per CPU, -1 = from config)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to this file instead of stderr")
	fs.BoolVar(&cfg.Watch, "watch", false, "Re-run whenever a book changes")
	fs.BoolVar(&cfg.JSON, "json", false, "Print the summary as JSON")
	fs.StringVar(&cfg.Similar, "similar", cfg.Similar, "Print the books whose speech profile is closest to this one (needs -db)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/talestat -books ./books -pages ./pages.json -db talestat.db")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.BooksDir != "" {
		cfg.BooksDir = filepath.Clean(cfg.BooksDir)
	}
	return cfg, nil
}

func loadRunConfig(cfg Config) (*config.Config, error) {
	opts := config.DefaultOptions()
	if cfg.ConfigPath != "" {
		var err error
		if opts, err = config.LoadOptions(cfg.ConfigPath); err != nil {
			return nil, err
		}
	}
	if cfg.Workers >= 0 {
		opts.Workers = cfg.Workers
	}
	return config.New(opts)
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	runCfg, err := loadRunConfig(cfg)
	if err != nil {
		return err
	}

	var pages map[string]int
	if cfg.PagesPath != "" {
		if pages, err = ingest.LoadPageCounts(cfg.PagesPath); err != nil {
			return err
		}
	}

	docs, err := ingest.LoadDir(cfg.BooksDir, pages)
	if err != nil {
		return err
	}
	books := docstore.New()
	books.Hydrate(docs)
	logging.Info("corpus loaded", "dir", cfg.BooksDir, "books", books.Count())

	var st *store.SQLiteStore
	if cfg.DBPath != "" {
		if st, err = store.NewSQLiteStoreWithDSN(cfg.DBPath); err != nil {
			return err
		}
		defer st.Close()
	}

	agg := corpus.New(runCfg)
	if err := runOnce(ctx, agg, books, st, cfg, out); err != nil {
		return err
	}
	if !cfg.Watch {
		return nil
	}
	return watchLoop(ctx, agg, books, st, cfg, pages, out)
}

func runOnce(ctx context.Context, agg *corpus.Aggregator, books *docstore.Store, st *store.SQLiteStore, cfg Config, out io.Writer) error {
	start := time.Now()
	summary, err := agg.Run(ctx, books.Documents())
	if err != nil {
		return err
	}
	logging.Info("run complete",
		"rows", len(summary.Rows),
		"failures", len(summary.Failures),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	scale := agg.Config().PageScale()
	if cfg.JSON {
		if err := writeJSON(out, summary, scale); err != nil {
			return err
		}
	} else {
		writeTable(out, summary, scale)
	}

	if st == nil {
		return nil
	}
	runID, err := st.SaveSummary(summary)
	if err != nil {
		return err
	}
	if cfg.Similar != "" {
		neighbors, err := st.SimilarDocuments(runID, cfg.Similar, 5)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nclosest speech profiles to %s:\n", cfg.Similar)
		for _, n := range neighbors {
			fmt.Fprintf(out, "  %s\t%.4f\n", n.DocumentID, n.Distance)
		}
	}
	return nil
}

func watchLoop(ctx context.Context, agg *corpus.Aggregator, books *docstore.Store, st *store.SQLiteStore, cfg Config, pages map[string]int, out io.Writer) error {
	w, err := watch.New([]string{ingest.Extension})
	if err != nil {
		return err
	}
	defer w.Stop()

	events, err := w.Watch(ctx, cfg.BooksDir)
	if err != nil {
		return err
	}
	logging.Info("watching", "dir", cfg.BooksDir)

	var pending <-chan time.Time
	changed := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			logging.Debug("book changed", "path", ev.Path, "op", ev.Operation)
			if ev.Operation == watch.FileDeleted {
				changed = books.Remove(ingest.DocumentID(ev.Path)) || changed
			} else {
				changed = books.Upsert(ingest.LoadFile(ev.Path, pages)) || changed
			}
			pending = time.After(settle)
		case <-pending:
			pending = nil
			if !changed {
				continue
			}
			changed = false
			if err := runOnce(ctx, agg, books, st, cfg, out); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logging.Error("re-run failed", "error", err)
			}
		}
	}
}

type report struct {
	Summary      *corpus.Summary        `json:"summary"`
	PerPages     []corpus.NormalizedRow `json:"per_pages"`
	PhraseTotals map[string]int         `json:"phrase_totals"`
	SpeechTotals map[string]int         `json:"speech_totals"`
}

func writeJSON(out io.Writer, summary *corpus.Summary, scale float64) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report{
		Summary:      summary,
		PerPages:     corpus.PerPages(summary, scale),
		PhraseTotals: summary.PhraseTotals(),
		SpeechTotals: summary.SpeechTotals(),
	})
}

func writeTable(out io.Writer, summary *corpus.Summary, scale float64) {
	speakers := append(append([]string(nil), summary.Characters...), "unknown")

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "book\twords\tpages\tquotes\t%s\n", strings.Join(speakers, "\t"))
	for _, row := range summary.Rows {
		pages := "-"
		if row.PageCount != nil {
			pages = fmt.Sprint(*row.PageCount)
		}
		counts := make([]string, len(speakers))
		for i, name := range speakers {
			counts[i] = fmt.Sprint(row.Speech[name])
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", row.DocumentID, row.WordCount, pages, row.QuotedSpans, strings.Join(counts, "\t"))
	}
	tw.Flush()

	totals := summary.PhraseTotals()
	phrases := append([]string(nil), summary.Phrases...)
	sort.SliceStable(phrases, func(i, j int) bool { return totals[phrases[i]] > totals[phrases[j]] })
	fmt.Fprintln(out, "\nphrases:")
	for _, p := range phrases {
		fmt.Fprintf(out, "  %-16s %d\n", p, totals[p])
	}

	fmt.Fprintf(out, "\nper %g pages:\n", scale)
	for _, n := range corpus.PerPages(summary, scale) {
		if n.Words == nil {
			fmt.Fprintf(out, "  %s\tno page count\n", n.DocumentID)
			continue
		}
		fmt.Fprintf(out, "  %s\twords=%.1f\n", n.DocumentID, *n.Words)
	}

	for _, f := range summary.Failures {
		fmt.Fprintf(out, "\nskipped %s: %v\n", f.DocumentID, f.Err)
	}
}
