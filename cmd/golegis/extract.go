package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/golegis"
	"github.com/brunobiangulo/golegis/export"
	"github.com/brunobiangulo/golegis/metrics"
	"github.com/brunobiangulo/golegis/store"
)

// extractOptions are the flags of the extract and watch commands.
type extractOptions struct {
	manifest    string
	formats     []string
	outDir      string
	basename    string
	dbPath      string
	persist     bool
	force       bool
	metricsFile string
	extractedAt string
}

func (o *extractOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.manifest, "manifest", "m", "", "Source manifest (YAML)")
	f.StringSliceVarP(&o.formats, "format", "f", nil, "Output formats: json, ts, xlsx (default from config)")
	f.StringVarP(&o.outDir, "out", "o", "", "Output directory (default from config)")
	f.StringVar(&o.basename, "basename", "", "Output file name without extension")
	f.BoolVar(&o.persist, "persist", false, "Save articles to the SQLite database")
	f.StringVar(&o.dbPath, "db", "", "Database path (implies --persist)")
	f.BoolVar(&o.force, "force", false, "Rewrite stored documents even when unchanged")
	f.StringVar(&o.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format")
	f.StringVar(&o.extractedAt, "extracted-at", "", "Timestamp written to export metadata (default now, RFC 3339)")
}

func extractCmd(g *globalFlags) *cobra.Command {
	var opts extractOptions
	cmd := &cobra.Command{
		Use:   "extract [files or globs...]",
		Short: "Extract articles from legal texts and write the data files",
		Example: `  golegis extract --manifest corpus.yaml --format json,ts,xlsx
  golegis extract "pdfs/*.pdf" --out out --db corpus.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			specs, err := resolveSources(cfg, opts.manifest, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, paths, err := runExtract(ctx, cfg, opts, specs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %d articles from %d documents (%d rejected, %d duplicates, %d failed)\n",
				res.RunID, len(res.Articles), res.Stats.Documents, res.Stats.Rejected,
				res.Stats.Duplicates, res.Stats.Failed)
			for _, p := range paths {
				fmt.Fprintf(out, "  wrote %s\n", p)
			}
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

// resolveSources picks the sources to read: command-line paths first, then
// the manifest, then the config file's sources.
func resolveSources(cfg golegis.Config, manifest string, args []string) ([]golegis.SourceSpec, error) {
	switch {
	case len(args) > 0:
		return golegis.SourcesFromPaths(args), nil
	case manifest != "":
		m, err := golegis.LoadManifest(manifest)
		if err != nil {
			return nil, err
		}
		return m.Sources, nil
	case len(cfg.Sources) > 0:
		return cfg.Sources, nil
	}
	return nil, golegis.ErrNoSources
}

// runExtract runs one extraction and writes every requested output. It
// returns the written file paths.
func runExtract(ctx context.Context, cfg golegis.Config, opts extractOptions, specs []golegis.SourceSpec) (*golegis.Result, []string, error) {
	start := time.Now()
	m := metrics.New(false)
	ext, err := golegis.New(cfg, golegis.WithMetrics(m))
	if err != nil {
		return nil, nil, err
	}

	res, docs, err := ext.Extract(ctx, specs)
	if err != nil {
		return res, nil, err
	}

	extractedAt := opts.extractedAt
	if extractedAt == "" {
		extractedAt = time.Now().UTC().Format(time.RFC3339)
	}
	md := export.NewMetadata(res.RunID, sourceLabel(opts.manifest, specs), res.Method(), extractedAt, res.Articles)

	formats := opts.formats
	if len(formats) == 0 {
		formats = cfg.Output.Formats
	}
	dir := firstNonEmpty(opts.outDir, cfg.Output.Dir, ".")
	base := firstNonEmpty(opts.basename, cfg.Output.Basename, "legal_articles")

	var paths []string
	for _, f := range formats {
		wr, err := export.ForFormat(f)
		if err != nil {
			return res, paths, err
		}
		p, err := export.WriteFile(dir, base, wr, md, res.Articles)
		if err != nil {
			return res, paths, err
		}
		paths = append(paths, p)
	}

	if opts.persist || opts.dbPath != "" {
		if opts.dbPath != "" {
			cfg.DBPath = opts.dbPath
		}
		st, err := store.New(cfg.ResolveDBPath())
		if err != nil {
			return res, paths, fmt.Errorf("opening store: %w", err)
		}
		_, err = golegis.Save(ctx, st, res, docs, opts.force)
		st.Close()
		if err != nil {
			return res, paths, err
		}
	}

	if opts.metricsFile != "" {
		if err := m.WriteFile(opts.metricsFile); err != nil {
			return res, paths, fmt.Errorf("writing metrics: %w", err)
		}
	}

	slog.Info("extract: done",
		"run_id", res.RunID, "articles", len(res.Articles), "outputs", len(paths),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res, paths, nil
}

// sourceLabel names the corpus in export metadata.
func sourceLabel(manifest string, specs []golegis.SourceSpec) string {
	if manifest != "" {
		return filepath.Base(manifest)
	}
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, filepath.Base(s.Path))
	}
	return strings.Join(names, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
