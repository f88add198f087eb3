package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/brunobiangulo/golegis"
	"github.com/brunobiangulo/golegis/source"
)

func watchCmd(g *globalFlags) *cobra.Command {
	var (
		opts     extractOptions
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch [files or globs...]",
		Short: "Re-extract whenever a source file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := &sourceWatcher{
				cfg:      cfg,
				opts:     opts,
				args:     args,
				debounce: debounce,
				formats:  source.NewRegistry(source.Options{}).Formats(),
				logger:   slog.Default(),
			}
			return w.run(ctx)
		},
	}
	opts.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before re-extracting")
	return cmd
}

// sourceWatcher re-runs extraction when files under the source
// directories change. Bursts of events are collapsed into one run.
type sourceWatcher struct {
	cfg      golegis.Config
	opts     extractOptions
	args     []string
	debounce time.Duration
	formats  []string
	logger   *slog.Logger

	pending        map[string]fsnotify.Op
	recursiveRoots []string
}

func (w *sourceWatcher) run(ctx context.Context) error {
	specs, err := resolveSources(w.cfg, w.opts.manifest, w.args)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	dirs := watchDirs(w.opts.manifest, specs)
	for _, d := range dirs {
		if !isDir(d.path) {
			w.logger.Warn("watch: directory missing", "dir", d.path)
			continue
		}
		add := fsw.Add
		if d.recursive {
			add = func(p string) error { return addRecursive(fsw, p, w.logger) }
		}
		if err := add(d.path); err != nil {
			w.logger.Warn("watch: cannot watch directory", "dir", d.path, "error", err)
			continue
		}
		if d.recursive {
			w.recursiveRoots = append(w.recursiveRoots, d.path)
		}
		w.logger.Debug("watch: watching", "dir", d.path, "recursive", d.recursive)
	}
	w.logger.Info("watch: started", "dirs", len(dirs), "debounce", w.debounce)

	w.extract(ctx)

	w.pending = make(map[string]fsnotify.Op)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch: stopped")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isDir(ev.Name) {
				if !w.underRecursiveRoot(ev.Name) {
					continue
				}
				if err := addRecursive(fsw, ev.Name, w.logger); err != nil {
					w.logger.Warn("watch: cannot watch new directory", "dir", ev.Name, "error", err)
				}
				continue
			}
			if w.relevant(ev.Name) {
				w.pending[ev.Name] |= ev.Op
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch: watcher error", "error", err)
		case <-ticker.C:
			if len(w.pending) == 0 {
				continue
			}
			for path, op := range w.pending {
				w.logger.Debug("watch: change", "path", path, "op", op.String())
			}
			w.pending = make(map[string]fsnotify.Op)
			w.extract(ctx)
		}
	}
}

// extract runs one extraction, re-reading the manifest so edits to it are
// picked up. Failures are logged and the watcher keeps going.
func (w *sourceWatcher) extract(ctx context.Context) {
	specs, err := resolveSources(w.cfg, w.opts.manifest, w.args)
	if err != nil {
		w.logger.Error("watch: resolving sources", "error", err)
		return
	}
	res, paths, err := runExtract(ctx, w.cfg, w.opts, specs)
	if err != nil {
		w.logger.Error("watch: extraction failed", "error", err)
		return
	}
	w.logger.Info("watch: extracted", "run_id", res.RunID, "articles", len(res.Articles),
		"outputs", strings.Join(paths, ", "))
}

// relevant reports whether a changed path can affect the output.
func (w *sourceWatcher) relevant(path string) bool {
	if w.opts.manifest != "" && filepath.Clean(path) == filepath.Clean(w.opts.manifest) {
		return true
	}
	if strings.HasSuffix(path, ".tmp") {
		return false
	}
	format := source.FormatOf(path)
	for _, f := range w.formats {
		if f == format {
			return true
		}
	}
	return false
}

// underRecursiveRoot reports whether path lies strictly below a directory
// watched for a "**" glob.
func (w *sourceWatcher) underRecursiveRoot(path string) bool {
	for _, root := range w.recursiveRoots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return true
	}
	return false
}

// watchDir is a directory to watch; recursive for "**" globs.
type watchDir struct {
	path      string
	recursive bool
}

// watchDirs returns the directories holding the manifest and the sources.
// For a glob, the static prefix before the first meta character is
// watched.
func watchDirs(manifest string, specs []golegis.SourceSpec) []watchDir {
	set := make(map[string]bool)
	if manifest != "" {
		set[filepath.Dir(manifest)] = false
	}
	for _, s := range specs {
		p := filepath.ToSlash(s.Path)
		if strings.ContainsAny(p, "*?[{") {
			base, _ := doublestar.SplitPattern(p)
			dir := filepath.FromSlash(base)
			set[dir] = set[dir] || strings.Contains(p, "**")
			continue
		}
		if dir := filepath.Dir(s.Path); !set[dir] {
			set[dir] = false
		}
	}
	dirs := make([]watchDir, 0, len(set))
	for d, rec := range set {
		dirs = append(dirs, watchDir{path: d, recursive: rec})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].path < dirs[j].path })
	return dirs
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// addRecursive watches root and every non-hidden directory below it.
func addRecursive(fsw *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if base := d.Name(); strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			logger.Warn("watch: cannot watch directory", "dir", path, "error", err)
		}
		return nil
	})
}
