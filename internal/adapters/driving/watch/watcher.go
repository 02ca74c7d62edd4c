// Package watch keeps the active document set in sync with a directory.
//
// New and modified files are added, removed files are deleted. The first
// file seen when nothing is active is ingested instead.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Action is what the watcher does with a path.
type Action int

// Watch actions.
const (
	ActionNone Action = iota
	ActionUpsert
	ActionRemove
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionUpsert:
		return "upsert"
	case ActionRemove:
		return "remove"
	default:
		return "none"
	}
}

// Outcome reports one processed path.
type Outcome struct {
	Path    string
	Action  Action
	Success bool
	Message string
	Err     error
}

// Options configures a Watcher.
type Options struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Initial processes files already in the directory on start.
	Initial bool

	// AllowRebuild is passed to Add for backends that cannot append.
	AllowRebuild bool

	// Extensions lists accepted file extensions, lower case with the dot.
	// Defaults to .pdf, .txt and .md.
	Extensions []string

	// OnOutcome is called after each path is processed, optional.
	OnOutcome func(Outcome)
}

// Watcher applies directory changes to an index manager.
type Watcher struct {
	dir   string
	index driving.IndexManager
	opts  Options
	exts  map[string]bool
}

// New creates a watcher for dir.
func New(dir string, index driving.IndexManager, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".pdf", ".txt", ".md"}
	}
	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Watcher{dir: dir, index: index, opts: opts, exts: exts}
}

// Run watches until ctx is cancelled. Pending changes are dropped on exit.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	if w.opts.Initial {
		if err := w.scan(ctx); err != nil {
			return err
		}
	}

	pending := make(map[string]Action)
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			action := w.classify(ev)
			if action == ActionNone {
				continue
			}
			logger.Debug("Event %s on %s", ev.Op, ev.Name)
			pending[ev.Name] = action
			timer.Reset(w.opts.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			w.flush(ctx, pending)
			pending = make(map[string]Action)
		}
	}
}

// scan processes the files already present, in name order.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	pending := make(map[string]Action)
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if !e.IsDir() && w.accepts(path) {
			pending[path] = ActionUpsert
		}
	}
	w.flush(ctx, pending)
	return nil
}

// classify maps a filesystem event to an action.
func (w *Watcher) classify(ev fsnotify.Event) Action {
	if !w.accepts(ev.Name) {
		return ActionNone
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return ActionRemove
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if info, err := os.Stat(ev.Name); err != nil || info.IsDir() {
			return ActionNone
		}
		return ActionUpsert
	default:
		return ActionNone
	}
}

func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(base))]
}

// flush applies pending actions in path order.
func (w *Watcher) flush(ctx context.Context, pending map[string]Action) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if ctx.Err() != nil {
			return
		}
		out := w.apply(ctx, p, pending[p])
		if out.Err != nil {
			logger.Warn("%s %s: %s", out.Action, filepath.Base(p), out.Message)
		} else {
			logger.Info("%s %s: %s", out.Action, filepath.Base(p), out.Message)
		}
		if w.opts.OnOutcome != nil {
			w.opts.OnOutcome(out)
		}
	}
}

// apply runs one action. A modified file replaces its earlier chunks.
func (w *Watcher) apply(ctx context.Context, path string, action Action) Outcome {
	name := filepath.Base(path)
	out := Outcome{Path: path, Action: action}

	switch action {
	case ActionRemove:
		res := w.index.Delete(ctx, name)
		if errors.Is(res.Err, domain.ErrNotFound) || errors.Is(res.Err, domain.ErrNoDocument) {
			out.Success, out.Message = true, "nothing to delete"
			return out
		}
		out.Success, out.Message, out.Err = res.Success, res.Message, res.Err
		return out

	case ActionUpsert:
		list := w.index.List(ctx)
		if errors.Is(list.Err, domain.ErrNoDocument) {
			res := w.index.Ingest(ctx, path, name)
			out.Success, out.Message, out.Err = res.Success, res.Message, res.Err
			return out
		}
		if w.index.Capabilities().SupportsIncrementalUpdate() && hasSource(list.Documents, name) {
			if res := w.index.Delete(ctx, name); res.Err != nil {
				out.Message, out.Err = res.Message, res.Err
				return out
			}
		}
		res := w.index.Add(ctx, path, name, domain.AddOptions{AllowRebuild: w.opts.AllowRebuild})
		out.Success, out.Message, out.Err = res.Success, res.Message, res.Err
		return out
	}

	out.Success = true
	return out
}

func hasSource(docs []domain.SourceSummary, name string) bool {
	for _, d := range docs {
		if d.Source == name {
			return true
		}
	}
	return false
}
