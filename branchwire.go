package branchwire

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Options selects what one invocation does.
type Options struct {
	ConfigPath    string
	Target        string
	DryRun        bool
	Nvim          bool
	Undo          bool
	Redo          bool
	NoPatchSource bool
	NoAddSDK      bool
	Copy          bool
	Logger        *slog.Logger
}

type App struct {
	opts             *Options
	fs               billy.Filesystem
	wd               string
	stateManager     *StateManager
	sourceProvider   *SourceProvider
	catalog          *Catalog
	logger           *slog.Logger
	progressCallback ProgressFunc
}

func NewApp(opts *Options) (*App, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not get current working directory: %w", err)
	}
	return newApp(opts, osRoot(), wd, findGitRoot(wd))
}

func osRoot() billy.Filesystem { return osfs.New("/") }

func newApp(opts *Options, fs billy.Filesystem, wd, stateRoot string) (*App, error) {
	sm, err := NewStateManager(fs, stateRoot)
	if err != nil {
		return nil, err
	}

	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		opts:           opts,
		fs:             fs,
		wd:             wd,
		stateManager:   sm,
		sourceProvider: NewSourceProvider(),
		catalog:        catalog,
		logger:         logger,
	}, nil
}

func (a *App) SetProgressCallback(cb ProgressFunc) { a.progressCallback = cb }

func (a *App) Execute() (summary Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()

	switch {
	case a.opts.Undo:
		return a.undoLastOperation()
	case a.opts.Redo:
		return a.redoLastOperation()
	default:
		return a.integrate()
	}
}

func (a *App) loadConfig() (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if a.opts.ConfigPath == "-" {
		var content string
		content, err = a.sourceProvider.GetContent()
		if err != nil {
			return nil, fmt.Errorf("read configuration: %w", err)
		}
		cfg, err = ParseConfig([]byte(content), a.wd)
	} else {
		cfg, _, err = LoadConfig(a.fs, a.wd, a.opts.ConfigPath)
	}
	if err != nil {
		return nil, err
	}

	if a.opts.Target != "" {
		cfg.Target = a.opts.Target
	}
	disabled := false
	if a.opts.NoPatchSource {
		cfg.PatchSource = &disabled
	}
	if a.opts.NoAddSDK {
		cfg.AddSDK = &disabled
	}
	return cfg, nil
}

// baseStore is where content is ultimately read and written. The returned
// closer releases an editor started for --nvim.
func (a *App) baseStore() (Store, func(), error) {
	fileStore := NewFileStore(a.fs)
	if !a.opts.Nvim {
		return fileStore, func() {}, nil
	}
	nm, err := NewNvimManager()
	if err != nil {
		return nil, nil, err
	}
	return NewNvimStore(nm, fileStore), nm.Close, nil
}

func (a *App) integrate() (Summary, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return Summary{}, err
	}

	base, closeStore, err := a.baseStore()
	if err != nil {
		return Summary{}, err
	}
	defer closeStore()

	var (
		store   Store
		overlay *Overlay
		journal *journalStore
	)
	if a.opts.DryRun {
		overlay = NewOverlay(base)
		store = overlay
	} else {
		journal = newJournalStore(base, a.stateManager)
		store = journal
	}

	integrator := NewIntegrator(cfg, a.catalog, store, NewTracker(), a.logger)
	integrator.Progress = a.progressCallback

	report, err := integrator.Run()
	summary := Summary{Report: report}
	if err != nil {
		return summary, err
	}

	if overlay != nil {
		if summary.Diffs, err = overlay.Diffs(a.wd); err != nil {
			return summary, err
		}
	} else if len(report.Modified) > 0 {
		ops, err := a.stateManager.CreateOperations(report.Modified, journal.hashes)
		if err == nil {
			err = a.stateManager.Write(ops)
		}
		if err != nil {
			a.logger.Warn("could not record undo history", "error", err)
		}
	}

	summary.Message = summaryMessage(report, a.opts.DryRun)
	a.relativizeSummaryPaths(&summary)

	if a.opts.Copy && len(report.Modified) > 0 {
		if err := CopyToClipboard(strings.Join(report.Modified, "\n")); err != nil {
			a.logger.Warn("could not copy to clipboard", "error", err)
		}
	}
	return summary, nil
}

func summaryMessage(report *Report, dryRun bool) string {
	failed := 0
	for _, f := range report.Files {
		if f.Failed() {
			failed++
		}
	}

	n := len(report.Modified)
	switch {
	case n == 0 && failed == 0 && len(report.Warnings) == 0:
		return "Already integrated"
	case dryRun:
		return fmt.Sprintf("Dry run: %d %s would change", n, plural(n, "file", "files"))
	case failed > 0:
		return fmt.Sprintf("Patched %d %s, %d need manual changes", n, plural(n, "file", "files"), failed)
	default:
		return fmt.Sprintf("Patched %d %s", n, plural(n, "file", "files"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (a *App) undoLastOperation() (Summary, error) {
	return a.replay("No undo", "Undone", a.stateManager.GetOperationsToUndo, (*FileManager).Undo)
}

func (a *App) redoLastOperation() (Summary, error) {
	return a.replay("No redo", "Redone", a.stateManager.GetOperationsToRedo, (*FileManager).Redo)
}

func (a *App) replay(empty, done string, next func() ([]Operation, error), apply func(*FileManager, []Operation, string) Summary) (Summary, error) {
	ops, err := next()
	if err != nil {
		return Summary{}, err
	}
	if len(ops) == 0 {
		return Summary{Message: empty}, nil
	}

	base, closeStore, err := a.baseStore()
	if err != nil {
		return Summary{}, err
	}
	defer closeStore()

	s := apply(NewFileManager(a.fs, base), ops, a.stateManager.StateDir)
	s.Message = done
	if len(s.Failed) > 0 {
		a.logger.Warn("files changed since the recorded run were left untouched", "count", len(s.Failed))
	}
	a.relativizeSummaryPaths(&s)
	return s, nil
}

func (a *App) relativizeSummaryPaths(s *Summary) {
	relPath := func(p string) string {
		if r, err := filepath.Rel(a.wd, p); err == nil && !strings.HasPrefix(r, "..") {
			return r
		}
		return p
	}
	relList := func(paths []string) []string {
		var res []string
		for _, p := range paths {
			res = append(res, relPath(p))
		}
		return res
	}

	s.Restored = relList(s.Restored)
	s.Failed = relList(s.Failed)
	if s.Report == nil {
		return
	}
	s.Report.Modified = relList(s.Report.Modified)
	for _, f := range s.Report.Files {
		f.Path = relPath(f.Path)
	}
}
