package branchwire

import (
	"fmt"
	"log/slog"
)

const (
	noteBridgingBlocked = "bridging header was not patched"
	noteAborted         = "not attempted after an earlier failure"
	noteLegacyOpenURL   = "patched the deprecated sourceApplication open-url method; consider adopting the options variant"
	noteBridgedImport   = "imported through the bridging header"
)

// TargetFile is one file taking part in a run. Its text is read lazily and
// cached until the next patch invalidates it.
type TargetFile struct {
	Path    string
	Dialect Dialect

	store Store
	text  *string
}

func NewTargetFile(store Store, path string, dialect Dialect) *TargetFile {
	return &TargetFile{Path: path, Dialect: dialect, store: store}
}

func (f *TargetFile) Text() (string, error) {
	if f.text != nil {
		return *f.text, nil
	}
	data, err := f.store.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	s := string(data)
	f.text = &s
	return s, nil
}

func (f *TargetFile) Invalidate() { f.text = nil }

// ProgressFunc is called before each file is processed.
type ProgressFunc func(role FileRole, path string)

// Integrator runs the fixed integration pipeline over the files of a project.
type Integrator struct {
	cfg      *Config
	catalog  *Catalog
	store    Store
	tracker  *Tracker
	applier  *Applier
	detector Detector
	params   PatchParams
	logger   *slog.Logger

	Progress ProgressFunc
}

func NewIntegrator(cfg *Config, catalog *Catalog, store Store, tracker *Tracker, logger *slog.Logger) *Integrator {
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Integrator{
		cfg:      cfg,
		catalog:  catalog,
		store:    store,
		tracker:  tracker,
		applier:  NewApplier(store, tracker, logger),
		detector: Detector{Target: cfg.Target, Conditional: cfg.UseConditionalTestKey()},
		params:   cfg.Params(),
		logger:   logger,
	}
}

var (
	appDelegateFamilies = []Family{FamilyImport, FamilyLaunch, FamilyContinueActivity, FamilyOpenURL}
	messagesFamilies    = []Family{FamilyImport, FamilyActivation}
)

// fileJob describes how one file is run through the pipeline.
type fileJob struct {
	role     FileRole
	path     string
	dialect  Dialect
	families []Family
	// optional files turn failures into skips.
	optional bool
	// bridgedImport marks Swift files that see the SDK through the bridging header.
	bridgedImport bool
}

// Run patches every configured file and returns the per-file outcome. The
// returned error is reserved for conditions that make the whole run
// meaningless, such as a variant missing from the catalog. File-level
// failures are recorded in the report.
func (in *Integrator) Run() (*Report, error) {
	report := &Report{}
	defer func() { report.Modified = in.tracker.All() }()

	if in.cfg.PatchSourceEnabled() {
		if err := in.patchSource(report); err != nil {
			return report, err
		}
	}
	if in.cfg.AddSDKEnabled() {
		if err := in.patchManifest(report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (in *Integrator) patchSource(report *Report) error {
	bridged := in.cfg.BridgingHeaderRequired()
	bridgeReady := true

	if bridged {
		path := in.cfg.Paths.BridgingHeader
		if !in.store.Exists(path) {
			report.Warnings = append(report.Warnings, missingFile(ErrNoBridgingHeader, path))
			bridgeReady = false
		} else {
			fr, err := in.runFile(fileJob{
				role:     RoleBridgingHeader,
				path:     path,
				dialect:  DialectObjC,
				families: []Family{FamilyImport},
			})
			report.Files = append(report.Files, fr)
			if err != nil {
				return err
			}
			bridgeReady = !fr.Failed()
		}
	}

	switch {
	case in.store.Exists(in.cfg.Paths.AppDelegateSwift):
		job := fileJob{
			role:          RoleAppDelegate,
			path:          in.cfg.Paths.AppDelegateSwift,
			dialect:       DialectSwift,
			families:      appDelegateFamilies,
			bridgedImport: bridged,
		}
		if !bridgeReady {
			report.Files = append(report.Files, blockedFile(job, noteBridgingBlocked))
			break
		}
		fr, err := in.runFile(job)
		report.Files = append(report.Files, fr)
		if err != nil {
			return err
		}
	case in.store.Exists(in.cfg.Paths.AppDelegateObjC):
		fr, err := in.runFile(fileJob{
			role:     RoleAppDelegate,
			path:     in.cfg.Paths.AppDelegateObjC,
			dialect:  DialectObjC,
			families: appDelegateFamilies,
		})
		report.Files = append(report.Files, fr)
		if err != nil {
			return err
		}
	default:
		report.Warnings = append(report.Warnings, ErrNoEntryPoint)
	}

	path := in.cfg.Paths.MessagesViewController
	if !in.store.Exists(path) {
		return nil
	}
	dialect := DialectForPath(path)
	if dialect != DialectSwift && dialect != DialectObjC {
		report.Warnings = append(report.Warnings, fmt.Errorf("unsupported messages view controller: %s", path))
		return nil
	}
	job := fileJob{
		role:          RoleMessages,
		path:          path,
		dialect:       dialect,
		families:      messagesFamilies,
		optional:      true,
		bridgedImport: bridged && dialect == DialectSwift,
	}
	if dialect == DialectSwift && !bridgeReady {
		report.Files = append(report.Files, blockedFile(job, noteBridgingBlocked))
		return nil
	}
	fr, err := in.runFile(job)
	report.Files = append(report.Files, fr)
	return err
}

func (in *Integrator) patchManifest(report *Report) error {
	path, dialect := in.cfg.ManifestPath()
	if path == "" {
		return nil
	}
	if !in.store.Exists(path) {
		report.Warnings = append(report.Warnings, missingFile(ErrNoManifest, path))
		return nil
	}
	fr, err := in.runFile(fileJob{
		role:     RoleManifest,
		path:     path,
		dialect:  dialect,
		families: []Family{FamilyManifestEntry},
	})
	report.Files = append(report.Files, fr)
	return err
}

// runFile applies each family in order. A failed step aborts the remaining
// steps of that file only.
func (in *Integrator) runFile(job fileJob) (*FileReport, error) {
	if in.Progress != nil {
		in.Progress(job.role, job.path)
	}
	fr := &FileReport{Role: job.role, Path: job.path}
	file := NewTargetFile(in.store, job.path, job.dialect)

	for i, family := range job.families {
		if family == FamilyImport && job.bridgedImport {
			fr.Steps = append(fr.Steps, StepResult{Family: family, Status: StatusNotNeeded, Note: noteBridgedImport})
			continue
		}

		step, err := in.runFamily(file, family)
		if err != nil {
			return fr, err
		}
		if step.Status != StatusFailed {
			fr.Steps = append(fr.Steps, step)
			continue
		}

		if job.optional {
			step.Status = StatusSkipped
		}
		in.logger.Warn("patch failed", "path", job.path, "family", family, "error", step.Err)
		fr.Steps = append(fr.Steps, step)
		for _, rest := range job.families[i+1:] {
			fr.Steps = append(fr.Steps, StepResult{Family: rest, Status: StatusSkipped, Note: noteAborted})
		}
		break
	}
	return fr, nil
}

// runFamily detects the shape of the file for one family and applies the
// matching patch. Only a catalog miss is returned as an error.
func (in *Integrator) runFamily(file *TargetFile, family Family) (StepResult, error) {
	step := StepResult{Family: family}

	text, err := file.Text()
	if err != nil {
		step.Status = StatusFailed
		step.Err = err
		return step, nil
	}

	variant := in.detector.Classify(family, text, file.Dialect)
	step.Variant = variant.Name()
	in.logger.Debug("classified", "path", file.Path, "family", family, "variant", step.Variant)

	if variant.Skip() {
		step.Status = StatusAlreadyPresent
		return step, nil
	}

	def, err := in.catalog.Get(variant.Name())
	if err != nil {
		return step, err
	}

	if variant.Shape == ShapeLegacy {
		step.Note = noteLegacyOpenURL
		in.logger.Info("legacy open-url method", "path", file.Path)
	}

	err = in.applier.Apply(def, file.Path, in.params)
	file.Invalidate()
	if err != nil {
		step.Status = StatusFailed
		step.Err = err
		return step, nil
	}
	step.Status = StatusApplied
	return step, nil
}

func blockedFile(job fileJob, note string) *FileReport {
	fr := &FileReport{Role: job.role, Path: job.path}
	for _, family := range job.families {
		fr.Steps = append(fr.Steps, StepResult{Family: family, Status: StatusSkipped, Note: note})
	}
	return fr
}

func missingFile(sentinel error, path string) error {
	if path == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, path)
}
