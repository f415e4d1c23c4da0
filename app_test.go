package branchwire

import (
	"os"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appConfig = `target: MyApp
keys:
  live: key_live_abc
modules_enabled: true
paths:
  app_delegate_swift: AppDelegate.swift
  podfile: Podfile
`

func newTestProject(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	writeMem(t, fs, "/proj/branchwire.yaml", appConfig)
	writeMem(t, fs, "/proj/AppDelegate.swift", swiftDelegateBare)
	writeMem(t, fs, "/proj/Podfile", podfileWithBlock)
	return fs
}

func runApp(t *testing.T, fs billy.Filesystem, opts Options) Summary {
	t.Helper()
	opts.Logger = discardLogger()
	app, err := newApp(&opts, fs, "/proj", "/proj")
	require.NoError(t, err)
	summary, err := app.Execute()
	require.NoError(t, err)
	return summary
}

func TestAppDryRun(t *testing.T) {
	fs := newTestProject(t)

	s := runApp(t, fs, Options{DryRun: true})

	assert.Equal(t, "Dry run: 2 files would change", s.Message)
	require.Len(t, s.Diffs, 2)
	assert.Contains(t, s.Diffs[0], "--- a/AppDelegate.swift")
	assert.Contains(t, s.Diffs[1], "+  pod \"Branch\"")
	assert.Equal(t, []string{"AppDelegate.swift", "Podfile"}, s.Report.Modified)

	assert.Equal(t, swiftDelegateBare, readMem(t, fs, "/proj/AppDelegate.swift"))
	assert.Equal(t, podfileWithBlock, readMem(t, fs, "/proj/Podfile"))
	_, err := fs.Stat("/proj/.branchwire")
	assert.True(t, os.IsNotExist(err), "dry run created the journal directory")

	undo := runApp(t, fs, Options{Undo: true})
	assert.Equal(t, "No undo", undo.Message)
}

func TestAppRunUndoRedo(t *testing.T) {
	fs := newTestProject(t)

	s := runApp(t, fs, Options{})
	assert.Equal(t, "Patched 2 files", s.Message)
	assert.Empty(t, s.Diffs)
	patchedDelegate := readMem(t, fs, "/proj/AppDelegate.swift")
	patchedPodfile := readMem(t, fs, "/proj/Podfile")
	assert.Contains(t, patchedDelegate, "initSession")

	again := runApp(t, fs, Options{})
	assert.Equal(t, "Already integrated", again.Message)

	undo := runApp(t, fs, Options{Undo: true})
	assert.Equal(t, "Undone", undo.Message)
	assert.Equal(t, []string{"AppDelegate.swift", "Podfile"}, undo.Restored)
	assert.Empty(t, undo.Failed)
	assert.Equal(t, swiftDelegateBare, readMem(t, fs, "/proj/AppDelegate.swift"))
	assert.Equal(t, podfileWithBlock, readMem(t, fs, "/proj/Podfile"))

	redo := runApp(t, fs, Options{Redo: true})
	assert.Equal(t, "Redone", redo.Message)
	assert.Equal(t, patchedDelegate, readMem(t, fs, "/proj/AppDelegate.swift"))
	assert.Equal(t, patchedPodfile, readMem(t, fs, "/proj/Podfile"))

	assert.Equal(t, "No redo", runApp(t, fs, Options{Redo: true}).Message)
}

func TestAppUndoLeavesEditedFiles(t *testing.T) {
	fs := newTestProject(t)
	runApp(t, fs, Options{})

	edited := readMem(t, fs, "/proj/Podfile") + "# local change\n"
	writeMem(t, fs, "/proj/Podfile", edited)

	undo := runApp(t, fs, Options{Undo: true})
	assert.Equal(t, []string{"AppDelegate.swift"}, undo.Restored)
	assert.Equal(t, []string{"Podfile"}, undo.Failed)
	assert.Equal(t, edited, readMem(t, fs, "/proj/Podfile"))
	assert.Equal(t, swiftDelegateBare, readMem(t, fs, "/proj/AppDelegate.swift"))
}

func TestAppOverrides(t *testing.T) {
	fs := newTestProject(t)
	writeMem(t, fs, "/proj/Podfile", "target 'Other' do\n  use_frameworks!\nend\n")

	s := runApp(t, fs, Options{Target: "Other", NoPatchSource: true})
	assert.Equal(t, "Patched 1 file", s.Message)
	assert.Equal(t, "target 'Other' do\n  pod \"Branch\"\n  use_frameworks!\nend\n", readMem(t, fs, "/proj/Podfile"))
	assert.Equal(t, swiftDelegateBare, readMem(t, fs, "/proj/AppDelegate.swift"))
}

func TestAppMissingConfig(t *testing.T) {
	app, err := newApp(&Options{Logger: discardLogger()}, memfs.New(), "/proj", "/proj")
	require.NoError(t, err)
	_, err = app.Execute()
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestAppConfigFromSource(t *testing.T) {
	fs := newTestProject(t)
	app, err := newApp(&Options{ConfigPath: "-", DryRun: true, Logger: discardLogger()}, fs, "/proj", "/proj")
	require.NoError(t, err)
	app.sourceProvider = &SourceProvider{stdin: strings.NewReader(appConfig)}

	s, err := app.Execute()
	require.NoError(t, err)
	assert.Len(t, s.Diffs, 2)
}

func TestSummaryMessage(t *testing.T) {
	failed := &FileReport{Steps: []StepResult{{Status: StatusFailed}}}

	assert.Equal(t, "Already integrated", summaryMessage(&Report{}, false))
	assert.Equal(t, "Patched 1 file, 1 need manual changes",
		summaryMessage(&Report{Files: []*FileReport{failed}, Modified: []string{"a"}}, false))
	assert.Equal(t, "Patched 0 files", summaryMessage(&Report{Warnings: []error{ErrNoManifest}}, false))
}

func TestApplyLibraryEntry(t *testing.T) {
	fs := memfs.New()
	cfg := baseConfig()
	cfg.Paths.AppDelegateSwift = writeMem(t, fs, "/p/AppDelegate.swift", "import UIKit\n\nclass AppDelegate: UIResponder,\n    UIApplicationDelegate {\n}\n")
	cfg.Paths.Podfile = writeMem(t, fs, "/p/Podfile", podfileWithBlock)

	res, err := apply(cfg, testCatalog(t), NewFileStore(fs), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/AppDelegate.swift", "/p/Podfile"}, res["Modified"])
	assert.Equal(t, []string{"/p/AppDelegate.swift"}, res["Failed"])
}

func TestFormatSummary(t *testing.T) {
	s := Summary{
		Message: "Patched 1 file, 1 need manual changes",
		Report: &Report{
			Files: []*FileReport{
				{Role: RoleAppDelegate, Path: "AppDelegate.swift", Steps: []StepResult{
					{Family: FamilyImport, Status: StatusApplied, Variant: "import.swift.at-end"},
					{Family: FamilyLaunch, Status: StatusFailed, Err: &PatchError{Patch: "lifecycle-launch.swift.new", Path: "AppDelegate.swift", Err: ErrAnchorNotFound}},
					{Family: FamilyOpenURL, Status: StatusSkipped, Note: noteAborted},
				}},
				{Role: RoleManifest, Path: "Podfile", Steps: []StepResult{{Family: FamilyManifestEntry, Status: StatusAlreadyPresent}}},
			},
			Warnings: []error{ErrNoManifest},
			Modified: []string{"AppDelegate.swift"},
		},
	}

	out := FormatSummary(s)
	assert.Contains(t, out, "Patched 1 file, 1 need manual changes")
	assert.Contains(t, out, "AppDelegate.swift (app delegate)")
	assert.Contains(t, out, "could not find insertion point")
	assert.Contains(t, out, "patch manually")
	assert.Contains(t, out, noteAborted)
	assert.Contains(t, out, "already integrated")
	assert.Contains(t, out, "dependency manifest not found")
}
