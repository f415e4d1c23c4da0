package branchwire

import (
	"path/filepath"
	"strings"
)

type Dialect string

const (
	DialectSwift    Dialect = "swift"
	DialectObjC     Dialect = "objc"
	DialectPodfile  Dialect = "podfile"
	DialectCartfile Dialect = "cartfile"
)

// DialectForPath infers the source flavor of a file from its name.
func DialectForPath(path string) Dialect {
	base := filepath.Base(path)
	switch {
	case base == "Podfile":
		return DialectPodfile
	case base == "Cartfile":
		return DialectCartfile
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".swift":
		return DialectSwift
	case ".m", ".mm", ".h":
		return DialectObjC
	}
	return ""
}

type Family string

const (
	FamilyImport           Family = "import"
	FamilyLaunch           Family = "lifecycle-launch"
	FamilyContinueActivity Family = "lifecycle-continue-activity"
	FamilyOpenURL          Family = "lifecycle-open-url"
	FamilyActivation       Family = "secondary-entry-point-activation"
	FamilyManifestEntry    Family = "dependency-manifest-entry"
)

// Shape is the classification of a file with respect to one family.
type Shape int

const (
	ShapeSkip Shape = iota
	ShapeAmongImports
	ShapeIncludeGuard
	ShapeAtEnd
	ShapeExisting
	ShapeNew
	ShapeLegacy
	ShapeTargetBlock
	ShapeTargetReference
	ShapeTopLevel
)

func (s Shape) String() string {
	switch s {
	case ShapeSkip:
		return "skip"
	case ShapeAmongImports:
		return "among-imports"
	case ShapeIncludeGuard:
		return "include-guard"
	case ShapeAtEnd:
		return "at-end"
	case ShapeExisting:
		return "existing"
	case ShapeNew:
		return "new"
	case ShapeLegacy:
		return "legacy"
	case ShapeTargetBlock:
		return "target-block"
	case ShapeTargetReference:
		return "target-reference"
	case ShapeTopLevel:
		return "top-level"
	default:
		return "unknown"
	}
}

// Variant is the detector's answer for one family in one file. Name() is the
// catalog key of the patch that turns the file into its integrated shape.
type Variant struct {
	Family      Family
	Dialect     Dialect
	Shape       Shape
	Conditional bool
}

func (v Variant) Name() string {
	name := string(v.Family) + "." + string(v.Dialect) + "." + v.Shape.String()
	if v.Conditional {
		name += ".conditional"
	}
	return name
}

// Skip reports whether the construct is already present.
func (v Variant) Skip() bool { return v.Shape == ShapeSkip }

// Mode selects how insertion text is spliced relative to the anchor match.
type Mode string

const (
	ModeAppend  Mode = "append"
	ModePrepend Mode = "prepend"
	ModeReplace Mode = "replace"
)

type Status string

const (
	StatusApplied        Status = "applied"
	StatusAlreadyPresent Status = "already-present"
	StatusNotNeeded      Status = "not-needed"
	StatusSkipped        Status = "skipped"
	StatusFailed         Status = "failed"
)

type StepResult struct {
	Family  Family
	Variant string
	Status  Status
	Note    string
	Err     error
}

type FileRole string

const (
	RoleBridgingHeader FileRole = "bridging header"
	RoleAppDelegate    FileRole = "app delegate"
	RoleMessages       FileRole = "messages view controller"
	RoleManifest       FileRole = "dependency manifest"
)

type FileReport struct {
	Role  FileRole
	Path  string
	Steps []StepResult
}

// Failed reports whether any step on the file failed.
func (f *FileReport) Failed() bool {
	for _, s := range f.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Integrated reports whether every step found its construct already present.
func (f *FileReport) Integrated() bool {
	if len(f.Steps) == 0 {
		return false
	}
	for _, s := range f.Steps {
		if s.Status != StatusAlreadyPresent && s.Status != StatusNotNeeded {
			return false
		}
	}
	return true
}

type Report struct {
	Files    []*FileReport
	Warnings []error
	Modified []string
}

// Summary is what one invocation produced, ready for display.
type Summary struct {
	Report  *Report
	Diffs   []string
	Message string
	// Restored and Failed list the files touched by undo and redo.
	Restored []string
	Failed   []string
}
