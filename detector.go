package branchwire

import (
	"regexp"
)

var (
	swiftImportBranch = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+Branch\b`)
	swiftAnyImport    = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+\w[^\n]*\n`)
	objcImportBranch  = regexp.MustCompile(`(?m)^[ \t]*(?:#import[ \t]+<Branch/Branch\.h>|#import[ \t]+"Branch\.h"|@import[ \t]+Branch[ \t]*;)`)
	objcAnyImport     = regexp.MustCompile(`(?m)^[ \t]*(?:#import|#include|@import)\b[^\n]*\n`)
	includeGuard      = regexp.MustCompile(`(?m)^[ \t]*#ifndef[ \t]+(\w+)[^\n]*\n[ \t]*#define[ \t]+(\w+)[^\n]*\n`)

	branchInitSession = regexp.MustCompile(`(?i)\bbranch\b[^\n;]*initSession`)

	swiftLaunchHook = regexp.MustCompile(`func[ \t]+application[ \t]*\([^)]*didFinishLaunchingWithOptions`)
	objcLaunchHook  = regexp.MustCompile(`-[ \t]*\([ \t]*BOOL[ \t]*\)[ \t]*application[ \t]*:[^{;]*didFinishLaunchingWithOptions`)

	swiftBranchContinue = regexp.MustCompile(`(?i)\bbranch\b[^\n;]*\.continue\(`)
	objcBranchContinue  = regexp.MustCompile(`(?i)\bbranch\b[^\n;]*continueUserActivity:`)
	swiftContinueHook   = regexp.MustCompile(`func[ \t]+application[ \t]*\([^)]*continue[ \t]+\w+[ \t]*:[^)]*restorationHandler`)
	objcContinueHook    = regexp.MustCompile(`continueUserActivity[ \t]*:[^{;]*restorationHandler`)

	swiftBranchOpenURL = regexp.MustCompile(`(?i)\bbranch\b[^\n;]*\.application\([^\n]*open:`)
	objcBranchOpenURL  = regexp.MustCompile(`(?i)\bbranch\b[^\n;]*application:[^\n]*openURL:`)
	swiftOpenURLHook   = regexp.MustCompile(`func[ \t]+application[ \t]*\([^)]*open[ \t]+\w+[ \t]*:[ \t]*URL[^)]*options`)
	swiftOpenURLLegacy = regexp.MustCompile(`func[ \t]+application[ \t]*\([^)]*open[ \t]+\w+[ \t]*:[ \t]*URL[^)]*sourceApplication`)
	objcOpenURLHook    = regexp.MustCompile(`application[ \t]*:[^{;]*openURL[ \t]*:[^{;]*options[ \t]*:`)
	objcOpenURLLegacy  = regexp.MustCompile(`application[ \t]*:[^{;]*openURL[ \t]*:[^{;]*sourceApplication[ \t]*:`)

	swiftActivationHook = regexp.MustCompile(`func[ \t]+didBecomeActive[ \t]*\([ \t]*with\b`)
	objcActivationHook  = regexp.MustCompile(`didBecomeActiveWithConversation[ \t]*:`)

	podfileBranchPod = regexp.MustCompile(`(?m)^[ \t]*pod[ \t]+["'](?:Branch|Branch-SDK)(?:/[^"']*)?["']`)
	cartfileBranch   = regexp.MustCompile(`(?m)^[ \t]*git\w*[ \t]+[^\n]*Branch`)
)

// Detector classifies file contents into catalog variants. It never writes
// and never fails: every family falls through to a default shape.
type Detector struct {
	Target string
	// Conditional selects variants that choose the test key at runtime.
	Conditional bool
}

type probe struct {
	shape Shape
	match func(text string) bool
}

func matches(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

// Classify returns the first variant whose probe matches, or the family's fallback.
func (d Detector) Classify(family Family, text string, dialect Dialect) Variant {
	probes, fallback := d.rules(family, dialect)
	shape := fallback
	for _, p := range probes {
		if p.match(text) {
			shape = p.shape
			break
		}
	}
	return Variant{
		Family:      family,
		Dialect:     dialect,
		Shape:       shape,
		Conditional: d.Conditional && conditionalShape(family, shape),
	}
}

func conditionalShape(family Family, shape Shape) bool {
	switch family {
	case FamilyLaunch, FamilyActivation:
		return shape == ShapeExisting || shape == ShapeNew
	}
	return false
}

// rules lists the ordered probes for a family in a dialect, plus the shape used
// when none match. Combinations the pipeline never requests resolve to skip.
func (d Detector) rules(family Family, dialect Dialect) ([]probe, Shape) {
	swift := dialect == DialectSwift
	objc := dialect == DialectObjC

	switch {
	case family == FamilyImport && swift:
		return []probe{
			{ShapeSkip, matches(swiftImportBranch)},
			{ShapeAmongImports, matches(swiftAnyImport)},
		}, ShapeAtEnd
	case family == FamilyImport && objc:
		return []probe{
			{ShapeSkip, matches(objcImportBranch)},
			{ShapeAmongImports, matches(objcAnyImport)},
			{ShapeIncludeGuard, hasIncludeGuard},
		}, ShapeAtEnd

	case family == FamilyLaunch && swift:
		return []probe{
			{ShapeSkip, matches(branchInitSession)},
			{ShapeExisting, matches(swiftLaunchHook)},
		}, ShapeNew
	case family == FamilyLaunch && objc:
		return []probe{
			{ShapeSkip, matches(branchInitSession)},
			{ShapeExisting, matches(objcLaunchHook)},
		}, ShapeNew

	case family == FamilyContinueActivity && swift:
		return []probe{
			{ShapeSkip, matches(swiftBranchContinue)},
			{ShapeExisting, matches(swiftContinueHook)},
		}, ShapeNew
	case family == FamilyContinueActivity && objc:
		return []probe{
			{ShapeSkip, matches(objcBranchContinue)},
			{ShapeExisting, matches(objcContinueHook)},
		}, ShapeNew

	case family == FamilyOpenURL && swift:
		return []probe{
			{ShapeSkip, matches(swiftBranchOpenURL)},
			{ShapeExisting, matches(swiftOpenURLHook)},
			{ShapeLegacy, matches(swiftOpenURLLegacy)},
		}, ShapeNew
	case family == FamilyOpenURL && objc:
		return []probe{
			{ShapeSkip, matches(objcBranchOpenURL)},
			{ShapeExisting, matches(objcOpenURLHook)},
			{ShapeLegacy, matches(objcOpenURLLegacy)},
		}, ShapeNew

	case family == FamilyActivation && swift:
		return []probe{
			{ShapeSkip, matches(branchInitSession)},
			{ShapeExisting, matches(swiftActivationHook)},
		}, ShapeNew
	case family == FamilyActivation && objc:
		return []probe{
			{ShapeSkip, matches(branchInitSession)},
			{ShapeExisting, matches(objcActivationHook)},
		}, ShapeNew

	case family == FamilyManifestEntry && dialect == DialectPodfile:
		return []probe{
			{ShapeSkip, func(text string) bool { return podfileDeclaresBranch(text, d.Target) }},
			{ShapeTargetBlock, matches(podfileTargetPattern(d.Target, true))},
			{ShapeTargetReference, matches(podfileTargetPattern(d.Target, false))},
		}, ShapeTopLevel
	case family == FamilyManifestEntry && dialect == DialectCartfile:
		return []probe{
			{ShapeSkip, matches(cartfileBranch)},
		}, ShapeTopLevel
	}
	return nil, ShapeSkip
}

// hasIncludeGuard reports a leading #ifndef/#define pair naming the same macro.
func hasIncludeGuard(text string) bool {
	m := includeGuard.FindStringSubmatch(text)
	return m != nil && m[1] == m[2]
}

func podfileTargetPattern(target string, block bool) *regexp.Regexp {
	pattern := `(?m)^[ \t]*target[ \t]+["']` + regexp.QuoteMeta(target) + `["']`
	if block {
		pattern += `[ \t]+do\b[^\n]*\n`
	}
	return regexp.MustCompile(pattern)
}
