package branchwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	d := Detector{Target: "MyApp"}

	tests := []struct {
		name    string
		family  Family
		dialect Dialect
		text    string
		want    Shape
	}{
		{"swift import present", FamilyImport, DialectSwift, "import UIKit\nimport Branch\n", ShapeSkip},
		{"swift among imports", FamilyImport, DialectSwift, "import UIKit\n\nclass A {}\n", ShapeAmongImports},
		{"swift no imports", FamilyImport, DialectSwift, swiftDelegateBare, ShapeAtEnd},
		{"objc import present", FamilyImport, DialectObjC, "#import <Branch/Branch.h>\n", ShapeSkip},
		{"objc module import present", FamilyImport, DialectObjC, "@import Branch;\n", ShapeSkip},
		{"objc among imports", FamilyImport, DialectObjC, objcDelegate, ShapeAmongImports},
		{"objc include guard", FamilyImport, DialectObjC, bridgingHeaderGuarded, ShapeIncludeGuard},
		{"objc mismatched guard", FamilyImport, DialectObjC, "#ifndef A_h\n#define B_h\n#endif\n", ShapeAtEnd},
		{"objc empty", FamilyImport, DialectObjC, "", ShapeAtEnd},

		{"swift launch present", FamilyLaunch, DialectSwift, "Branch.getInstance().initSession(launchOptions: nil)\n", ShapeSkip},
		{"swift stored instance", FamilyLaunch, DialectSwift, "branch.initSession(launchOptions: o)\n", ShapeSkip},
		{"swift launch existing", FamilyLaunch, DialectSwift, swiftDelegateLegacy, ShapeExisting},
		{"swift launch new", FamilyLaunch, DialectSwift, swiftDelegateBare, ShapeNew},
		{"objc launch existing", FamilyLaunch, DialectObjC, objcDelegate, ShapeExisting},
		{"objc launch new", FamilyLaunch, DialectObjC, "@implementation AppDelegate\n@end\n", ShapeNew},

		{"swift continue new", FamilyContinueActivity, DialectSwift, swiftDelegateLegacy, ShapeNew},
		{
			"swift continue existing", FamilyContinueActivity, DialectSwift,
			"func application(_ application: UIApplication, continue userActivity: NSUserActivity, restorationHandler: @escaping ([UIUserActivityRestoring]?) -> Void) -> Bool {\n",
			ShapeExisting,
		},
		{"swift continue present", FamilyContinueActivity, DialectSwift, "return Branch.getInstance().continue(userActivity)\n", ShapeSkip},
		{"objc continue present", FamilyContinueActivity, DialectObjC, "[[Branch getInstance] continueUserActivity:userActivity];\n", ShapeSkip},

		{"swift open-url legacy", FamilyOpenURL, DialectSwift, swiftDelegateLegacy, ShapeLegacy},
		{
			"swift open-url existing", FamilyOpenURL, DialectSwift,
			"func application(_ app: UIApplication, open url: URL, options: [UIApplication.OpenURLOptionsKey : Any] = [:]) -> Bool {\n",
			ShapeExisting,
		},
		{"swift open-url new", FamilyOpenURL, DialectSwift, swiftDelegateBare, ShapeNew},
		{
			"objc open-url legacy", FamilyOpenURL, DialectObjC,
			"- (BOOL)application:(UIApplication *)application openURL:(NSURL *)url sourceApplication:(NSString *)sourceApplication annotation:(id)annotation {\n",
			ShapeLegacy,
		},
		{"objc open-url present", FamilyOpenURL, DialectObjC, "[[Branch getInstance] application:app openURL:url options:options];\n", ShapeSkip},

		{"swift activation existing", FamilyActivation, DialectSwift, "override func didBecomeActive(with conversation: MSConversation) {\n}\n", ShapeExisting},
		{"objc activation new", FamilyActivation, DialectObjC, "@implementation MessagesViewController\n@end\n", ShapeNew},

		{"podfile pod present", FamilyManifestEntry, DialectPodfile, "target 'MyApp' do\n  pod 'Branch'\nend\n", ShapeSkip},
		{"podfile subspec present", FamilyManifestEntry, DialectPodfile, "target 'MyApp' do\n  pod \"Branch/Core\"\nend\n", ShapeSkip},
		{"podfile legacy pod name", FamilyManifestEntry, DialectPodfile, "pod 'Branch-SDK'\n", ShapeSkip},
		{"podfile target block", FamilyManifestEntry, DialectPodfile, podfileWithBlock, ShapeTargetBlock},
		{"podfile target reference", FamilyManifestEntry, DialectPodfile, "abstract_target 'All' do\n  target 'MyApp'\nend\n", ShapeTargetReference},
		{"podfile other target only", FamilyManifestEntry, DialectPodfile, "target 'MyAppTests' do\nend\n", ShapeTopLevel},
		{
			"podfile branch in another target only", FamilyManifestEntry, DialectPodfile,
			"target 'MyApp' do\n  pod 'Alamofire'\nend\n\ntarget 'Other' do\n  pod 'Branch'\nend\n",
			ShapeTargetBlock,
		},
		{
			"podfile branch in abstract parent", FamilyManifestEntry, DialectPodfile,
			"abstract_target 'All' do\n  pod 'Branch'\n  target 'MyApp'\nend\n",
			ShapeSkip,
		},
		{
			"podfile branch in sibling of reference", FamilyManifestEntry, DialectPodfile,
			"abstract_target 'All' do\n  target 'Ext' do\n    pod 'Branch'\n  end\n  target 'MyApp'\nend\n",
			ShapeTargetReference,
		},
		{"cartfile present", FamilyManifestEntry, DialectCartfile, "github \"BranchMetrics/ios-branch-deep-linking\"\n", ShapeSkip},
		{"cartfile absent", FamilyManifestEntry, DialectCartfile, "github \"Alamofire/Alamofire\"\n", ShapeTopLevel},

		{"unsupported combination", FamilyActivation, DialectPodfile, "", ShapeSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := d.Classify(tt.family, tt.text, tt.dialect)
			assert.Equal(t, tt.want, v.Shape)
			assert.Equal(t, tt.family, v.Family)
			assert.Equal(t, tt.dialect, v.Dialect)
		})
	}
}

func TestClassifyConditional(t *testing.T) {
	d := Detector{Target: "MyApp", Conditional: true}

	v := d.Classify(FamilyLaunch, swiftDelegateBare, DialectSwift)
	assert.Equal(t, "lifecycle-launch.swift.new.conditional", v.Name())

	v = d.Classify(FamilyLaunch, objcDelegate, DialectObjC)
	assert.Equal(t, "lifecycle-launch.objc.existing.conditional", v.Name())

	// Only session initialization picks the key.
	v = d.Classify(FamilyOpenURL, swiftDelegateBare, DialectSwift)
	assert.Equal(t, "lifecycle-open-url.swift.new", v.Name())

	v = d.Classify(FamilyLaunch, "Branch.getInstance().initSession(launchOptions: nil)", DialectSwift)
	assert.False(t, v.Conditional)
	assert.True(t, v.Skip())
}

// Every variant the detector can produce for a file the pipeline visits must
// exist in the catalog.
func TestVariantsExistInCatalog(t *testing.T) {
	c := testCatalog(t)

	combos := []struct {
		family   Family
		dialects []Dialect
	}{
		{FamilyImport, []Dialect{DialectSwift, DialectObjC}},
		{FamilyLaunch, []Dialect{DialectSwift, DialectObjC}},
		{FamilyContinueActivity, []Dialect{DialectSwift, DialectObjC}},
		{FamilyOpenURL, []Dialect{DialectSwift, DialectObjC}},
		{FamilyActivation, []Dialect{DialectSwift, DialectObjC}},
		{FamilyManifestEntry, []Dialect{DialectPodfile, DialectCartfile}},
	}

	for _, combo := range combos {
		for _, dialect := range combo.dialects {
			for _, conditional := range []bool{false, true} {
				d := Detector{Target: "MyApp", Conditional: conditional}
				probes, fallback := d.rules(combo.family, dialect)
				require.NotEmpty(t, probes, "%s/%s", combo.family, dialect)

				shapes := []Shape{fallback}
				for _, p := range probes {
					shapes = append(shapes, p.shape)
				}
				for _, shape := range shapes {
					v := Variant{
						Family:      combo.family,
						Dialect:     dialect,
						Shape:       shape,
						Conditional: conditional && conditionalShape(combo.family, shape),
					}
					if v.Skip() {
						continue
					}
					def, err := c.Get(v.Name())
					if assert.NoError(t, err, v.Name()) {
						assert.Equal(t, dialect, def.Dialect, v.Name())
					}
				}
			}
		}
	}
}

func TestDialectForPath(t *testing.T) {
	assert.Equal(t, DialectSwift, DialectForPath("/p/AppDelegate.swift"))
	assert.Equal(t, DialectObjC, DialectForPath("AppDelegate.m"))
	assert.Equal(t, DialectObjC, DialectForPath("AppDelegate.mm"))
	assert.Equal(t, DialectObjC, DialectForPath("MyApp-Bridging-Header.h"))
	assert.Equal(t, DialectPodfile, DialectForPath("/p/Podfile"))
	assert.Equal(t, DialectCartfile, DialectForPath("Cartfile"))
	assert.Equal(t, Dialect(""), DialectForPath("README.md"))
}
