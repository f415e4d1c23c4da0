package branchwire

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

func writeMem(t *testing.T, fs billy.Filesystem, path, content string) string {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, path, []byte(content), 0644))
	return path
}

func readMem(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

// countingStore counts writes that reach the underlying store.
type countingStore struct {
	Store
	writes int
}

func (s *countingStore) WriteFile(path string, data []byte) error {
	s.writes++
	return s.Store.WriteFile(path, data)
}

const (
	swiftDelegateBare = `@UIApplicationMain
class AppDelegate: UIResponder, UIApplicationDelegate {
    var window: UIWindow?
}
`

	swiftDelegateLegacy = `import UIKit

@UIApplicationMain
class AppDelegate: UIResponder, UIApplicationDelegate {
    var window: UIWindow?

    func application(_ application: UIApplication, didFinishLaunchingWithOptions launchOptions: [UIApplication.LaunchOptionsKey: Any]?) -> Bool {
        return true
    }

    func application(_ application: UIApplication, open url: URL, sourceApplication: String?, annotation: Any) -> Bool {
        return true
    }
}
`

	objcDelegate = `#import "AppDelegate.h"

@implementation AppDelegate

- (BOOL)application:(UIApplication *)application didFinishLaunchingWithOptions:(NSDictionary *)launchOptions {
    return YES;
}

@end
`

	podfileWithBlock = `platform :ios, '12.0'

target 'MyApp' do
  use_frameworks!
  pod 'Alamofire'
end

target 'MyAppTests' do
  pod 'Quick'
end
`

	bridgingHeaderGuarded = `#ifndef MyApp_Bridging_Header_h
#define MyApp_Bridging_Header_h

#endif
`
)
