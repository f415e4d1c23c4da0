package branchwire

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	fs := memfs.New()
	s := NewFileStore(fs)

	assert.False(t, s.Exists(""))
	assert.False(t, s.Exists("/p/a.swift"))

	require.NoError(t, fs.MkdirAll("/p/dir", 0755))
	assert.False(t, s.Exists("/p/dir"))

	writeMem(t, fs, "/p/a.swift", "old")
	assert.True(t, s.Exists("/p/a.swift"))

	require.NoError(t, s.WriteFile("/p/a.swift", []byte("new")))
	data, err := s.ReadFile("/p/a.swift")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := fs.ReadDir("/p")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp file left behind")

	_, err = s.ReadFile("/p/missing.swift")
	assert.Error(t, err)
}

func TestOverlay(t *testing.T) {
	fs := memfs.New()
	writeMem(t, fs, "/proj/Podfile", "target 'MyApp' do\nend\n")
	o := NewOverlay(NewFileStore(fs))

	require.NoError(t, o.WriteFile("/proj/Podfile", []byte("target 'MyApp' do\n  pod \"Branch\"\nend\n")))
	require.NoError(t, o.WriteFile("/proj/Podfile", []byte("target 'MyApp' do\n  pod \"Branch\"\n  pod 'X'\nend\n")))
	require.NoError(t, o.WriteFile("/elsewhere/New.swift", []byte("import Branch\n")))

	data, err := o.ReadFile("/proj/Podfile")
	require.NoError(t, err)
	assert.Contains(t, string(data), "pod 'X'")
	assert.True(t, o.Exists("/elsewhere/New.swift"))

	assert.Equal(t, "target 'MyApp' do\nend\n", readMem(t, fs, "/proj/Podfile"))
	_, err = fs.Stat("/elsewhere/New.swift")
	assert.Error(t, err)

	diffs, err := o.Diffs("/proj")
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	assert.Contains(t, diffs[0], "--- a/Podfile")
	assert.Contains(t, diffs[0], "+  pod \"Branch\"")
	assert.Contains(t, diffs[0], "+  pod 'X'")
	assert.Contains(t, diffs[1], "+++ b/elsewhere/New.swift")
}

func TestUnifiedDiffUnchanged(t *testing.T) {
	d, err := UnifiedDiff("a", "same\n", "same\n")
	require.NoError(t, err)
	assert.Empty(t, d)
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Record("/b")
	tr.Record("/a")
	tr.Record("/b")

	all := tr.All()
	assert.Equal(t, []string{"/b", "/a"}, all)

	all[0] = "changed"
	assert.Equal(t, []string{"/b", "/a"}, tr.All())
}
