package branchwire

import (
	"github.com/go-git/go-billy/v5"
)

// FileManager replays journal operations. Restored content goes through a
// Store so an editor-backed store sees undo and redo like any other write.
type FileManager struct {
	fs    billy.Filesystem
	store Store
}

func NewFileManager(fs billy.Filesystem, store Store) *FileManager {
	return &FileManager{fs: fs, store: store}
}

// Undo restores the pre-run content of each file whose current content still
// matches what the run left behind.
func (m *FileManager) Undo(ops []Operation, stateDir string) Summary {
	var s Summary
	for _, op := range ops {
		if m.restore(op.Path, op.ContentHash, op.OldContentHash, stateDir) {
			s.Restored = append(s.Restored, op.Path)
		} else {
			s.Failed = append(s.Failed, op.Path)
		}
	}
	return s
}

func (m *FileManager) Redo(ops []Operation, stateDir string) Summary {
	var s Summary
	for _, op := range ops {
		if m.restore(op.Path, op.OldContentHash, op.ContentHash, stateDir) {
			s.Restored = append(s.Restored, op.Path)
		} else {
			s.Failed = append(s.Failed, op.Path)
		}
	}
	return s
}

func (m *FileManager) restore(path, expectHash, targetHash, stateDir string) bool {
	actualHash, _ := GetFileSHA256(m.fs, path)
	if actualHash != expectHash {
		return false
	}

	content, err := ReadBlob(m.fs, stateDir, targetHash)
	if err != nil {
		return false
	}
	return m.store.WriteFile(path, content) == nil
}
