package branchwire

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Store is where patched files are read from and written to. A write replaces
// the whole file in one step.
type Store interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

type FileStore struct {
	fs billy.Filesystem
}

func NewFileStore(fs billy.Filesystem) *FileStore {
	return &FileStore{fs: fs}
}

func (s *FileStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *FileStore) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes to a temp file next to path and renames it into place.
func (s *FileStore) WriteFile(path string, data []byte) error {
	tmp, err := util.TempFile(s.fs, filepath.Dir(path), ".branchwire-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}

	if info, err := s.fs.Stat(path); err == nil {
		if ch, ok := s.fs.(billy.Change); ok {
			_ = ch.Chmod(tmpName, info.Mode())
		}
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// Overlay keeps writes in memory on top of another store. Later reads see the
// written content, so a dry run exercises the same pipeline as a real run.
type Overlay struct {
	base      Store
	files     map[string][]byte
	originals map[string][]byte
	order     []string
}

func NewOverlay(base Store) *Overlay {
	return &Overlay{
		base:      base,
		files:     make(map[string][]byte),
		originals: make(map[string][]byte),
	}
}

func (o *Overlay) Exists(path string) bool {
	if _, ok := o.files[path]; ok {
		return true
	}
	return o.base.Exists(path)
}

func (o *Overlay) ReadFile(path string) ([]byte, error) {
	if data, ok := o.files[path]; ok {
		return append([]byte(nil), data...), nil
	}
	return o.base.ReadFile(path)
}

func (o *Overlay) WriteFile(path string, data []byte) error {
	if _, seen := o.files[path]; !seen {
		orig, err := o.base.ReadFile(path)
		if err != nil {
			orig = nil
		}
		o.originals[path] = orig
		o.order = append(o.order, path)
	}
	o.files[path] = append([]byte(nil), data...)
	return nil
}

// Diffs renders a unified diff per written file, in write order. File names
// are shown relative to root when they are inside it.
func (o *Overlay) Diffs(root string) ([]string, error) {
	var diffs []string
	for _, path := range o.order {
		name := path
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			name = rel
		}
		d, err := UnifiedDiff(name, string(o.originals[path]), string(o.files[path]))
		if err != nil {
			return nil, err
		}
		if d != "" {
			diffs = append(diffs, d)
		}
	}
	return diffs, nil
}
