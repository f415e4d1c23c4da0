package branchwire

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	stateDirName   = ".branchwire"
	stateFileName  = "journal"
	BlobsDir       = "blobs"
	entrySeparator = "\n===\n"
	opSeparator    = "\n---\n"
	none           = "-"
)

// Operation records one file rewrite: the content hash before and after.
type Operation struct {
	Timestamp      int64
	Path           string
	OldContentHash string
	ContentHash    string
}

type HistoryEntry struct {
	Operations []Operation
}

type State struct {
	History      []HistoryEntry
	CurrentIndex int
}

// StateManager keeps the undo journal of integration runs under .branchwire/.
type StateManager struct {
	fs        billy.Filesystem
	statePath string
	state     *State
	StateDir  string
}

// findGitRoot returns the repository root containing dir, or dir itself.
func findGitRoot(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return dir
	}
	return strings.TrimSpace(string(out))
}

func NewStateManager(fs billy.Filesystem, root string) (*StateManager, error) {
	dir := filepath.Join(root, stateDirName)
	m := &StateManager{fs: fs, statePath: filepath.Join(dir, stateFileName), StateDir: dir}
	m.state = &State{CurrentIndex: -1, History: []HistoryEntry{}}
	_ = m.load()
	return m, nil
}

func (m *StateManager) load() error {
	data, err := util.ReadFile(m.fs, m.statePath)
	if err != nil {
		return err
	}

	blocks := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), entrySeparator)
	if len(blocks) == 0 {
		return nil
	}

	idx, _ := strconv.Atoi(strings.TrimSpace(blocks[0]))
	m.state = &State{CurrentIndex: idx, History: []HistoryEntry{}}

	val := func(s string) string {
		s = strings.TrimSpace(s)
		if s == none {
			return ""
		}
		return s
	}

	for _, b := range blocks[1:] {
		entry := HistoryEntry{}
		for _, opBlock := range strings.Split(strings.TrimSpace(b), opSeparator) {
			lines := strings.Split(strings.TrimSpace(opBlock), "\n")
			if len(lines) < 4 {
				continue
			}
			ts, _ := strconv.ParseInt(strings.TrimSpace(lines[0]), 10, 64)
			entry.Operations = append(entry.Operations, Operation{
				Timestamp:      ts,
				Path:           val(lines[1]),
				OldContentHash: val(lines[2]),
				ContentHash:    val(lines[3]),
			})
		}
		m.state.History = append(m.state.History, entry)
	}
	if m.state.CurrentIndex >= len(m.state.History) {
		m.state.CurrentIndex = len(m.state.History) - 1
	}
	return nil
}

func (m *StateManager) save() error {
	placeholder := func(s string) string {
		if s == "" {
			return none
		}
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d", m.state.CurrentIndex)
	for _, e := range m.state.History {
		b.WriteString(entrySeparator)
		for i, op := range e.Operations {
			fmt.Fprintf(&b, "%d\n%s\n%s\n%s", op.Timestamp, placeholder(op.Path), placeholder(op.OldContentHash), placeholder(op.ContentHash))
			if i < len(e.Operations)-1 {
				b.WriteString(opSeparator)
			}
		}
	}
	if err := m.fs.MkdirAll(m.StateDir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return util.WriteFile(m.fs, m.statePath, []byte(b.String()), 0644)
}

// Sync drops journal entries that no longer describe the files on disk.
func (m *StateManager) Sync() error {
	if m.state.CurrentIndex < 0 {
		return nil
	}

	for i := m.state.CurrentIndex; i >= 0; i-- {
		if m.matchState(i) {
			if i < m.state.CurrentIndex {
				m.state.History = m.state.History[:i+1]
				m.state.CurrentIndex = i
				return m.save()
			}
			return nil
		}
	}

	m.state.History = []HistoryEntry{}
	m.state.CurrentIndex = -1
	return m.save()
}

func (m *StateManager) matchState(idx int) bool {
	if idx < 0 || idx >= len(m.state.History) {
		return false
	}
	for _, op := range m.state.History[idx].Operations {
		currentHash, err := GetFileSHA256(m.fs, op.Path)
		if err != nil || currentHash != op.ContentHash {
			return false
		}
	}
	return true
}

func (m *StateManager) Write(ops []Operation) error {
	if len(ops) == 0 {
		return nil
	}
	if err := m.Sync(); err != nil {
		return err
	}
	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}
	m.state.History = append(m.state.History, HistoryEntry{Operations: ops})
	m.state.CurrentIndex++
	return m.save()
}

func (m *StateManager) GetOperationsToUndo() ([]Operation, error) {
	if m.state.CurrentIndex < 0 {
		return nil, nil
	}
	ops := m.state.History[m.state.CurrentIndex].Operations
	m.state.CurrentIndex--
	return ops, m.save()
}

func (m *StateManager) GetOperationsToRedo() ([]Operation, error) {
	if m.state.CurrentIndex+1 >= len(m.state.History) {
		return nil, nil
	}
	m.state.CurrentIndex++
	return m.state.History[m.state.CurrentIndex].Operations, m.save()
}

// Backup stores the current content of path as a blob and remembers its hash.
// Only the first successful call per path has an effect. The hash is not
// remembered when the blob could not be written.
func (m *StateManager) Backup(path string, hashes map[string]string) error {
	if _, ok := hashes[path]; ok {
		return nil
	}
	content, err := util.ReadFile(m.fs, path)
	if err != nil {
		hashes[path] = ""
		return nil
	}
	h := hashBytes(content)
	if err := WriteBlob(m.fs, m.StateDir, h, content); err != nil {
		return fmt.Errorf("back up %s: %w", path, err)
	}
	hashes[path] = h
	return nil
}

// CreateOperations snapshots the post-run content of every modified path.
func (m *StateManager) CreateOperations(modified []string, oldHashes map[string]string) ([]Operation, error) {
	now := time.Now().UTC().Unix()
	ops := make([]Operation, 0, len(modified))
	for _, path := range modified {
		content, err := util.ReadFile(m.fs, path)
		if err != nil {
			continue
		}
		h := hashBytes(content)
		if err := WriteBlob(m.fs, m.StateDir, h, content); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", path, err)
		}
		ops = append(ops, Operation{
			Timestamp:      now,
			Path:           path,
			OldContentHash: oldHashes[path],
			ContentHash:    h,
		})
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })
	return ops, nil
}

// journalStore backs up each file before its first write in a run. A file
// whose backup fails is not written, so every recorded change can be undone.
type journalStore struct {
	Store
	sm     *StateManager
	hashes map[string]string
}

func newJournalStore(base Store, sm *StateManager) *journalStore {
	return &journalStore{Store: base, sm: sm, hashes: make(map[string]string)}
}

func (j *journalStore) WriteFile(path string, data []byte) error {
	if err := j.sm.Backup(path, j.hashes); err != nil {
		return err
	}
	return j.Store.WriteFile(path, data)
}
