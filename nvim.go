package branchwire

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/neovim/go-client/nvim"
)

const undoDir = "~/.local/state/nvim/undo/"

type NvimManager struct {
	v             *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string
}

// NewNvimManager attaches to the editor in $NVIM (or $NVIM_LISTEN_ADDRESS),
// or starts a headless instance with a persistent undo file.
func NewNvimManager() (*NvimManager, error) {
	for _, env := range []string{"NVIM", "NVIM_LISTEN_ADDRESS"} {
		if addr := os.Getenv(env); addr != "" {
			if v, err := nvim.Dial(addr); err == nil {
				return &NvimManager{v: v}, nil
			}
		}
	}

	tmpDir, err := os.MkdirTemp("", "branchwire-nvim-")
	if err != nil {
		return nil, err
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("start nvim: %w", err)
	}

	for i := 0; i < 20; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("connect to nvim: %w", err)
	}

	m := &NvimManager{v: v, isSelfStarted: true, cmd: cmd, socketPath: socketPath}
	m.configureTempInstance()
	return m, nil
}

func (m *NvimManager) configureTempInstance() {
	home, _ := os.UserHomeDir()
	expandedUndoDir := strings.Replace(undoDir, "~", home, 1)
	_ = os.MkdirAll(expandedUndoDir, 0755)

	b := m.v.NewBatch()
	b.Command("set undofile")
	b.Command(fmt.Sprintf("set undodir=%s", expandedUndoDir))
	b.Command("set noswapfile")
	_ = b.Execute()
}

func (m *NvimManager) Close() {
	if m.v != nil {
		m.v.Close()
	}
	if m.isSelfStarted && m.cmd != nil && m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
		_ = m.cmd.Wait()
		_ = os.RemoveAll(filepath.Dir(m.socketPath))
	}
}

// replaceBuffer loads path, swaps its whole content for data and saves it.
func (m *NvimManager) replaceBuffer(path string, data []byte) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	text := string(data)
	eol := strings.HasSuffix(text, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	byteLines := make([][]byte, len(lines))
	for i, l := range lines {
		byteLines[i] = []byte(l)
	}

	b := m.v.NewBatch()
	b.Command(fmt.Sprintf("edit! %s", fnameEscape(absPath)))
	b.SetBufferLines(0, 0, -1, true, byteLines)
	if eol {
		b.Command("setlocal eol fixeol")
	} else {
		b.Command("setlocal noeol nofixeol")
	}
	b.Command("write")
	if err := b.Execute(); err != nil {
		return fmt.Errorf("nvim write %s: %w", path, err)
	}
	return nil
}

func fnameEscape(path string) string {
	return strings.NewReplacer(" ", `\ `, "%", `\%`, "#", `\#`).Replace(path)
}

// NvimStore reads from base and writes through the editor, so every patch
// lands in the buffer's undo history.
type NvimStore struct {
	base Store
	m    *NvimManager
}

func NewNvimStore(m *NvimManager, base Store) *NvimStore {
	return &NvimStore{base: base, m: m}
}

func (s *NvimStore) Exists(path string) bool { return s.base.Exists(path) }

func (s *NvimStore) ReadFile(path string) ([]byte, error) { return s.base.ReadFile(path) }

func (s *NvimStore) WriteFile(path string, data []byte) error {
	return s.m.replaceBuffer(path, data)
}
