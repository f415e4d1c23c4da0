package branchwire

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	fileStyle    = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	presentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	noteStyle    = lipgloss.NewStyle().Faint(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

type spinner struct {
	frames []string
	index  int
}

func newSpinner() spinner { return spinner{frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}} }
func (s *spinner) tick() { s.index = (s.index + 1) % len(s.frames) }
func (s spinner) View() string { return s.frames[s.index] }

type TUI struct {
	app         *App
	noAnimation bool
	spinner     spinner
	mu          sync.Mutex
	current     string
}

func NewTUI(app *App, noAnimation bool) *TUI {
	return &TUI{app: app, noAnimation: noAnimation, spinner: newSpinner()}
}

func (t *TUI) Run() error {
	if t.noAnimation {
		summary, err := t.app.Execute()
		fmt.Print(FormatSummary(summary))
		return err
	}

	t.app.SetProgressCallback(func(role FileRole, path string) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.current = fmt.Sprintf("%s %s", role, path)
	})

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				t.renderProgress()
			}
		}
	}()

	summary, err := t.app.Execute()
	close(done)
	fmt.Print("\r\x1b[K")

	fmt.Print(FormatSummary(summary))
	return err
}

func (t *TUI) renderProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spinner.tick()
	fmt.Printf("\r%s Patching %s\x1b[K", t.spinner.View(), t.current)
}

func FormatSummary(s Summary) string {
	var b strings.Builder
	if s.Message != "" {
		b.WriteString(headerStyle.Render(s.Message) + "\n\n")
	}

	renderList := func(title string, style lipgloss.Style, list []string) {
		if len(list) == 0 {
			return
		}
		b.WriteString(style.Render(title) + "\n")
		for _, f := range list {
			b.WriteString(fmt.Sprintf("  %s\n", f))
		}
	}

	if r := s.Report; r != nil {
		for _, f := range r.Files {
			formatFile(&b, f)
		}
		var warnings []string
		for _, w := range r.Warnings {
			warnings = append(warnings, w.Error())
		}
		renderList("Warnings:", skippedStyle, warnings)
		renderList("Modified:", successStyle, r.Modified)
	}

	renderList("Restored:", successStyle, s.Restored)
	renderList("Failed:", errorStyle, s.Failed)

	for _, d := range s.Diffs {
		b.WriteString("\n" + FormatDiff(d))
	}
	return b.String()
}

func formatFile(b *strings.Builder, f *FileReport) {
	b.WriteString(fileStyle.Render(fmt.Sprintf("%s (%s)", f.Path, f.Role)) + "\n")
	if f.Integrated() {
		b.WriteString("  " + presentStyle.Render("already integrated") + "\n")
		return
	}
	for _, step := range f.Steps {
		line := fmt.Sprintf("  %s %s", statusLabel(step.Status), step.Family)
		if step.Variant != "" && step.Status == StatusApplied {
			line += noteStyle.Render(" [" + step.Variant + "]")
		}
		b.WriteString(line + "\n")
		if step.Err != nil {
			b.WriteString("      " + errorStyle.Render(step.Err.Error()) + "\n")
			b.WriteString("      " + noteStyle.Render("patch manually") + "\n")
		}
		if step.Note != "" {
			b.WriteString("      " + noteStyle.Render(step.Note) + "\n")
		}
	}
}

func statusLabel(s Status) string {
	switch s {
	case StatusApplied:
		return successStyle.Render("patched")
	case StatusAlreadyPresent:
		return presentStyle.Render("present")
	case StatusNotNeeded:
		return presentStyle.Render("not needed")
	case StatusSkipped:
		return skippedStyle.Render("skipped")
	default:
		return errorStyle.Render("failed")
	}
}

// FormatDiff colors a unified diff line by line.
func FormatDiff(diff string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			text = fileStyle.Render(text)
		case strings.HasPrefix(text, "@@"):
			text = hunkStyle.Render(text)
		case strings.HasPrefix(text, "+"):
			text = addedStyle.Render(text)
		case strings.HasPrefix(text, "-"):
			text = removedStyle.Render(text)
		}
		b.WriteString(text)
		if strings.HasSuffix(line, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
