package branchwire

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

type Applier struct {
	store   Store
	tracker *Tracker
	logger  *slog.Logger
}

func NewApplier(store Store, tracker *Tracker, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{store: store, tracker: tracker, logger: logger}
}

// Apply rewrites path with def. The new content is computed in memory and
// written once; when the anchor is missing nothing is written.
func (a *Applier) Apply(def *PatchDefinition, path string, params PatchParams) error {
	re, err := def.Anchor(params)
	if err != nil {
		return &PatchError{Patch: def.Name, Path: path, Err: err}
	}

	src, err := a.store.ReadFile(path)
	if err != nil {
		return &PatchError{Patch: def.Name, Path: path, Err: err}
	}

	text, err := def.Text(params)
	if err != nil {
		return &PatchError{Patch: def.Name, Path: path, Err: err}
	}

	out, err := Splice(string(src), re, text, def.Mode)
	if err != nil {
		return &PatchError{Patch: def.Name, Path: path, Err: err}
	}
	if out == string(src) {
		return nil
	}

	if err := a.store.WriteFile(path, []byte(out)); err != nil {
		return &PatchError{Patch: def.Name, Path: path, Err: err}
	}
	a.logger.Debug("patched file", "path", path, "patch", def.Name, "mode", def.Mode)
	if a.tracker != nil {
		a.tracker.Record(path)
	}
	return nil
}

// Splice inserts text relative to the first match of anchor in src. Capture
// groups referenced as ${n} in text are expanded from that match. Text that
// lands at the very start of the file loses its leading blank lines.
func Splice(src string, anchor *regexp.Regexp, text string, mode Mode) (string, error) {
	loc := anchor.FindStringSubmatchIndex(src)
	if loc == nil {
		return "", ErrAnchorNotFound
	}
	insertion := string(anchor.ExpandString(nil, text, src, loc))
	start, end := loc[0], loc[1]

	at := start
	switch mode {
	case ModeAppend:
		at = end
	case ModePrepend, ModeReplace:
	default:
		return "", fmt.Errorf("unsupported mode %q", mode)
	}
	if at == 0 {
		insertion = strings.TrimLeft(insertion, "\n")
	}

	switch mode {
	case ModeAppend:
		return src[:end] + insertion + src[end:], nil
	case ModePrepend:
		return src[:start] + insertion + src[start:], nil
	default:
		return src[:start] + insertion + src[end:], nil
	}
}
