package branchwire

// Tracker collects the files modified during one run, in the order they were
// first modified.
type Tracker struct {
	paths []string
	seen  map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

func (t *Tracker) Record(path string) {
	if _, ok := t.seen[path]; ok {
		return
	}
	t.seen[path] = struct{}{}
	t.paths = append(t.paths, path)
}

func (t *Tracker) All() []string {
	return append([]string(nil), t.paths...)
}
