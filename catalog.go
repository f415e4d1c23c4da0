package branchwire

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"
)

//go:embed patches.md
var catalogDocument []byte

var patchNameRegex = regexp.MustCompile("^`([a-z0-9.-]+)`$")

// PatchParams fills the named slots of anchor and text templates.
type PatchParams struct {
	Target        string
	TestCondition string
}

// PatchDefinition is one immutable catalog entry. Anchor and text are
// templates parsed once at load time.
type PatchDefinition struct {
	Name    string
	Dialect Dialect
	Mode    Mode
	anchor  *template.Template
	text    *template.Template
}

type catalogEntry struct {
	Dialect Dialect `yaml:"dialect"`
	Mode    Mode    `yaml:"mode"`
	Anchor  string  `yaml:"anchor"`
	Text    string  `yaml:"text"`
}

type Catalog struct {
	patches map[string]*PatchDefinition
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog, parsed on first use.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog()
	})
	return defaultCatalog, defaultCatalogErr
}

func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogDocument)
}

// ParseCatalog reads a Markdown document in which every patch is a fenced
// yaml block preceded by a paragraph holding the patch name in backticks.
func ParseCatalog(doc []byte) (*Catalog, error) {
	blocks, err := ExtractCodeBlocks(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog document: %w", err)
	}

	c := &Catalog{patches: make(map[string]*PatchDefinition)}
	for _, b := range blocks {
		if b.Lang != "yaml" {
			continue
		}
		match := patchNameRegex.FindStringSubmatch(b.Hint)
		if match == nil {
			return nil, fmt.Errorf("catalog block without a patch name (hint %q)", b.Hint)
		}
		name := match[1]
		if _, dup := c.patches[name]; dup {
			return nil, fmt.Errorf("duplicate patch %q", name)
		}

		var e catalogEntry
		if err := yaml.Unmarshal([]byte(b.Content), &e); err != nil {
			return nil, fmt.Errorf("patch %q: %w", name, err)
		}
		def, err := newPatchDefinition(name, e)
		if err != nil {
			return nil, err
		}
		c.patches[name] = def
	}
	return c, nil
}

func newPatchDefinition(name string, e catalogEntry) (*PatchDefinition, error) {
	switch e.Mode {
	case ModeAppend, ModePrepend, ModeReplace:
	default:
		return nil, fmt.Errorf("patch %q: unsupported mode %q", name, e.Mode)
	}
	switch e.Dialect {
	case DialectSwift, DialectObjC, DialectPodfile, DialectCartfile:
	default:
		return nil, fmt.Errorf("patch %q: unsupported dialect %q", name, e.Dialect)
	}
	if e.Anchor == "" {
		return nil, fmt.Errorf("patch %q: empty anchor", name)
	}

	anchor, err := parsePatchTemplate(name+".anchor", e.Anchor)
	if err != nil {
		return nil, fmt.Errorf("patch %q: %w", name, err)
	}
	text, err := parsePatchTemplate(name+".text", e.Text)
	if err != nil {
		return nil, fmt.Errorf("patch %q: %w", name, err)
	}

	def := &PatchDefinition{Name: name, Dialect: e.Dialect, Mode: e.Mode, anchor: anchor, text: text}
	if _, err := def.Anchor(PatchParams{Target: "Target", TestCondition: "DEBUG"}); err != nil {
		return nil, err
	}
	return def, nil
}

func parsePatchTemplate(name, body string) (*template.Template, error) {
	return template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(body)
}

func (c *Catalog) Get(name string) (*PatchDefinition, error) {
	def, ok := c.patches[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPatch, name)
	}
	return def, nil
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.patches))
	for n := range c.patches {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Anchor renders the anchor template and compiles it.
func (d *PatchDefinition) Anchor(p PatchParams) (*regexp.Regexp, error) {
	src, err := render(d.anchor, p)
	if err != nil {
		return nil, fmt.Errorf("patch %q: anchor: %w", d.Name, err)
	}
	re, err := regexp.Compile(strings.TrimSpace(src))
	if err != nil {
		return nil, fmt.Errorf("patch %q: anchor: %w", d.Name, err)
	}
	return re, nil
}

// Text renders the insertion template. Capture group references such as
// ${1} survive rendering and are expanded against the anchor match.
func (d *PatchDefinition) Text(p PatchParams) (string, error) {
	s, err := render(d.text, p)
	if err != nil {
		return "", fmt.Errorf("patch %q: text: %w", d.Name, err)
	}
	return s, nil
}

func render(t *template.Template, p PatchParams) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
