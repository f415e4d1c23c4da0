package branchwire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound indicates no project description was found in the working directory.
var ErrConfigNotFound = errors.New("configuration file not found")

const defaultTestCondition = "DEBUG"

var macroRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Keys holds the Branch keys of the app. At least one is required.
type Keys struct {
	Live string `yaml:"live,omitempty" validate:"required_without=Test"`
	Test string `yaml:"test,omitempty" validate:"required_without=Live"`
}

type Paths struct {
	BridgingHeader         string `yaml:"bridging_header,omitempty"`
	AppDelegateSwift       string `yaml:"app_delegate_swift,omitempty"`
	AppDelegateObjC        string `yaml:"app_delegate_objc,omitempty"`
	MessagesViewController string `yaml:"messages_view_controller,omitempty"`
	Podfile                string `yaml:"podfile,omitempty" validate:"excluded_with=Cartfile"`
	Cartfile               string `yaml:"cartfile,omitempty"`
}

// Config is the resolved description of the project being integrated.
type Config struct {
	Target string `yaml:"target" validate:"required"`
	Keys   Keys   `yaml:"keys"`

	// Setting is the build setting that disambiguates keys per configuration.
	Setting string `yaml:"setting,omitempty"`

	// InfoPlists counts distinct Info.plist files across configurations.
	InfoPlists int `yaml:"info_plists,omitempty" validate:"gte=0"`

	ModulesEnabled bool   `yaml:"modules_enabled,omitempty"`
	TestCondition  string `yaml:"test_condition,omitempty" validate:"omitempty,macro"`
	PatchSource    *bool  `yaml:"patch_source,omitempty"`
	AddSDK         *bool  `yaml:"add_sdk,omitempty"`
	Paths          Paths  `yaml:"paths"`
}

func (c *Config) PatchSourceEnabled() bool { return c.PatchSource == nil || *c.PatchSource }

func (c *Config) AddSDKEnabled() bool { return c.AddSDK == nil || *c.AddSDK }

func (c *Config) KeyCount() int {
	n := 0
	if c.Keys.Live != "" {
		n++
	}
	if c.Keys.Test != "" {
		n++
	}
	return n
}

// UseConditionalTestKey reports whether synthesized code has to pick the test
// key at runtime: several keys, no setting to tell them apart, and one shared
// Info.plist.
func (c *Config) UseConditionalTestKey() bool {
	return c.KeyCount() > 1 && c.Setting == "" && c.InfoPlists <= 1
}

// ManifestPath returns the configured dependency manifest. A Podfile wins.
func (c *Config) ManifestPath() (string, Dialect) {
	switch {
	case c.Paths.Podfile != "":
		return c.Paths.Podfile, DialectPodfile
	case c.Paths.Cartfile != "":
		return c.Paths.Cartfile, DialectCartfile
	}
	return "", ""
}

func (c *Config) UsesSwift() bool {
	return c.Paths.AppDelegateSwift != "" || DialectForPath(c.Paths.MessagesViewController) == DialectSwift
}

// BridgingHeaderRequired reports whether Swift code can only see the SDK
// through the bridging header.
func (c *Config) BridgingHeaderRequired() bool {
	manifest, _ := c.ManifestPath()
	return c.UsesSwift() && !c.ModulesEnabled && manifest != ""
}

func (c *Config) Params() PatchParams {
	return PatchParams{Target: c.Target, TestCondition: c.TestCondition}
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("macro", func(fl validator.FieldLevel) bool {
		return macroRegex.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.TestCondition == "" {
		c.TestCondition = defaultTestCondition
	}
}

// resolvePaths makes every configured path absolute against baseDir.
func (c *Config) resolvePaths(baseDir string) {
	for _, p := range []*string{
		&c.Paths.BridgingHeader,
		&c.Paths.AppDelegateSwift,
		&c.Paths.AppDelegateObjC,
		&c.Paths.MessagesViewController,
		&c.Paths.Podfile,
		&c.Paths.Cartfile,
	} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		*p = filepath.Join(baseDir, *p)
	}
}

// ParseConfig decodes a YAML project description. Environment variables are
// expanded before decoding; relative paths are resolved against baseDir.
func ParseConfig(data []byte, baseDir string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	if strings.TrimSpace(expanded) == "" {
		return nil, errors.New("empty configuration")
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing YAML config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.resolvePaths(baseDir)
	return &cfg, nil
}

// LoadConfig reads the project description from explicitPath, or from
// branchwire.yaml / branchwire.yml in dir. Relative paths are taken from dir.
func LoadConfig(fs billy.Filesystem, dir, explicitPath string) (*Config, string, error) {
	path := explicitPath
	if path == "" {
		found, err := findConfigFile(fs, dir)
		if err != nil {
			return nil, "", err
		}
		path = found
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	data, err := util.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("specified config file does not exist: %s", path)
		}
		return nil, "", fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	cfg, err := ParseConfig(data, filepath.Dir(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cfg, path, nil
}

func findConfigFile(fs billy.Filesystem, dir string) (string, error) {
	for _, name := range []string{"branchwire.yaml", "branchwire.yml"} {
		path := filepath.Join(dir, name)
		if _, err := fs.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: create branchwire.yaml in %s or pass --config", ErrConfigNotFound, dir)
}
