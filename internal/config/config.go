// Package config resolves named persistence units from a YAML or CUE file.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/capitals/internal/persistence"
)

//go:embed schema.cue
var schemaCUE string

// DefaultPath is the config file the CLI looks for when none is given.
const DefaultPath = "persistence.yaml"

// Config is the set of persistence units declared in one file.
type Config struct {
	Units []persistence.Unit `yaml:"units" json:"units"`

	// Path is the file the config was loaded from, if any.
	Path string `yaml:"-" json:"-"`
}

// Load reads a config file. The format is chosen by extension: .yaml/.yml
// or .cue. Relative database paths are resolved against the file's
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, persistence.NewConfigurationError("load config", "", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	case ".cue":
		cfg, err = parseCUE(data, filepath.Base(path))
	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, persistence.NewConfigurationError("load config", "", fmt.Errorf("%s: %w", path, err))
	}

	cfg.Path = path
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.validate(); err != nil {
		return nil, persistence.NewConfigurationError("load config", "", fmt.Errorf("%s: %w", path, err))
	}
	return cfg, nil
}

// parseYAML decodes with strict field checking (catches typos such as
// "databse:").
func parseYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for i := range cfg.Units {
		cfg.Units[i] = cfg.Units[i].WithDefaults()
	}
	return &cfg, nil
}

// parseCUE unifies the file with the embedded schema, which supplies
// defaults and rejects unknown fields.
func parseCUE(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(); err != nil {
		return nil, fmt.Errorf("validating CUE: %w", err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding CUE: %w", err)
	}
	for i := range cfg.Units {
		cfg.Units[i] = cfg.Units[i].WithDefaults()
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(base string) {
	for i, u := range c.Units {
		c.Units[i].Database = resolveDatabase(u.Database, base)
	}
}

func resolveDatabase(db, base string) string {
	if db == "" || db == ":memory:" || strings.HasPrefix(db, "file:") || filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(base, db)
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Units))
	for i, u := range c.Units {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("units[%d]: %w", i, err)
		}
		if seen[u.Name] {
			return fmt.Errorf("units[%d]: duplicate unit name %q", i, u.Name)
		}
		seen[u.Name] = true
	}
	return nil
}

// Unit returns the unit with the given name.
func (c *Config) Unit(name string) (persistence.Unit, error) {
	for _, u := range c.Units {
		if u.Name == name {
			return u, nil
		}
	}
	return persistence.Unit{}, persistence.NewConfigurationError(
		"resolve unit", name, fmt.Errorf("no persistence unit named %q in %s", name, c.source()),
	)
}

// Names lists the declared unit names in file order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Units))
	for i, u := range c.Units {
		names[i] = u.Name
	}
	return names
}

func (c *Config) source() string {
	if c.Path == "" {
		return "config"
	}
	return c.Path
}
