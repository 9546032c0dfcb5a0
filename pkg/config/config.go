package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/mdc/api/v1beta1"
	"github.com/macropower/mdc/pkg/render"
	"github.com/macropower/mdc/pkg/schema"
	"github.com/macropower/mdc/pkg/selector"
	"github.com/macropower/mdc/pkg/store"
)

//go:generate go run ../../internal/schemagen/main.go -o config.v1beta1.json

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed config.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for mdc configurations.
	ValidKinds = []string{"Configuration"}

	// DefaultValidator validates configuration against the JSON schema.
	DefaultValidator = schema.MustNewValidator("/config.v1beta1.json", schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// RulesConfig locates rule documents.
type RulesConfig struct {
	// Paths lists the rule directories, in priority order.
	Paths []string `json:"paths,omitempty" jsonschema:"title=Rule Directories"`
	// Extensions lists the file extensions recognized as rule documents.
	Extensions []string `json:"extensions,omitempty" jsonschema:"title=Rule Extensions"`
}

func (rc *RulesConfig) EnsureDefaults() {
	if len(rc.Paths) == 0 {
		rc.Paths = []string{".cursor/rules"}
	}
	if len(rc.Extensions) == 0 {
		rc.Extensions = slices.Clone(store.DefaultExtensions)
	}
}

// OutputConfig controls how selected documents are printed.
type OutputConfig struct {
	// Format is one of text, json, pretty. Empty selects pretty on a
	// terminal and text otherwise.
	Format string `json:"format,omitempty" jsonschema:"title=Output Format"`
	// WordWrap sets the wrap width for pretty output. Zero disables
	// wrapping.
	WordWrap int `json:"wordWrap,omitempty" jsonschema:"title=Word Wrap"`
}

//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	// Rules locates rule documents.
	Rules *RulesConfig `json:"rules,omitempty" jsonschema:"title=Rules"`
	// Output controls how selected documents are printed.
	Output *OutputConfig `json:"output,omitempty" jsonschema:"title=Output"`
	// Filters are CEL expressions that further constrain selection.
	Filters []*selector.Filter `json:"filters,omitempty" jsonschema:"title=Filters"`

	v1beta1.TypeMeta `json:",inline"`
}

func NewConfig() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       ValidKinds[0],
		},
	}
	c.EnsureDefaults()

	return c
}

func (c *Config) EnsureDefaults() {
	if c.Rules == nil {
		c.Rules = &RulesConfig{}
	}

	c.Rules.EnsureDefaults()

	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
}

// Validate enforces requirements that the JSON schema cannot represent.
func (c *Config) Validate() error {
	for i, f := range c.Filters {
		err := f.CompileMatch()
		if err != nil {
			return fmt.Errorf("filters[%d]: %w", i, err)
		}
	}

	if c.Output != nil && c.Output.Format != "" {
		_, err := render.GetFormat(c.Output.Format)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}

	return nil
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

func (c *Config) MarshalYAML() ([]byte, error) {
	b := &bytes.Buffer{}
	enc := yaml.NewEncoder(b)

	err := enc.Encode(*c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return b.Bytes(), nil
}

// GetPath returns the user config file path, preferring $XDG_CONFIG_HOME.
func GetPath() string {
	if xdgHome, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdgHome != "" {
		return filepath.Join(xdgHome, "mdc", "config.yaml")
	}

	usrHome, err := os.UserHomeDir()
	if err == nil && usrHome != "" {
		return filepath.Join(usrHome, ".config", "mdc", "config.yaml")
	}

	tmpConfig := filepath.Join(os.TempDir(), "mdc", "config.yaml")

	slog.Warn("could not determine user config directory, using temp path for config",
		slog.String("path", tmpConfig),
		slog.Any("error", fmt.Errorf("$XDG_CONFIG_HOME is unset, fall back to home directory: %w", err)),
	)

	return tmpConfig
}

// WriteDefaultConfig writes the embedded default config.yaml and its JSON
// schema to the specified path, unless a config already exists there.
func WriteDefaultConfig(path string) error {
	pathInfo, err := os.Stat(path)
	if pathInfo != nil {
		switch {
		case err == nil && pathInfo.Mode().IsRegular():
			slog.Debug("configuration file already exists, skipping write",
				slog.String("path", path),
			)

			return nil
		case pathInfo.IsDir():
			return fmt.Errorf("%s: path is a directory", path)
		default:
			return fmt.Errorf("%s: unknown file state", path)
		}
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	slog.Info("write default configuration",
		slog.String("path", path),
	)

	err = os.WriteFile(path, defaultConfigYAML, 0o600)
	if err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	// Write the JSON schema alongside the config file, for editor support.
	schemaPath := filepath.Join(filepath.Dir(path), "config.v1beta1.json")

	err = os.WriteFile(schemaPath, schemaJSON, 0o600)
	if err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}

	return nil
}
