package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/macropower/mdc/pkg/schema"
)

// Validator validates decoded configuration data.
type Validator interface {
	Validate(data any) error
}

// Loader reads a configuration document, validates it against the JSON
// schema, and decodes it into a [Config].
type Loader struct {
	cv   Validator
	data []byte
}

func NewLoaderFromBytes(data []byte, opts ...LoaderOpt) *Loader {
	cl := &Loader{
		cv:   DefaultValidator,
		data: data,
	}
	for _, opt := range opts {
		opt(cl)
	}

	return cl
}

func NewLoaderFromFile(path string, opts ...LoaderOpt) (*Loader, error) {
	data, err := readConfig(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return NewLoaderFromBytes(data, opts...), nil
}

type LoaderOpt func(*Loader)

func WithValidator(cv Validator) LoaderOpt {
	return func(cl *Loader) {
		cl.cv = cv
	}
}

// Validate validates the configuration data against the JSON schema
// without decoding it into a [Config].
func (cl *Loader) Validate() error {
	var anyConfig any

	dec := yaml.NewDecoder(bytes.NewReader(cl.data))

	err := dec.Decode(&anyConfig)
	if err != nil {
		return cl.wrapError(err)
	}

	err = cl.cv.Validate(anyConfig)
	if err != nil {
		return cl.wrapError(err)
	}

	return nil
}

func (cl *Loader) Load() (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(cl.data))

	err := dec.Decode(c)
	if err != nil {
		return nil, cl.wrapError(err)
	}

	c.EnsureDefaults()

	// Run Go validation for requirements the schema can't represent.
	err = c.Validate()
	if err != nil {
		return nil, err
	}

	return c, nil
}

// wrapError annotates errors with the offending source location where
// possible.
func (cl *Loader) wrapError(err error) error {
	var validationErr *schema.ValidationError
	if errors.As(err, &validationErr) && validationErr.Path != nil {
		annotated, annotateErr := validationErr.Path.AnnotateSource(cl.data, false)
		if annotateErr == nil {
			return fmt.Errorf("%w:\n%s", validationErr, string(annotated))
		}

		return validationErr
	}

	formatted := yaml.FormatError(err, false, true)
	if formatted != err.Error() {
		return fmt.Errorf("invalid yaml: %s", formatted)
	}

	return err
}

func readConfig(path string) ([]byte, error) {
	pathInfo, err := os.Stat(path)
	if pathInfo != nil {
		if err == nil && pathInfo.IsDir() {
			return nil, fmt.Errorf("%s: path is a directory", path)
		}
		if err == nil && !pathInfo.Mode().IsRegular() {
			return nil, fmt.Errorf("%s: unknown file state", path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}
