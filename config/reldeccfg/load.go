package reldeccfg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigurationError reports a malformed input document: a structural
// problem, not a business-rule violation.
type ConfigurationError struct {
	Path    string // source file, may be empty
	Field   string // offending field path, may be empty
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	s := "configuration error"
	if e.Path != "" {
		s += " in " + e.Path
	}
	if e.Field != "" {
		s += " at " + e.Field
	}
	s += ": " + e.Message
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(path, field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Path: path, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Load reads a YAML file from the given path and returns a deserialized Root.
// Unknown fields are rejected. Structural validation beyond decoding is
// handled by Root.Validate.
func Load(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	cfg, err := LoadBytes(data)
	if err != nil {
		var cerr *ConfigurationError
		if errors.As(err, &cerr) && cerr.Path == "" {
			cerr.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// LoadBytes decodes release configuration from raw YAML.
func LoadBytes(data []byte) (*Root, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg Root
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigurationError{Message: "empty configuration document"}
		}
		return nil, &ConfigurationError{Message: "failed to unmarshal YAML", Err: err}
	}
	return &cfg, nil
}
