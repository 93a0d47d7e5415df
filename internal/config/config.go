// Package config loads the bundlegen YAML configuration.
//
//	packages: [./internal/app]
//	activator: SimpleBundle
//	bundleImport: github.com/sghaida/bundlegen/bundle
//	maxRounds: 16
//	clean: true
//	log: {level: info, format: text}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is the configuration file looked up in the working directory.
	DefaultFile = "bundlegen.yaml"
	// DefaultActivator names the generated activator type.
	DefaultActivator = "SimpleBundle"
	// DefaultMaxRounds bounds the number of generation rounds.
	DefaultMaxRounds = 16
)

// Config is the bundlegen configuration.
type Config struct {
	Packages     []string `yaml:"packages"`
	Activator    string   `yaml:"activator"`
	BundleImport string   `yaml:"bundleImport"`
	MaxRounds    int      `yaml:"maxRounds"`
	Clean        *bool    `yaml:"clean"`
	Log          Log      `yaml:"log"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CleanEnabled reports whether previously generated files are removed first.
func (c *Config) CleanEnabled() bool {
	return c.Clean == nil || *c.Clean
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

// Load reads path. A missing file yields the defaults when optional is set.
func Load(path string, optional bool) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML document, rejecting unknown keys, then applies
// defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.Activator) == "" {
		c.Activator = DefaultActivator
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if !token.IsIdentifier(c.Activator) || !token.IsExported(c.Activator) {
		return fmt.Errorf("activator %q is not an exported Go identifier", c.Activator)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("maxRounds must be positive, got %d", c.MaxRounds)
	}
	for i, p := range c.Packages {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("packages[%d] is empty", i)
		}
	}
	if c.BundleImport != "" && strings.ContainsAny(c.BundleImport, " \t\"") {
		return fmt.Errorf("bundleImport %q is not an import path", c.BundleImport)
	}
	return nil
}
