// Package config loads replay settings from a YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, ALLOCSIM_*
// environment variables, then command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/blockalloc/heap/printer"
	"github.com/joshuapare/blockalloc/internal/txlog"
)

const (
	envVarPrefix = "ALLOCSIM"

	// DefaultTotalMemory is used when the configured memory is not positive.
	DefaultTotalMemory = 100

	// DefaultCompactEvery is used when the configured period is not positive.
	DefaultCompactEvery = 100
)

// Config holds the settings for one replay.
type Config struct {
	TotalMemory  Units  `yaml:"totalMemory"  envconfig:"MEMORY"`
	CompactEvery int    `yaml:"compactEvery" envconfig:"COMPACT_EVERY"`
	Encoding     string `yaml:"encoding"     envconfig:"ENCODING"`
	Format       string `yaml:"format"       envconfig:"FORMAT"`
	Strict       bool   `yaml:"strict"       envconfig:"STRICT"`
	LogFile      string `yaml:"logFile"      envconfig:"LOG_FILE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TotalMemory:  DefaultTotalMemory,
		CompactEvery: DefaultCompactEvery,
		Encoding:     txlog.EncodingUTF8,
		Format:       string(printer.FormatText),
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path falls back to $ALLOCSIM_CONFIG_FILE; a file
// named that way may be absent. A path given explicitly must exist.
func Load(path string) (*Config, error) {
	c := Default()

	optional := false
	if path == "" {
		path = os.Getenv(envVarPrefix + "_CONFIG_FILE")
		optional = true
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeYAML(data, &c); err != nil {
				return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
			}
		case optional && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func decodeYAML(data []byte, c *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports settings that cannot be used at all.
func (c *Config) Validate() error {
	if !txlog.ValidEncoding(c.Encoding) {
		return fmt.Errorf("invalid configuration: encoding %q (%s_ENCODING)", c.Encoding, envVarPrefix)
	}
	if _, err := printer.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid configuration: %w (%s_FORMAT)", err, envVarPrefix)
	}
	return nil
}

// Normalize replaces non-positive memory and compaction period with their
// defaults and returns a warning for each replacement.
func (c *Config) Normalize() []string {
	var warnings []string
	if c.TotalMemory < 1 {
		warnings = append(warnings, fmt.Sprintf(
			"total memory should be a natural number, got %d; using default %d",
			c.TotalMemory, DefaultTotalMemory))
		c.TotalMemory = DefaultTotalMemory
	}
	if c.CompactEvery < 1 {
		warnings = append(warnings, fmt.Sprintf(
			"compaction period should be a natural number, got %d; using default %d",
			c.CompactEvery, DefaultCompactEvery))
		c.CompactEvery = DefaultCompactEvery
	}
	return warnings
}
