// Package config loads shank settings from shank.yaml and SHANK_* environment
// variables. Command-line flags override both and are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/fuzzyyeti/shank/internal/compiler"
	"github.com/fuzzyyeti/shank/internal/idl"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "shank.yaml"

// Config holds all shank configuration.
type Config struct {
	// Program identity written into the IDL. An empty Program is derived
	// from the input path.
	Program string `yaml:"program" env:"SHANK_PROGRAM"`
	Version string `yaml:"version" env:"SHANK_VERSION"`
	Address string `yaml:"address" env:"SHANK_ADDRESS"`

	// Database is the extraction history; empty disables history.
	Database string `yaml:"database" env:"SHANK_DB"`
	// Output is the IDL destination; empty writes to stdout.
	Output string `yaml:"output" env:"SHANK_OUTPUT"`

	// Unparseable values are errors rather than silently false.
	StrictDiscriminants bool `yaml:"strict_discriminants" env:"SHANK_STRICT_DISCRIMINANTS,strict"`
	StrictFields        bool `yaml:"strict_fields" env:"SHANK_STRICT_FIELDS,strict"`
	SkipGateCheck       bool `yaml:"skip_gate_check" env:"SHANK_SKIP_GATE,strict"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: "0.1.0",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides sets every field whose SHANK_* variable is present.
// Having none set is not an error.
func (c *Config) applyEnvOverrides() error {
	err := envdecode.Decode(c)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to decode environment: %w", err)
	}
	return nil
}

// Validate checks the settings that are not validated elsewhere.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Version) == "" {
		return fmt.Errorf("version must not be empty")
	}
	if c.Address != "" && !isBase58Address(c.Address) {
		return fmt.Errorf("invalid program address %q: expected 32 to 44 base58 characters", c.Address)
	}
	return nil
}

// CompileOptions returns the build options selected by the config.
func (c *Config) CompileOptions() compiler.Options {
	return compiler.Options{
		SkipGateCheck:       c.SkipGateCheck,
		StrictDiscriminants: c.StrictDiscriminants,
		StrictFields:        c.StrictFields,
	}
}

// IDLProgram returns the program identity for the IDL, naming it fallback
// when Program is empty.
func (c *Config) IDLProgram(fallback string) idl.Program {
	name := c.Program
	if name == "" {
		name = fallback
	}
	return idl.Program{Name: name, Version: c.Version, Address: c.Address}
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func isBase58Address(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}
