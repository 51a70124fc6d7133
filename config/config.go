// Package config loads the settings of a becs registry from TOML or YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the root of a configuration file.
type Config struct {
	Registry RegistryConfig `toml:"registry" yaml:"registry"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
}

// RegistryConfig sizes the storages of a registry.
type RegistryConfig struct {
	SparsePageSize  int `toml:"sparse_page_size" yaml:"sparse_page_size"` // slots per sparse page, power of two
	PackedPageSize  int `toml:"packed_page_size" yaml:"packed_page_size"` // values per payload page, power of two
	InitialCapacity int `toml:"initial_capacity" yaml:"initial_capacity"` // entities reserved up front
	MaxEntities     int `toml:"max_entities" yaml:"max_entities"`         // 0 = unlimited
	// PageSizes overrides the payload page size per component type name, as
	// reported by TypeInfo.Name. 0 drops the payload and is only valid for
	// empty types; the registry panics with ErrInvalidPageSize when it
	// creates the storage of a type with state sized 0.
	PageSizes map[string]int `toml:"page_sizes" yaml:"page_sizes"`
}

// LoggingConfig selects the level and encoding of the registry logger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

// Format selects the decoder used by Decode.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Registry: DefaultRegistry(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultRegistry returns the registry settings used when nothing is loaded.
func DefaultRegistry() RegistryConfig {
	return RegistryConfig{
		SparsePageSize: 32,
		PackedPageSize: 1024,
	}
}

// Load reads path, picking the format from its extension. Missing keys keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("config %s: unknown extension %q", path, filepath.Ext(path))
}

// Decode reads a configuration from r on top of the defaults and validates
// it.
func Decode(r io.Reader, format Format) (*Config, error) {
	cfg := Default()
	switch format {
	case TOML:
		if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
			return nil, err
		}
	case YAML:
		// an empty document leaves the defaults alone
		if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks page sizes and limits.
func (c *Config) Validate() error {
	return c.Registry.Validate()
}

// Validate checks page sizes and limits. Whether a page size of 0 suits its
// type is only known once the storage is created.
func (c RegistryConfig) Validate() error {
	if !isPowerOfTwo(c.SparsePageSize) {
		return fmt.Errorf("%w: sparse_page_size %d is not a power of two", ErrInvalid, c.SparsePageSize)
	}
	if !isPowerOfTwo(c.PackedPageSize) {
		return fmt.Errorf("%w: packed_page_size %d is not a power of two", ErrInvalid, c.PackedPageSize)
	}
	if c.InitialCapacity < 0 {
		return fmt.Errorf("%w: initial_capacity %d", ErrInvalid, c.InitialCapacity)
	}
	if c.MaxEntities < 0 {
		return fmt.Errorf("%w: max_entities %d", ErrInvalid, c.MaxEntities)
	}
	if c.MaxEntities > 0 && c.InitialCapacity > c.MaxEntities {
		return fmt.Errorf("%w: initial_capacity %d above max_entities %d", ErrInvalid, c.InitialCapacity, c.MaxEntities)
	}
	for name, n := range c.PageSizes {
		if n != 0 && !isPowerOfTwo(n) {
			return fmt.Errorf("%w: page size %d of %s is not a power of two", ErrInvalid, n, name)
		}
	}
	return nil
}

// PageSizeOf returns the payload page size configured for a type name.
func (c RegistryConfig) PageSizeOf(name string) (int, bool) {
	n, ok := c.PageSizes[name]
	return n, ok
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
