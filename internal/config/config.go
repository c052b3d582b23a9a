// Package config loads the optional YAML configuration of canconvctl.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"example.com/canconv/internal/asc"
	"example.com/canconv/internal/common"
	"example.com/canconv/internal/schema"
)

// Format selects the output layout.
type Format string

const (
	FormatASC   Format = "asc"
	FormatSavvy Format = "savvy"
)

// ParseFormat converts a flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return FormatASC, nil
	case "savvy", "savvycan", "csv":
		return FormatSavvy, nil
	default:
		return "", fmt.Errorf("unknown format %q (want asc or savvy)", s)
	}
}

// Ext returns the output file extension for f.
func (f Format) Ext() string {
	if f == FormatSavvy {
		return ".csv"
	}
	return ".asc"
}

type Config struct {
	InputDir  string              `yaml:"inputDir"`
	OutputDir string              `yaml:"outputDir"`
	Format    Format              `yaml:"format"`
	Channel   int                 `yaml:"channel"`
	ASCDate   string              `yaml:"ascDate"`
	DataBase  int                 `yaml:"dataBase"`
	Verbose   bool                `yaml:"verbose"`
	Aliases   map[string][]string `yaml:"aliases"`
	Logs      common.LogConfig    `yaml:"logs"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file. Relative directories are resolved against the
// file's directory.
func Load(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	baseDir := filepath.Dir(path)
	resolvePath := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" || filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}
	if cfg.InputDir != "" {
		cfg.InputDir = resolvePath(cfg.InputDir)
	}
	if cfg.OutputDir != "" {
		cfg.OutputDir = resolvePath(cfg.OutputDir)
	}
	if cfg.Logs.Directory != "" {
		cfg.Logs.Directory = resolvePath(cfg.Logs.Directory)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.InputDir == "" {
		c.InputDir = "."
	}
	if c.OutputDir == "" {
		c.OutputDir = "savvycan-playback"
	}
	if f, err := ParseFormat(string(c.Format)); err == nil {
		c.Format = f
	}
	if c.Channel <= 0 {
		c.Channel = asc.DefaultChannel
	}
	if strings.TrimSpace(c.ASCDate) == "" {
		c.ASCDate = asc.DefaultDate
	}
	if c.DataBase == 0 {
		c.DataBase = 10
	}
	if c.Logs.MaxSizeMB <= 0 {
		c.Logs.MaxSizeMB = 25
	}
	if c.Logs.MaxAgeDays <= 0 {
		c.Logs.MaxAgeDays = 7
	}
	if c.Logs.MaxBackups <= 0 {
		c.Logs.MaxBackups = 5
	}
}

// Validate checks values that have no sensible default.
func (c Config) Validate() error {
	if c.Format != "" {
		if _, err := ParseFormat(string(c.Format)); err != nil {
			return err
		}
	}
	if c.DataBase != 0 && c.DataBase != 10 && c.DataBase != 16 {
		return fmt.Errorf("dataBase must be 10 or 16, got %d", c.DataBase)
	}
	if _, err := c.SchemaAliases(); err != nil {
		return err
	}
	return nil
}

// SchemaAliases returns the default aliases with the configured spellings
// tried first.
func (c Config) SchemaAliases() (schema.Aliases, error) {
	extra := make(schema.Aliases, len(c.Aliases))
	for key, names := range c.Aliases {
		field, err := schema.ParseField(key)
		if err != nil {
			return nil, fmt.Errorf("aliases: %w", err)
		}
		extra[field] = names
	}
	return schema.DefaultAliases().With(extra), nil
}
