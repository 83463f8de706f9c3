package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/salchaD-27/cargo-tidy-lints/internal/cargo"
	"github.com/salchaD-27/cargo-tidy-lints/internal/catalog"
	"github.com/salchaD-27/cargo-tidy-lints/internal/manifest"
)

const envPrefix = "TIDY_LINTS_"

// Formats lists the accepted summary formats.
var Formats = []string{"auto", "text", "json", "yaml", "markdown", "gha"}

var configFiles = []string{"cargo-tidy-lints.yaml", ".cargo-tidy-lints.yaml"}

type Config struct {
	Channel    string        `koanf:"channel"`
	CatalogURL string        `koanf:"catalog_url"`
	Timeout    time.Duration `koanf:"timeout"`
	Tool       string        `koanf:"tool"`
	Docs       bool          `koanf:"docs"`
	Since      string        `koanf:"since"`
	OutputDir  string        `koanf:"output_dir"`
	Format     string        `koanf:"format"`
	Cargo      string        `koanf:"cargo"`
	Verbose    bool          `koanf:"verbose"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"channel":    catalog.DefaultChannel,
		"timeout":    catalog.DefaultTimeout.String(),
		"tool":       manifest.DefaultTool,
		"docs":       false,
		"output_dir": cargo.DefaultOutputDir,
		"format":     "auto",
		"verbose":    false,
	}
}

// Load layers defaults, the config file, TIDY_LINTS_* env vars and
// explicitly set flags, in increasing priority.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks values the flags cannot constrain on their own.
func (c *Config) Validate() error {
	valid := false
	for _, f := range Formats {
		if strings.EqualFold(c.Format, f) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid format %q (use: %s)", c.Format, strings.Join(Formats, "|"))
	}
	if c.Tool == "" {
		return fmt.Errorf("tool is required")
	}
	if c.Channel == "" && c.CatalogURL == "" {
		return fmt.Errorf("channel or catalog_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Since != "" && !catalog.ValidVersion(c.Since) {
		return fmt.Errorf("invalid since version %q", c.Since)
	}
	return nil
}
