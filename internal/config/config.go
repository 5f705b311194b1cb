// Package config loads dumpsplit settings.
//
// Values are layered, lowest to highest precedence: built-in defaults, a YAML
// config file, DUMPSPLIT_* environment variables, then flags explicitly set
// on the command line. The merged result is checked against an embedded CUE
// schema before use.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

//go:embed schema.cue
var schemaSource string

// DefaultFile is looked up in the working directory when no --config is
// given.
const DefaultFile = "dumpsplit.yaml"

// EnvPrefix prefixes environment overrides, e.g. DUMPSPLIT_ROOT.
const EnvPrefix = "DUMPSPLIT_"

// Defaults.
const (
	DefaultRoot           = "."
	DefaultCompress       = "none"
	DefaultDatabase       = "default"
	DefaultLogFormat      = "text"
	DefaultMaxDiagnostics = 10000
)

// Config holds all settings for a split run.
type Config struct {
	Root            string `koanf:"root" json:"root"`
	Compress        string `koanf:"compress" json:"compress"`
	Level           int    `koanf:"level" json:"level"`
	Encoding        string `koanf:"encoding" json:"encoding"`
	DefaultDatabase string `koanf:"default_database" json:"default_database"`
	Manifest        string `koanf:"manifest" json:"manifest"`
	LogFormat       string `koanf:"log_format" json:"log_format"`
	Verbose         bool   `koanf:"verbose" json:"verbose"`
	Strict          bool   `koanf:"strict" json:"strict"`
	MaxDiagnostics  int    `koanf:"max_diagnostics" json:"max_diagnostics"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"root":             DefaultRoot,
		"compress":         DefaultCompress,
		"level":            0,
		"encoding":         "",
		"default_database": DefaultDatabase,
		"manifest":         "",
		"log_format":       DefaultLogFormat,
		"verbose":          false,
		"strict":           false,
		"max_diagnostics":  DefaultMaxDiagnostics,
	}
}

// Load merges defaults, the config file, environment and flags.
//
// cfgFile may be empty, in which case DefaultFile is used if it exists.
// flags may be nil; only flags marked as changed override other layers.
// Flag names are kebab-case versions of the config keys.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// DUMPSPLIT_DEFAULT_DATABASE -> default_database
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
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
	cfg.Compress = strings.ToLower(strings.TrimSpace(cfg.Compress))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the explicit path, or DefaultFile when present.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// ValidationError reports a configuration that violates the schema.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + e.Details
}

// Validate checks cfg against the embedded CUE schema.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: strings.TrimSpace(cueerrors.Details(err, nil))}
	}
	return nil
}
