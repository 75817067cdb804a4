// Package config loads the explorer configuration from defaults, an
// optional hardcover.yaml file, a .env file, HARDCOVER_ environment
// variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/hardcoverapp/hardcover-explorer/types"
)

const (
	EnvPrefix = "HARDCOVER_"

	DefaultSchemaFields = "schema-fields.json"
	DefaultShowcaseDir  = "src/content/showcase"
	DefaultDocsDir      = "src/content/docs/api/GraphQL/Schemas"
	DefaultDescriptions = "field-descriptions.json"
	DefaultPreferences  = ".hardcover-preferences.yaml"
	DefaultProxyAddr    = "127.0.0.1:8787"
	DefaultOutput       = "auto"
	DefaultEnvFile      = ".env"
)

// ConfigFiles are searched in the working directory, in order.
var ConfigFiles = []string{"hardcover.yaml", "hardcover.yml"}

// ProxyConfig configures the local CORS proxy.
type ProxyConfig struct {
	Addr string `koanf:"addr"`
}

// Config holds all CLI configuration options.
type Config struct {
	Endpoint         string      `koanf:"endpoint"`
	Token            string      `koanf:"token"`
	SchemaFields     string      `koanf:"schema_fields"`
	MaxDepth         int         `koanf:"max_depth"`
	DefaultLimit     int         `koanf:"default_limit"`
	ExcludedPatterns []string    `koanf:"excluded_patterns"`
	ShowcaseDir      string      `koanf:"showcase_dir"`
	DocsDir          string      `koanf:"docs_dir"`
	Descriptions     string      `koanf:"descriptions"`
	Preferences      string      `koanf:"preferences"`
	GitHubToken      string      `koanf:"github_token"`
	Proxy            ProxyConfig `koanf:"proxy"`
	Verbose          bool        `koanf:"verbose"`
	Output           string      `koanf:"output"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Defaults returns the built-in values as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"endpoint":          types.DefaultEndpoint,
		"schema_fields":     DefaultSchemaFields,
		"max_depth":         types.DefaultMaxDepth,
		"default_limit":     types.DefaultLimit,
		"excluded_patterns": types.ExcludedFieldPatterns,
		"showcase_dir":      DefaultShowcaseDir,
		"docs_dir":          DefaultDocsDir,
		"descriptions":      DefaultDescriptions,
		"preferences":       DefaultPreferences,
		"proxy.addr":        DefaultProxyAddr,
		"verbose":           false,
		"output":            DefaultOutput,
	}
}

// findConfigFile returns explicit, or the first of ConfigFiles present in
// the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey maps HARDCOVER_PROXY_ADDR to proxy.addr and HARDCOVER_MAX_DEPTH to
// max_depth.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "proxy_"); ok {
		return "proxy." + rest
	}
	return key
}

// flagKey maps a flag name to its config key. Flags without a config key
// map to "".
func flagKey(name string) string {
	switch name {
	case "config", "env-file":
		return ""
	case "proxy-addr", "addr":
		return "proxy.addr"
	case "schema":
		return "schema_fields"
	}
	return strings.ReplaceAll(name, "-", "_")
}

// dotenv reads path and returns the HARDCOVER_ and GITHUB_TOKEN entries as
// config keys. A missing file is not an error. The process environment is
// left untouched.
func dotenv(path string) (map[string]any, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for k, v := range vars {
		switch {
		case k == "GITHUB_TOKEN":
			out["github_token"] = v
		case strings.HasPrefix(k, EnvPrefix):
			out[envKey(k)] = v
		}
	}
	return out, nil
}

// Load loads configuration with the precedence (highest to lowest):
// changed flags > environment > .env file > config file > defaults.
// cfgFile may be empty to search the working directory; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. .env file
	envFile := DefaultEnvFile
	if flags != nil {
		if v, err := flags.GetString("env-file"); err == nil && v != "" {
			envFile = v
		}
	}
	vars, err := dotenv(envFile)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", envFile, err)
	}
	if len(vars) > 0 {
		if err := k.Load(confmap.Provider(vars, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	// 4. Environment: GITHUB_TOKEN, then HARDCOVER_*
	if err := k.Load(env.Provider("GITHUB_TOKEN", ".", func(string) string {
		return "github_token"
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := flagKey(f.Name)
			if key == "" {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	cfg.Token = strings.TrimSpace(cfg.Token)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that have no usable fallback.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("endpoint %q is not an absolute URL", c.Endpoint))
	}
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth))
	}
	if c.DefaultLimit < 0 {
		errs = append(errs, fmt.Errorf("default_limit must not be negative, got %d", c.DefaultLimit))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
