// Package config loads the familymap configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/familymap/config.toml
// (falling back to ~/.config/familymap/config.toml). A missing file means
// defaults. A few FAMILYMAP_* environment variables override file values.
package config

import (
	"bytes"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/familymap/pkg/cache"
	"github.com/matzehuels/familymap/pkg/editor"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/layout"
)

const (
	// AppDir is the directory under the user config root.
	AppDir = "familymap"
	// FileName is the config file name.
	FileName = "config.toml"
)

// Environment variables that override the file.
const (
	EnvPolicy       = "FAMILYMAP_POLICY"
	EnvSolver       = "FAMILYMAP_SOLVER"
	EnvCache        = "FAMILYMAP_CACHE"
	EnvRedisURL     = "FAMILYMAP_REDIS_URL"
	EnvAddr         = "FAMILYMAP_ADDR"
	EnvHistoryLimit = "FAMILYMAP_HISTORY_LIMIT"
	EnvNamespace    = "FAMILYMAP_CACHE_NAMESPACE"
)

// Config is the complete configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Editor EditorConfig `toml:"editor"`
}

// LayoutConfig selects the span policy and rank solver.
type LayoutConfig struct {
	Policy string `toml:"policy"`
	Solver string `toml:"solver"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`

	// Namespace scopes cache keys so several users can share one backend.
	Namespace string `toml:"namespace"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// EditorConfig configures the terminal editor.
type EditorConfig struct {
	HistoryLimit int `toml:"history_limit"`
}

// Duration is a time.Duration written as a string such as "24h".
type Duration struct{ time.Duration }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Policy: string(layout.PolicyFriendly),
			Solver: layout.DefaultSolver,
		},
		Cache: CacheConfig{
			Backend:  string(cache.BackendFile),
			RedisURL: "redis://localhost:6379",
			TTL:      Duration{24 * time.Hour},
		},
		Server: ServerConfig{Addr: ":8080"},
		Editor: EditorConfig{HistoryLimit: editor.DefaultHistoryLimit},
	}
}

// Dir returns the familymap config directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDir), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path uses Path(); a missing file is not an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %s", path, undecoded[0])
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvPolicy); v != "" {
		c.Layout.Policy = v
	}
	if v := os.Getenv(EnvSolver); v != "" {
		c.Layout.Solver = v
	}
	if v := os.Getenv(EnvCache); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvNamespace); v != "" {
		c.Cache.Namespace = v
	}
	if v := os.Getenv(EnvHistoryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s=%q", EnvHistoryLimit, v)
		}
		c.Editor.HistoryLimit = n
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := layout.ParsePolicy(c.Layout.Policy); err != nil {
		return err
	}
	if c.Layout.Solver != "" && !slices.Contains(layout.SolverNames, c.Layout.Solver) {
		return errors.New(errors.ErrCodeInvalidInput, "layout.solver %q is not one of %v", c.Layout.Solver, layout.SolverNames)
	}
	if b := cache.Backend(c.Cache.Backend); b != "" && !b.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend %q is not one of none, file, redis", c.Cache.Backend)
	}
	if c.Cache.Backend == string(cache.BackendRedis) {
		if err := errors.ValidateRedisURL(c.Cache.RedisURL); err != nil {
			return err
		}
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "server.addr is required")
	}
	if c.Editor.HistoryLimit < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "editor.history_limit must not be negative")
	}
	return nil
}

// Policy returns the parsed layout policy. Call after Validate.
func (c *Config) Policy() layout.Policy {
	p, _ := layout.ParsePolicy(c.Layout.Policy)
	return p
}

// CacheOptions converts the cache section for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:  cache.Backend(c.Cache.Backend),
		Dir:      c.Cache.Dir,
		RedisURL: c.Cache.RedisURL,
		Prefix:   "familymap:",
	}
}

// Keyer returns the cache keyer for the configured namespace.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.Namespace == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.Namespace+":")
}

// Encode returns c as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write saves c to path, creating parent directories.
func (c *Config) Write(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
