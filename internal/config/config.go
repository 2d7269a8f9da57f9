// Package config holds the runtime configuration read from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// LibraryPathEnv lists extra native library directories, separated by the
// platform path list separator.
const LibraryPathEnv = "GLANG_LIBRARY_PATH"

const DefaultModule = "<main>"

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	Module       string   `toml:"module"`
	LibraryPaths []string `toml:"library_paths"`
	AllowNative  bool     `toml:"allow_native"`

	Log LogConfig `toml:"log"`
	SQL SQLConfig `toml:"sql"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error, none
	Format string `toml:"format"` // text or json
	File   string `toml:"file"`   // empty means stderr
}

type SQLConfig struct {
	MaxOpenConns int `toml:"max_open_conns"` // 0 means unlimited
}

func Default() Configuration {
	return Configuration{
		Module:      DefaultModule,
		AllowNative: true,
		Log: LogConfig{
			Level:  "none",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults. In
// both cases the library path environment variable is applied last.
func Load(path string) (Configuration, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Configuration{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, key := range undecoded {
				keys[i] = key.String()
			}
			return Configuration{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
		cfg.resolvePaths(filepath.Dir(path))
	}

	cfg.LibraryPaths = append(cfg.LibraryPaths, envLibraryPaths()...)

	if err := cfg.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Configuration) Validate() error {
	if c.Module == "" {
		return errors.New("module must not be empty")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error", "none":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.SQL.MaxOpenConns < 0 {
		return errors.New("sql.max_open_conns must not be negative")
	}
	return nil
}

// resolvePaths makes relative library paths relative to the config file.
func (c *Configuration) resolvePaths(base string) {
	for i, p := range c.LibraryPaths {
		if !filepath.IsAbs(p) {
			c.LibraryPaths[i] = filepath.Join(base, p)
		}
	}
}

func envLibraryPaths() []string {
	var paths []string
	for _, p := range filepath.SplitList(os.Getenv(LibraryPathEnv)) {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
