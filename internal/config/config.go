// Package config loads cursor2d settings from a TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables, command-line flags (applied by the caller).
//
//	[server]
//	port = 3000
//	base_url = "https://animations.example.com"
//
//	[engine]
//	binary = "python3"
//	args = ["-m", "manim", "-qm"]
//	timeout = "5m"
//	extra_path = ["/Library/TeX/texbin"]
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[jobs]
//	backend = "sqlite"   # or memory, file, mongo
//	sqlite_path = "/var/lib/cursor2d/jobs.db"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/render"
	"github.com/cursor2d/cursor2d/pkg/sketch"
)

// FileName is the config file looked up in the working directory when no
// path is given.
const FileName = "cursor2d.toml"

// Backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"

	JobsMemory = "memory"
	JobsFile   = "file"
	JobsMongo  = "mongo"
	JobsSQLite = "sqlite"
)

// Duration is a time.Duration read from strings such as "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the complete cursor2d configuration.
type Config struct {
	Env    string       `toml:"env"`
	Server ServerConfig `toml:"server"`
	Engine EngineConfig `toml:"engine"`
	Sketch SketchConfig `toml:"sketch"`
	Cache  CacheConfig  `toml:"cache"`
	Jobs   JobsConfig   `toml:"jobs"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port            int      `toml:"port"`
	BaseURL         string   `toml:"base_url"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// EngineConfig configures the scene engine subprocess.
type EngineConfig struct {
	Binary      string   `toml:"binary"`
	Args        []string `toml:"args"`
	Scene       string   `toml:"scene"`
	RootDir     string   `toml:"root_dir"`
	WorkDir     string   `toml:"work_dir"`
	ExtraPath   []string `toml:"extra_path"`
	Timeout     Duration `toml:"timeout"`
	KeepScripts bool     `toml:"keep_scripts"`
}

// SketchConfig configures sketch publishing.
type SketchConfig struct {
	Dir        string `toml:"dir"`
	RuntimeURL string `toml:"runtime_url"`
}

// CacheConfig selects and configures the render cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// JobsConfig selects and configures the job record store.
type JobsConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	SQLitePath    string `toml:"sqlite_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Port:            3000,
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Engine: EngineConfig{
			Binary:  render.DefaultBinary,
			Args:    append([]string(nil), render.DefaultArgs...),
			Scene:   render.DefaultScene,
			RootDir: ".",

			ExtraPath: append([]string(nil), render.DefaultExtraPath...),
		},
		Sketch: SketchConfig{
			RuntimeURL: sketch.DefaultRuntimeURL,
		},
		Cache: CacheConfig{Backend: CacheFile},
		Jobs:  JobsConfig{Backend: JobsFile},
	}
}

// Load reads path (or ./cursor2d.toml when path is empty and the file
// exists) over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(FileName); err == nil {
			path = FileName
		}
	}
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("APP_ENV"); ok && v != "" {
		c.Env = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "PORT=%q", v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("BASE_URL"); ok && v != "" {
		c.Server.BaseURL = v
	}
	if v, ok := lookup("CURSOR2D_ENGINE_BINARY"); ok && v != "" {
		c.Engine.Binary = v
	}
	if v, ok := lookup("CURSOR2D_REDIS_ADDR"); ok && v != "" {
		c.Cache.Backend = CacheRedis
		c.Cache.RedisAddr = v
	}
	if v, ok := lookup("CURSOR2D_MONGO_URI"); ok && v != "" {
		c.Jobs.Backend = JobsMongo
		c.Jobs.MongoURI = v
	}
	return nil
}

// SetDefaults fills fields derived from other fields.
func (c *Config) SetDefaults() {
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Engine.RootDir == "" {
		c.Engine.RootDir = "."
	}
	if c.Engine.WorkDir == "" {
		c.Engine.WorkDir = filepath.Join(c.Engine.RootDir, "temp")
	}
	if c.Sketch.Dir == "" {
		c.Sketch.Dir = c.Engine.WorkDir
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.port %d out of range", c.Server.Port)
	}
	if err := errors.ValidateBaseURL(c.Server.BaseURL); err != nil {
		return err
	}
	if c.Engine.Binary == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.binary cannot be empty")
	}
	if c.Engine.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.timeout cannot be negative")
	}

	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q (must be one of: none, file, redis)", c.Cache.Backend)
	}

	switch c.Jobs.Backend {
	case JobsMemory, JobsFile, JobsSQLite:
	case JobsMongo:
		if c.Jobs.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "jobs.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "jobs.backend %q (must be one of: memory, file, sqlite, mongo)", c.Jobs.Backend)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// RenderOptions returns the scene engine options.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Binary:      c.Engine.Binary,
		Args:        c.Engine.Args,
		Scene:       c.Engine.Scene,
		RootDir:     c.Engine.RootDir,
		WorkDir:     c.Engine.WorkDir,
		ExtraPath:   c.Engine.ExtraPath,
		BaseURL:     c.Server.BaseURL,
		Timeout:     c.Engine.Timeout.Duration,
		KeepScripts: c.Engine.KeepScripts,
	}
}

// SketchOptions returns the sketch publisher options.
func (c *Config) SketchOptions() sketch.Options {
	return sketch.Options{
		Dir:        c.Sketch.Dir,
		BaseURL:    c.Server.BaseURL,
		RuntimeURL: c.Sketch.RuntimeURL,
	}
}
