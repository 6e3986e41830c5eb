package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cursor2d/cursor2d/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(noEnv); err != nil {
		t.Fatal(err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:3000" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Engine.WorkDir != "temp" || cfg.Sketch.Dir != "temp" {
		t.Errorf("WorkDir = %q, Sketch.Dir = %q, want temp", cfg.Engine.WorkDir, cfg.Sketch.Dir)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if diff := cmp.Diff([]string{"/Library/TeX/texbin"}, cfg.RenderOptions().ExtraPath); diff != "" {
		t.Errorf("default ExtraPath mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEmptyExtraPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[engine]\nextra_path = []\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.RenderOptions().ExtraPath; len(got) != 0 {
		t.Errorf("ExtraPath = %q, want none", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
env = "production"

[server]
port = 8080
base_url = "https://cdn.example.com"

[engine]
binary = "python3"
args = ["-m", "manim", "-ql"]
timeout = "90s"
extra_path = ["/opt/tex/bin"]

[cache]
backend = "none"

[jobs]
backend = "memory"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Env != "production" || cfg.Server.Port != 8080 {
		t.Errorf("env/port = %q/%d", cfg.Env, cfg.Server.Port)
	}
	ro := cfg.RenderOptions()
	if ro.Binary != "python3" || ro.Timeout != 90*time.Second || ro.BaseURL != "https://cdn.example.com" {
		t.Errorf("RenderOptions() = %+v", ro)
	}
	if diff := cmp.Diff([]string{"-m", "manim", "-ql"}, ro.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/opt/tex/bin"}, ro.ExtraPath); diff != "" {
		t.Errorf("ExtraPath mismatch (-want +got):\n%s", diff)
	}
	if so := cfg.SketchOptions(); so.BaseURL != "https://cdn.example.com" {
		t.Errorf("SketchOptions().BaseURL = %q", so.BaseURL)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "[server]\nprot = 1\n"},
		{"bad duration", "[engine]\ntimeout = \"soon\"\n"},
		{"bad port", "[server]\nport = 70000\n"},
		{"bad base url", "[server]\nbase_url = \"localhost\"\n"},
		{"unknown cache backend", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n"},
		{"mongo without uri", "[jobs]\nbackend = \"mongo\"\n"},
		{"malformed", "[server\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                   "4000",
		"BASE_URL":               "https://api.example.com",
		"APP_ENV":                "staging",
		"CURSOR2D_ENGINE_BINARY": "/usr/bin/python3",
		"CURSOR2D_REDIS_ADDR":    "redis:6379",
		"CURSOR2D_MONGO_URI":     "mongodb://mongo:27017",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 4000 || cfg.Server.BaseURL != "https://api.example.com" || cfg.Env != "staging" {
		t.Errorf("server = %+v, env %q", cfg.Server, cfg.Env)
	}
	if cfg.Engine.Binary != "/usr/bin/python3" {
		t.Errorf("Engine.Binary = %q", cfg.Engine.Binary)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Jobs.Backend != JobsMongo || cfg.Jobs.MongoURI != "mongodb://mongo:27017" {
		t.Errorf("jobs = %+v", cfg.Jobs)
	}

	bad := func(k string) (string, bool) {
		if k == "PORT" {
			return "three thousand", true
		}
		return "", false
	}
	if err := Default().ApplyEnv(bad); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("ApplyEnv(bad PORT) error = %v", err)
	}
}

func TestBaseURLFollowsPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 9000
	cfg.SetDefaults()
	if cfg.Server.BaseURL != "http://localhost:9000" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
}

func TestLoadSQLiteJobs(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[jobs]\nbackend = \"sqlite\"\nsqlite_path = \"/var/lib/cursor2d/jobs.db\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Jobs.Backend != JobsSQLite || cfg.Jobs.SQLitePath != "/var/lib/cursor2d/jobs.db" {
		t.Errorf("Jobs = %+v", cfg.Jobs)
	}
}
