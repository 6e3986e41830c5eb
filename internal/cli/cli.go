package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cursor2d/cursor2d/internal/config"
	"github.com/cursor2d/cursor2d/pkg/buildinfo"
	"github.com/cursor2d/cursor2d/pkg/cache"
	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/jobs"
	"github.com/cursor2d/cursor2d/pkg/pipeline"
	"github.com/cursor2d/cursor2d/pkg/render"
	"github.com/cursor2d/cursor2d/pkg/sketch"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "cursor2d"

	// defaultConcurrency bounds parallel engine runs in the render command.
	defaultConcurrency = 2
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "cursor2d repairs and renders generated animation scripts",
		Long: `cursor2d takes animation scripts written by a language model, repairs the
mistakes such scripts commonly contain, rejects what cannot be repaired, and
renders the rest to a video (manim) or a browser page (p5).`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: ./"+config.FileName+" if present)")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.sanitizeCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.jobsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.ConfigPath)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with both engines, the configured
// cache and the configured job store.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	scene, err := render.New(cfg.RenderOptions(), c.Logger)
	if err != nil {
		return nil, err
	}
	if err := scene.Check(); err != nil {
		c.Logger.Warn("scene engine unavailable", "err", err)
	}
	pub, err := sketch.New(cfg.SketchOptions(), c.Logger)
	if err != nil {
		return nil, err
	}

	store, err := newJobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}
	runner := pipeline.NewRunner(c.newCache(ctx, cfg, noCache), keyer, c.Logger)
	runner.Jobs = store
	runner.Engines[target.Manim] = pipeline.SceneEngine{Orchestrator: scene}
	runner.Engines[target.P5] = pipeline.SketchEngine{Publisher: pub}
	return runner, nil
}

// newCache returns the configured cache. An unreachable backend disables
// caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			c.Logger.Warn("render cache disabled", "backend", "redis", "err", err)
			return cache.NewNullCache()
		}
		return rc
	case config.CacheFile:
		dir, err := fileCacheDir(cfg)
		if err != nil {
			return cache.NewNullCache()
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("render cache disabled", "backend", "file", "err", err)
			return cache.NewNullCache()
		}
		return fc
	default:
		return cache.NewNullCache()
	}
}

// newJobStore returns the configured job store.
func newJobStore(ctx context.Context, cfg *config.Config) (jobs.Store, error) {
	switch cfg.Jobs.Backend {
	case config.JobsMemory:
		return jobs.NewMemoryStore(), nil
	case config.JobsSQLite:
		path := cfg.Jobs.SQLitePath
		if path == "" {
			dir, err := cacheDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "jobs.db")
		}
		return jobs.NewSQLiteStore(ctx, path)
	case config.JobsMongo:
		return jobs.NewMongoStore(ctx, jobs.MongoConfig{
			URI:      cfg.Jobs.MongoURI,
			Database: cfg.Jobs.MongoDatabase,
		})
	default:
		return jobs.NewFileStore(cfg.Jobs.Dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/cursor2d/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// fileCacheDir returns cache.dir from the config, or cacheDir.
func fileCacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// =============================================================================
// Input Helpers
// =============================================================================

// readScript reads a script from path, or from stdin when path is "" or "-".
func readScript(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read script")
	}
	return string(data), nil
}

// targetFor resolves the --target flag, falling back to the file extension.
func targetFor(flag, path string) (target.Target, error) {
	if flag != "" {
		return target.Parse(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs":
		return target.P5, nil
	default:
		return target.Default, nil
	}
}
