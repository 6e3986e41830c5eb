package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cursor2d/cursor2d/internal/config"
	"github.com/cursor2d/cursor2d/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached render results",
		Long: `Remove all cached render results.

Rendered videos and sketch pages are left in place; only the cache entries
that map scripts to them are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			switch cfg.Cache.Backend {
			case config.CacheRedis:
				rc, err := cache.NewRedisCache(cmd.Context(), cache.RedisConfig{
					Addr:     cfg.Cache.RedisAddr,
					Password: cfg.Cache.RedisPassword,
					DB:       cfg.Cache.RedisDB,
				})
				if err != nil {
					return err
				}
				defer rc.Close()

				n, err := rc.Clear(cmd.Context(), cfg.Cache.Prefix+"render:")
				if err != nil {
					return err
				}
				printSuccess("Cleared %d cached entries", n)
				printDetail("Redis: %s", cfg.Cache.RedisAddr)

			case config.CacheFile:
				dir, err := fileCacheDir(cfg)
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fc, err := cache.NewFileCache(dir)
				if err != nil {
					return err
				}
				n, err := fc.Clear()
				if err != nil {
					return err
				}
				if n == 0 {
					printInfo("Cache is empty")
					return nil
				}
				printSuccess("Cleared %d cached entries", n)
				printDetail("Directory: %s", fc.Dir())

			default:
				printWarning("Caching is disabled (cache.backend = %q)", cfg.Cache.Backend)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case config.CacheRedis:
				fmt.Fprintln(cmd.OutOrStdout(), "redis://"+cfg.Cache.RedisAddr)
			case config.CacheFile:
				dir, err := fileCacheDir(cfg)
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			default:
				return fmt.Errorf("caching is disabled (cache.backend = %q)", cfg.Cache.Backend)
			}
			return nil
		},
	}
}
