package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cursor2d/cursor2d/internal/server"
	"github.com/cursor2d/cursor2d/pkg/buildinfo"
)

// serveCommand creates the command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		port    int
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The server accepts scripts on POST /api/render, serves rendered videos under
/videos/ and sketch pages under /p5/, and keeps a job record per request
under /api/jobs/{id}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				// A base URL derived from the old port follows the new one.
				if cfg.Server.BaseURL == fmt.Sprintf("http://localhost:%d", cfg.Server.Port) {
					cfg.Server.BaseURL = ""
				}
				cfg.Server.Port = port
			}
			if baseURL != "" {
				cfg.Server.BaseURL = baseURL
			}
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			ro := cfg.RenderOptions()
			ro.SetDefaults()
			srv := server.New(server.Options{
				Addr:            cfg.Addr(),
				Env:             cfg.Env,
				Version:         buildinfo.Version,
				MediaDir:        ro.MediaDir(),
				SketchDir:       cfg.Sketch.Dir,
				ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
			}, runner, nil, c.Logger)

			printSuccess("Serving on port %d", cfg.Server.Port)
			printDetail("API URL: %s", cfg.Server.BaseURL)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config and PORT)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL for output links")

	return cmd
}
