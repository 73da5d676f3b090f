package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphlayout/internal/server"
	"github.com/matzehuels/graphlayout/pkg/config"
)

// serveCommand creates the serve command for running the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout service",
		Long: `Run the HTTP layout service.

Routes:
  GET  /healthz          liveness probe
  GET  /v1/algorithms    registered algorithms
  POST /v1/layout        lay out a graph document

The service stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") || cfg.Server.Addr == "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg.Server.Addr, cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe serves layout requests until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, addr string, cfg *config.Config, noCache bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	printInfo("Serving on %s", addr)
	return server.New(runner, c.Logger).ListenAndServe(ctx, addr)
}
