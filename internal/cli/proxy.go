package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hardcoverapp/hardcover-explorer/internal/config"
	"github.com/hardcoverapp/hardcover-explorer/internal/proxy"
)

// NewProxyCommand creates the proxy command.
func NewProxyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Serve a local CORS proxy for the GraphQL API",
		Long: `Serve POST ` + proxy.Path + ` on the proxy address and forward each request,
with its Authorization header, to the configured endpoint. Responses carry
permissive CORS headers so browser tools on any origin can use it.`,
		Example: `  hardcover proxy --addr 127.0.0.1:8787`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := proxy.New(proxy.Config{
				Addr:     cfg.Proxy.Addr,
				Upstream: cfg.Endpoint,
				Logger:   getLogger(cmd),
			})
			return s.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default "+config.DefaultProxyAddr+")")
	return cmd
}
