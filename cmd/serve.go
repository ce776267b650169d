package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"gfmclip/pkg/config"
	"gfmclip/pkg/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string
	return NewCommand("serve", "Serve copy, paste and convert over HTTP",
		`Starts an HTTP server exposing the copy-as-GFM engine:

  GET  /healthz
  POST /copy     {"html", "select", "target", "mode"}
  POST /paste    {"text", "caret", "formats"}
  POST /convert  {"html"}

Responses carry every clipboard representation, keyed by format.`).
		WithExample(`  gfmclip serve --addr 127.0.0.1:9000
  curl -s localhost:8765/convert -d '{"html":"<h1>Hi</h1>"}'`).
		WithMaxArgs(0).
		WithFlags(func(c *cobra.Command) {
			c.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, "+config.DefaultServeAddr+")")
		}).
		WithConfig(func(cmd *cobra.Command, cfg *config.Config, args []string) error {
			if addr == "" {
				addr = cfg.Serve.Addr
			}
			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		}).
		Build()
}
