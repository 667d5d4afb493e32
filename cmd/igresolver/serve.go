package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igresolver/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resolution engine as an HTTP service",
	Long: `Run the resolution engine as an HTTP service.

Endpoints:
  POST /api/resolve          resolve a link; body {"url": "..."}
  GET  /api/proxy?url=...    stream a resolved media URL with download headers
  GET  /healthz              liveness probe

Requests are rate limited per client IP. The service shuts down
gracefully on SIGINT and SIGTERM.`,
	Example: `  igresolver serve
  igresolver serve --addr :9090`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, log, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if serveAddr != "" {
		cfg.Server.Address = serveAddr
	}
	if cfg.Instagram.SessionToken == "" {
		cfg.Instagram.SessionToken = resolveSessionToken(cfg, log)
	}

	client, engine := buildEngine(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, engine, client, engine.Cache(), log)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}
