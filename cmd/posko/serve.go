package main

import (
	"fmt"
	"path/filepath"

	"github.com/Veraticus/posko/internal/certs"
	"github.com/Veraticus/posko/internal/cli"
	"github.com/Veraticus/posko/internal/config"
	"github.com/Veraticus/posko/internal/metrics"
	"github.com/Veraticus/posko/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the unified table as a JSON API",
		Long: `Serve the merged report over HTTP.

Endpoints:
  GET  /healthz
  GET  /metrics
  GET  /api/table
  GET  /api/summary
  GET  /api/issues
  GET  /api/log
  POST /api/refresh`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate (overrides server.tls)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}

	addr := a.dash.Server.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	useTLS := a.dash.Server.TLS
	if cmd.Flags().Changed("tls") {
		useTLS, _ = cmd.Flags().GetBool("tls")
	}

	srvCfg := server.Config{
		Addr:         addr,
		ReadTimeout:  a.dash.Server.ReadTimeout,
		WriteTimeout: a.dash.Server.WriteTimeout,
	}
	if useTLS {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to get config directory: %w", err)
		}
		tlsCfg, err := certs.NewFileManager(filepath.Join(dir, "certs"), a.dash.Server.TLSHosts...).TLSConfig()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		srvCfg.TLS = tlsCfg
	}

	ctx, stop := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Shutting down server...").HandleInterrupts(cmd.Context())
	defer stop()

	recorder := metrics.NewRecorder()
	srv := server.New(a.memo(recorder), recorder.Handler(), srvCfg, a.logger)

	return srv.ListenAndServe(ctx)
}
