package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kalambet/firmkit/internal/config"
	"github.com/kalambet/firmkit/internal/tools"
	"github.com/kalambet/firmkit/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over MCP (stdio or streamable HTTP)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("transport") {
			a.cfg.Server.Transport, _ = cmd.Flags().GetString("transport")
		}
		if cmd.Flags().Changed("port") {
			a.cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, a)
	},
}

func init() {
	serveCmd.Flags().String("transport", config.TransportStdio, "MCP transport: stdio or http")
	serveCmd.Flags().Int("port", 0, "HTTP port (http transport only)")
}

func serve(ctx context.Context, a *app) error {
	slog.Info("firmkit starting", "version", version, "transport", a.cfg.Server.Transport)

	// Jobs started over stdio are tagged with one id for the whole process.
	processSession := uuid.NewString()

	deps := tools.Deps{
		Research: a.research,
		Images:   a.images,
		Commands: a.commands,
	}

	switch a.cfg.Server.Transport {
	case config.TransportStdio:
		deps.SessionID = func(context.Context) string { return processSession }
		return transport.ServeStdio(ctx, tools.NewServer(version, deps), os.Stdin, os.Stdout)
	case config.TransportHTTP:
		deps.SessionID = tools.ClientSessionID(processSession)
		if a.cfg.Server.Token == "" {
			slog.Warn("serving MCP over HTTP without a bearer token; set FIRMKIT_SERVER_TOKEN")
		}
		addr := fmt.Sprintf("127.0.0.1:%d", a.cfg.Server.Port)
		return transport.ListenAndServeHTTP(ctx, addr, transport.NewRouter(tools.NewServer(version, deps), a.cfg.Server.Token))
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", a.cfg.Server.Transport, config.TransportStdio, config.TransportHTTP)
	}
}
