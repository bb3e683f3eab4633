package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/kalambet/firmkit/internal/command"
	"github.com/kalambet/firmkit/internal/config"
	"github.com/kalambet/firmkit/internal/credentials"
	"github.com/kalambet/firmkit/internal/firmware"
	"github.com/kalambet/firmkit/internal/imagery"
	"github.com/kalambet/firmkit/internal/quota"
)

// app holds the clients built from configuration.
type app struct {
	cfg      config.Config
	research *firmware.Client
	images   *imagery.Client
	commands *command.Interceptor
}

// loadApp is replaced in tests.
var loadApp = func() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log.Level)
	return newApp(cfg, time.Now), nil
}

func newApp(cfg config.Config, now func() time.Time) *app {
	research := firmware.NewClient(
		credentials.NewStore(cfg.Firmware.AuthFile),
		firmware.WithBaseURL(cfg.Firmware.BaseURL),
		firmware.WithTimeout(cfg.Firmware.TimeoutDuration()),
		firmware.WithProvider(cfg.Firmware.Provider),
	)

	images := imagery.NewClient(cfg.Gemini.APIKey,
		imagery.WithBaseURL(cfg.Gemini.BaseURL),
		imagery.WithModel(cfg.Gemini.Model),
		imagery.WithTimeout(cfg.Gemini.TimeoutDuration()),
	)

	commands := command.NewInterceptor()
	commands.Handle(command.QuotaCommandName, &command.QuotaCommand{
		Fetcher: research,
		Renderer: quota.NewRenderer(
			quota.WithWidth(cfg.Quota.Width),
			quota.WithWindow(cfg.Quota.WindowDuration()),
			quota.WithLocation(cfg.Quota.Location()),
		),
		Now: now,
	})

	return &app{cfg: cfg, research: research, images: images, commands: commands}
}

// setupLogging installs a text handler on stderr. stdout carries the MCP
// stdio stream.
func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
