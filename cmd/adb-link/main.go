package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/TinkerUp/adb-link/internal/config"
	"github.com/TinkerUp/adb-link/internal/identity"
	"github.com/TinkerUp/adb-link/internal/logging"
	"github.com/TinkerUp/adb-link/internal/wired"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.0.0-dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", "", "path to a TOML config file")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	logger := logging.New("adb-link", cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := wired.New(ctx, wired.Options{
		Layout:  cfg.Layout,
		ADBPath: cfg.ADBPath,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	poller := &wired.Poller{
		Conn: conn,
		Request: wired.SetupRequest{
			ControlPort: cfg.ControlPort,
			StreamPort:  cfg.StreamPort,
			Flavor:      cfg.Flavor,
			Stable:      identity.IsStable(version),
			Autolaunch:  cfg.Autolaunch,
			AutoInstall: cfg.AutoInstall,
		},
		Interval: cfg.PollInterval.Duration,
		Logger:   logger,
	}

	logger.Info().Str("version", version).Msg("polling for wired devices")
	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
