package main

import (
	"fmt"
	"os"

	"voice-timelog-go/internal/app"
	"voice-timelog-go/internal/cli"
	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Warn("configuration incomplete; run `voicelog doctor`")
	}

	application, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	deps := &cli.Dependencies{
		App:    application,
		Config: cfg,
	}
	return cli.NewRootCmd(deps).Execute()
}
