// Command web runs the push campaign analytics dashboard server.
package main

import (
	"context"
	"fmt"
	"os"

	"pushpulse/internal/app"
	"pushpulse/internal/config"
	"pushpulse/internal/infrastructure"
	"pushpulse/pkg/contracts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	logger.Info("starting " + contracts.GetVersionString())

	application := app.New(cfg, logger)
	return application.Run(context.Background())
}
