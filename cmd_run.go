package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pulselabs/pulse/internal/app"
)

const defaultConfigPath = "config.yaml"

type command int

const (
	commandBoth command = iota
	commandAPI
	commandWorker
)

func (c command) mode() app.Mode {
	switch c {
	case commandAPI:
		return app.ModeAPI
	case commandWorker:
		return app.ModeWorker
	default:
		return app.ModeBoth
	}
}

// run builds the app and blocks until a shutdown signal arrives
func run(cmd command) {
	configPath := os.Getenv("PULSE_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	a, err := app.New(app.Options{
		ConfigPath: configPath,
		Version:    version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runErr := a.Run(ctx, cmd.mode()); runErr != nil {
		log.Fatalf("Service exited with error: %v", runErr)
	}
}
