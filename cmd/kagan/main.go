package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/kagan/internal/kagan/app"
	"github.com/aussiebroadwan/kagan/internal/kagan/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg, app.StdIO())
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	err = application.Run(ctx, os.Args[1:])
	_ = application.Close()

	switch {
	case err == nil:
	case errors.Is(err, cli.ErrUsage):
		if err != cli.ErrUsage {
			log.Printf("kagan: %v", err)
		}
		stop()
		os.Exit(2)
	default:
		stop()
		log.Fatalf("kagan: %v", err)
	}
}
