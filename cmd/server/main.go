package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-tickets/internal/app"
	"github.com/iliyamo/theater-tickets/internal/config"
	"github.com/iliyamo/theater-tickets/internal/logging"
)

func main() {
	// .env is optional; deployments set the variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.Env)

	if err := run(cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
	log.Info("server stopped")
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
