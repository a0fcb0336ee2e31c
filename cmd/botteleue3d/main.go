package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/internal/app"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/banner"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/config"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
)

// version is set via ldflags during release builds.
var version = "dev"

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseConfigFlags()
	eff, err := config.LoadEffective(flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithLevel(eff.Config.Logging.Level)

	a, err := app.New(eff, version)
	if err != nil {
		logger.Error("startup_failed", "error", err)
		os.Exit(1)
	}

	keys, loadedAt := a.Keys()
	banner.Print(eff, version, keys, loadedAt)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("run_failed", "error", err)
		os.Exit(1)
	}
}
