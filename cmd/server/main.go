package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vehicledetect/internal/app"
	"vehicledetect/internal/config"
	"vehicledetect/internal/logger"
)

func main() {
	cfg := config.Load()
	appLogger := logger.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		appLogger.Error("Error during shutdown: %v", err)
	}
	appLogger.Info("🛑 Server stopped")
	appLogger.Close()

	if runErr != nil {
		log.Fatalf("Failed to start server: %v", runErr)
	}
}
