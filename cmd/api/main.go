package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"alfredoptarigan/rag-candidates/internal/app"
	"alfredoptarigan/rag-candidates/internal/config"
	"alfredoptarigan/rag-candidates/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close() //nolint:errcheck

	worker := a.NewWorker()
	if worker != nil {
		worker.Start(ctx)
	} else {
		zl.Info("Database disabled, index builds run inline")
	}

	server := app.NewServer(a, worker)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zl.Info("Shutting down server")
		cancel()
		if worker != nil {
			worker.Stop()
		}
		if err := server.Shutdown(); err != nil {
			zl.Error("Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zl.Info("Server starting", zap.String("addr", addr))

	if err := server.Listen(addr); err != nil {
		zl.Fatal("Failed to start server", zap.Error(err))
	}
}
