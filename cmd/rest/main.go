package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ai-memchat-be/internal/bootstrap"
	"ai-memchat-be/internal/config"
	"ai-memchat-be/internal/server"
	"ai-memchat-be/internal/tracer"
	"ai-memchat-be/pkg/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	// Background so the indexer keeps consuming while in-flight handlers drain
	container, err := bootstrap.NewContainer(context.Background(), gormDB, cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to build container: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
