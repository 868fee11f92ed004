package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"lamdam-be/internal/bootstrap"
	"lamdam-be/internal/config"
	"lamdam-be/internal/server"
	"lamdam-be/internal/tracer"
	"lamdam-be/pkg/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// 2. Initialize Database
	gormDB, err := database.NewGormDB(database.GormConfig{
		DSN:     cfg.Database.Connection,
		Verbose: cfg.App.Environment != "production",
	})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 3b. Tracing (OTEL_ENABLED=true), installed before the fiber app wires otelfiber
	shutdownTracer := tracer.InitTracer(cfg.Tracing, cfg.App.Environment, container.Logger)

	// 4. Start Background Services
	go container.WebSocketHub.Run(ctx)
	if err := container.NotificationService.Start(ctx); err != nil {
		log.Printf("Background: realtime subscriber not started: %v", err)
	}
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	go container.InactivityService.Run(ctx, cfg.Features.SweepInterval)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("Server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("Tracer shutdown error: %v", err)
	}
	container.Close()
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
