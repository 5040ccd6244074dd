package main

import (
	"context"
	"log"

	"nexus-chat-be/internal/bootstrap"
	"nexus-chat-be/internal/config"
	"nexus-chat-be/internal/server"
	"nexus-chat-be/internal/tracer"
	"nexus-chat-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Load persisted sessions before accepting traffic
	if err := container.ConsumerService.Rehydrate(context.Background()); err != nil {
		log.Panicf("Unable to rehydrate session store: %v", err)
	}

	// 5. Start the write-behind consumer
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 6. Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
