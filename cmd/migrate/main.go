package main

import (
	"context"
	"log"

	"lamdam-be/internal/config"
	"lamdam-be/internal/model"
	"lamdam-be/internal/registry"
	"lamdam-be/internal/repository/implementation"
	"lamdam-be/pkg/database"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 4. AutoMigrate the static tables. Record tables are created per
	// collection by the store registry.
	log.Println("Step 2: Running AutoMigrate for static tables...")
	if err := db.AutoMigrate(&model.User{}, &model.Collection{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: make sure every registered collection has its table
	// and indexes.
	log.Println("Step 3: Ensuring collection stores...")
	ctx := context.Background()
	stores := registry.NewStoreRegistry(db, implementation.NewCollectionRepository(db))
	names, err := stores.Names(ctx)
	if err != nil {
		log.Fatalf("Error: Failed to list collections: %v", err)
	}
	for _, name := range names {
		if err := stores.Ensure(ctx, name); err != nil {
			log.Fatalf("Error: Failed to ensure store %s: %v", name, err)
		}
		log.Printf("  - %s", name)
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
