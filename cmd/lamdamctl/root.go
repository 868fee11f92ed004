package main

import (
	"fmt"

	"lamdam-be/internal/bootstrap"
	"lamdam-be/internal/config"
	"lamdam-be/pkg/database"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lamdamctl",
	Short: "lamdamctl - operator tooling for the Lamdam curation backend",
	Long:  "lamdamctl runs maintenance tasks against the Lamdam database: inactivity sweeps, count repair and reporting.",
	// Errors are printed by main in color.
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(newBlockInactiveCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCollectionsCmd())
	rootCmd.AddCommand(newRecountCmd())
}

// openContainer wires the same services the API server uses. Events published
// by commands reach the running servers through NATS when it is configured.
func openContainer() (*bootstrap.Container, func(), error) {
	cfg := config.Load()

	db, err := database.NewGormDB(database.GormConfig{DSN: cfg.Database.Connection})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	closeFn := func() {
		container.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return container, closeFn, nil
}
