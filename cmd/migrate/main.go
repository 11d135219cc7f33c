package main

// Run database migrations:
//   go run ./cmd/migrate            # apply pending migrations
//   go run ./cmd/migrate -down      # roll back the latest migration
//   go run ./cmd/migrate -status    # print migration status

import (
	"context"
	"flag"
	"os"

	"discovery-backend/internal/shared/config"
	"discovery-backend/internal/shared/storage/db"
	"discovery-backend/internal/shared/telemetry"
)

func main() {
	down := flag.Bool("down", false, "roll back the latest migration")
	status := flag.Bool("status", false, "print migration status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.load", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.Init(cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	opts := db.DefaultMigrateOptions().Merge(db.Options{PingTimeout: cfg.DB.PingTimeout})
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch {
	case *status:
		err = db.MigrationStatus(ctx, sqlDB)
	case *down:
		err = db.RollbackMigration(ctx, sqlDB)
	default:
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		sqlDB.Close()
		os.Exit(1)
	}
	telemetry.Info("migrate.done", nil)
}
