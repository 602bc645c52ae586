package main

// Manage database migrations:
//   go run ./cmd/migrate          # apply pending migrations
//   go run ./cmd/migrate status   # list applied/pending migrations
//   go run ./cmd/migrate down     # revert the latest migration

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	"speedr-backend/internal/shared/config"
	"speedr-backend/internal/shared/storage/db"
)

var commands = map[string]func(context.Context, *sql.DB) error{
	"up":     db.RunMigrations,
	"down":   db.RollbackMigration,
	"status": db.MigrationStatus,
}

func main() {
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	run, ok := commands[command]
	if !ok {
		log.Printf("unknown migrate command %q (want up, down or status)", command)
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}

	if err := run(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		log.Printf("migrate %s failed: %v", command, err)
		os.Exit(1)
	}
	_ = sqlDB.Close()
	log.Printf("migrate %s done", command)
}
