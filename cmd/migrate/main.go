package main

import (
	"context"
	"os"
	"strconv"
	"time"

	mongoMigration "tibacare/internal/migrations/mongo"
	pgMigration "tibacare/internal/migrations/postgres"
	shadowMigrations "tibacare/internal/shadow/migrations"
	"tibacare/pkg/config"
)

const JobName = "migrate"

// Usage: migrate [mongo|postgres|all] [up|down|force <version>]
func main() {
	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	target := "all"
	if len(os.Args) >= 2 {
		target = os.Args[1]
	}

	switch target {
	case "mongo":
		migrateMongo(cfg)
	case "postgres":
		migratePostgres(cfg, os.Args[2:])
	case "all":
		migrateMongo(cfg)
		migratePostgres(cfg, nil)
	default:
		cfg.Log.Fatal("Unknown migration target", "target", target)
	}

	cfg.Log.Info("Migration completed successfully", "target", target)
}

func migrateMongo(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job")
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Mongo migration failed", "error", err)
	}
}

func migratePostgres(cfg *config.Config, args []string) {
	if cfg.DatabaseURL == "" {
		cfg.Log.Fatal("DATABASE_URL is required for Postgres migrations")
	}

	migrator, err := pgMigration.NewMigrator(cfg.DatabaseURL, shadowMigrations.FS, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Postgres migrator", "error", err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			cfg.Log.Warn("Failed to close Postgres migrator", "error", err)
		}
	}()

	command := "up"
	if len(args) >= 1 {
		command = args[0]
	}

	switch command {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "force":
		if len(args) < 2 {
			cfg.Log.Fatal("force requires a version")
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			cfg.Log.Fatal("Invalid version", "version", args[1], "error", convErr)
		}
		err = migrator.Force(version)
	default:
		cfg.Log.Fatal("Unknown Postgres migration command", "command", command)
	}
	if err != nil {
		cfg.Log.Fatal("Postgres migration failed", "command", command, "error", err)
	}
}
