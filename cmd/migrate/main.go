package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"papertrail/internal/config"
	"papertrail/internal/repository/postgres"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("applying schema",
		"environment", cfg.Environment,
		"table_prefix", cfg.TablePrefix,
	)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.ApplySchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	logger.Info("schema applied",
		"pages_table", tables.Pages,
		"revisions_table", tables.FileRevisions,
	)
}
