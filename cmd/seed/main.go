// Package main seeds the built-in movement type registry.
// Safe to run repeatedly: seeding is idempotent.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockledger/internal/domain/movetype"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/inventory_repo"
	"stockledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)
	repo := inventory_repo.NewMovementTypeRepo(txm)

	builtin := movetype.Builtin()
	if err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.Seed(ctx, builtin)
	}); err != nil {
		log.Fatalw("failed to seed movement types", "error", err)
	}

	log.Infow("movement types seeded", "count", len(builtin))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return value
}
