// Package main reconciles stock positions against the transaction ledger and
// reports any position whose qty_on_hand drifted from the signed ledger sum.
// Exit code 1 when drift is found, so it can gate a cron alert.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockledger/internal/domain/movetype"
	"stockledger/internal/domain/positions"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/inventory_repo"
	"stockledger/internal/infrastructure/storage/postgres/report_repo"
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	positionRepo := inventory_repo.NewPositionRepo(txm)
	ledgerRepo := inventory_repo.NewLedgerRepo(txm)
	movementTypeRepo := inventory_repo.NewMovementTypeRepo(txm)
	reportRepo := report_repo.NewReportRepo(txm)

	registry, err := movetype.NewRegistry(ctx, movementTypeRepo)
	if err != nil {
		log.Fatalw("failed to load movement types", "error", err)
	}
	log.Infow("movement types loaded", "count", len(registry.ListActive()))

	auditSvc, err := postgres.NewAuditService(txm)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	reportSvc := reports.NewService(reportRepo, positionRepo, ledgerRepo)

	var drifted []reports.ConsistencyReport
	var checked int
	err = txm.ReadOnly(ctx, func(ctx context.Context) error {
		rows, err := reportSvc.GetBatchStock(ctx, reports.BatchStockFilter{})
		if err != nil {
			return err
		}

		for _, row := range rows {
			report, err := reportSvc.CheckConsistency(ctx, positions.Key{
				ProductID:   row.ProductID,
				WarehouseID: row.WarehouseID,
				BatchID:     row.BatchID,
			})
			if err != nil {
				return fmt.Errorf("check %s/%s/%s: %w", row.ProductID, row.WarehouseID, row.BatchID, err)
			}
			checked++
			if !report.Consistent {
				drifted = append(drifted, report)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalw("consistency check failed", "error", err)
	}

	for _, d := range drifted {
		log.Warnw("position drifted from ledger",
			"product_id", d.ProductID,
			"warehouse_id", d.WarehouseID,
			"batch_id", d.BatchID,
			"qty_on_hand", d.QtyOnHand.String(),
			"ledger_sum", d.LedgerSum.String(),
		)
	}

	if err := auditSvc.Record(ctx, "inventory:consistency_check", "all", "checker", map[string]any{
		"checked": checked,
		"drifted": len(drifted),
	}); err != nil {
		log.Warnw("audit record failed", "error", err)
	}

	log.Infow("consistency check finished", "checked", checked, "drifted", len(drifted))
	if len(drifted) > 0 {
		os.Exit(1)
	}
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
