// Package report_repo provides PostgreSQL implementations for the report
// queries. All queries here are read-only projections and never lock rows.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetBatchStock lists positions joined with batch metadata.
func (r *ReportRepo) GetBatchStock(ctx context.Context, filter reports.BatchStockFilter) ([]reports.BatchStockRow, error) {
	q := r.builder.Select(
		"p.product_id", "p.warehouse_id", "p.batch_id",
		"b.batch_no", "p.qty_on_hand", "p.unit_cost",
		"b.mfg_date", "b.exp_date", "p.updated_at",
	).
		From("inv_positions p").
		Join("inv_batches b ON b.id = p.batch_id")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"p.product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"p.warehouse_id": *filter.WarehouseID})
	}
	if filter.BatchNo != nil {
		q = q.Where(squirrel.Eq{"b.batch_no": *filter.BatchNo})
	}
	if filter.ExcludeZero {
		q = q.Where("p.qty_on_hand > 0")
	}

	q = q.OrderBy("p.product_id", "b.created_at", "b.id")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []reports.BatchStockRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("batch stock report: %w", err)
	}

	return rows, nil
}

// GetNearExpiryBatches lists batches with stock on hand expiring on or before
// horizon, soonest first. Batches without an expiry date never appear.
func (r *ReportRepo) GetNearExpiryBatches(ctx context.Context, horizon time.Time, warehouseID *id.ID) ([]reports.NearExpiryRow, error) {
	sql := `
		SELECT
			p.product_id,
			p.warehouse_id,
			p.batch_id,
			b.batch_no,
			p.qty_on_hand,
			b.exp_date
		FROM inv_positions p
		JOIN inv_batches b ON b.id = p.batch_id
		WHERE p.qty_on_hand > 0
		  AND b.exp_date IS NOT NULL
		  AND b.exp_date <= $1
		  AND ($2::uuid IS NULL OR p.warehouse_id = $2)
		ORDER BY b.exp_date, b.id
	`

	var rows []reports.NearExpiryRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, horizon, warehouseID); err != nil {
		return nil, fmt.Errorf("near expiry report: %w", err)
	}

	return rows, nil
}

// GetTransactions lists ledger lines joined with their movement type.
func (r *ReportRepo) GetTransactions(ctx context.Context, filter reports.TransactionFilter) ([]reports.TransactionRow, error) {
	q := r.builder.Select(
		"t.id", "t.txn_date",
		"m.code AS movement_code", "m.direction", "m.class",
		"t.txn_type", "t.source_type", "t.source_id",
		"t.product_id", "t.warehouse_id", "t.batch_id",
		"t.qty", "t.unit_cost", "t.amount", "t.total_amount",
		"t.is_deleted",
	).
		From("inv_transactions t").
		Join("inv_movement_types m ON m.id = t.movement_type_id")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"t.product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"t.warehouse_id": *filter.WarehouseID})
	}
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"t.batch_id": *filter.BatchID})
	}
	if filter.MovementClass != nil {
		q = q.Where(squirrel.Eq{"m.class": string(*filter.MovementClass)})
	}
	if filter.SourceType != nil {
		q = q.Where(squirrel.Eq{"t.source_type": *filter.SourceType})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"t.txn_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"t.txn_date": *filter.To})
	}
	if !filter.IncludeVoided {
		q = q.Where(squirrel.Eq{"t.is_deleted": false})
	}

	q = q.OrderBy("t.txn_date DESC", "t.created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []reports.TransactionRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("transaction report: %w", err)
	}

	return rows, nil
}

// RegularQty sums position quantities for the key, across all batches when
// batchID is nil.
func (r *ReportRepo) RegularQty(ctx context.Context, productID, warehouseID id.ID, batchID *id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(qty_on_hand), 0)
		FROM inv_positions
		WHERE product_id = $1
		  AND warehouse_id = $2
		  AND ($3::uuid IS NULL OR batch_id = $3)
	`

	var qty decimal.Decimal
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID, warehouseID, batchID).Scan(&qty)
	if err != nil && err != pgx.ErrNoRows {
		return types.Zero(), fmt.Errorf("regular qty: %w", err)
	}

	return qty, nil
}

// GetTurnover computes opening balance, receipts and issues over a period
// from the position-affecting ledger rows. Transit rows are excluded since
// they never change what is physically on hand.
func (r *ReportRepo) GetTurnover(ctx context.Context, filter reports.TurnoverFilter) (reports.Turnover, error) {
	sql := `
		SELECT
			COALESCE(SUM(CASE WHEN t.txn_date < $1 THEN
				CASE WHEN m.direction = 'IN' THEN t.qty ELSE -t.qty END
			END), 0) AS opening,
			COALESCE(SUM(t.qty) FILTER (
				WHERE t.txn_date >= $1 AND t.txn_date <= $2 AND m.direction = 'IN'
			), 0) AS receipt,
			COALESCE(SUM(t.qty) FILTER (
				WHERE t.txn_date >= $1 AND t.txn_date <= $2 AND m.direction = 'OUT'
			), 0) AS expense
		FROM inv_transactions t
		JOIN inv_movement_types m ON m.id = t.movement_type_id
		WHERE t.txn_date <= $2
		  AND m.class <> 'TRANSIT'
		  AND NOT t.is_deleted
		  AND ($3::uuid IS NULL OR t.product_id = $3)
		  AND ($4::uuid IS NULL OR t.warehouse_id = $4)
	`

	var opening, receipt, expense decimal.Decimal
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, filter.From, filter.To, filter.ProductID, filter.WarehouseID).
		Scan(&opening, &receipt, &expense)
	if err != nil && err != pgx.ErrNoRows {
		return reports.Turnover{}, fmt.Errorf("turnover report: %w", err)
	}

	return reports.Turnover{
		ProductID:      filter.ProductID,
		WarehouseID:    filter.WarehouseID,
		OpeningBalance: opening,
		Receipt:        receipt,
		Expense:        expense,
		ClosingBalance: opening.Add(receipt).Sub(expense),
	}, nil
}

// Ensure interface compliance.
var _ reports.Repository = (*ReportRepo)(nil)
