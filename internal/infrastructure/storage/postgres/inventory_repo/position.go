package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/positions"
	"stockledger/internal/infrastructure/storage/postgres"
)

const positionsTable = "inv_positions"

// PositionRepo implements positions.Repository.
type PositionRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPositionRepo creates a new stock position repository.
func NewPositionRepo(txm *postgres.TxManager) *PositionRepo {
	return &PositionRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get returns the position for key.
func (r *PositionRepo) Get(ctx context.Context, key positions.Key) (positions.StockPosition, error) {
	var pos positions.StockPosition

	q := r.builder.Select(
		"product_id", "warehouse_id", "batch_id",
		"qty_on_hand", "unit_cost", "currency_id", "uom_id", "updated_at",
	).From(positionsTable).
		Where(squirrel.Eq{
			"product_id":   key.ProductID,
			"warehouse_id": key.WarehouseID,
			"batch_id":     key.BatchID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return pos, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &pos, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return pos, apperror.NewNotFound("stock position", key)
		}
		return pos, fmt.Errorf("get position: %w", err)
	}

	return pos, nil
}

// GetForUpdate returns the position with a pessimistic row lock. The lock
// holds until the enclosing transaction commits or rolls back, serializing
// concurrent movements against the same key.
func (r *PositionRepo) GetForUpdate(ctx context.Context, key positions.Key) (positions.StockPosition, error) {
	var pos positions.StockPosition

	sql := `
		SELECT product_id, warehouse_id, batch_id, qty_on_hand, unit_cost, currency_id, uom_id, updated_at
		FROM inv_positions
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3
		FOR UPDATE
	`

	querier := r.txm.GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &pos, sql, key.ProductID, key.WarehouseID, key.BatchID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return pos, apperror.NewNotFound("stock position", key)
		}
		return pos, postgres.MapError(fmt.Errorf("get position for update: %w", err))
	}

	return pos, nil
}

// Upsert writes the position: insert on first inbound movement, update after.
// Positions are never deleted; zero quantity is a legitimate state.
func (r *PositionRepo) Upsert(ctx context.Context, pos positions.StockPosition) error {
	sql := `
		INSERT INTO inv_positions (product_id, warehouse_id, batch_id, qty_on_hand, unit_cost, currency_id, uom_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (product_id, warehouse_id, batch_id) DO UPDATE SET
			qty_on_hand = EXCLUDED.qty_on_hand,
			unit_cost = EXCLUDED.unit_cost,
			updated_at = NOW()
	`

	querier := r.txm.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		pos.ProductID, pos.WarehouseID, pos.BatchID,
		pos.QtyOnHand, pos.UnitCost, pos.CurrencyID, pos.UomID,
	)
	if err != nil {
		return postgres.MapError(fmt.Errorf("upsert position: %w", err))
	}

	return nil
}

// ListAvailable returns positions with stock for product+warehouse, batch
// identity joined, in batch creation order.
func (r *PositionRepo) ListAvailable(ctx context.Context, productID, warehouseID id.ID) ([]positions.AvailableBatch, error) {
	q := r.builder.Select(
		"p.batch_id", "b.batch_no", "p.qty_on_hand", "p.unit_cost",
		"b.mfg_date", "b.exp_date", "b.created_at",
	).From(positionsTable + " p").
		Join(batchesTable + " b ON b.id = p.batch_id").
		Where(squirrel.Eq{
			"p.product_id":   productID,
			"p.warehouse_id": warehouseID,
		}).
		Where(squirrel.Gt{"p.qty_on_hand": 0}).
		OrderBy("b.created_at", "b.id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var available []positions.AvailableBatch
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &available, sql, args...); err != nil {
		return nil, fmt.Errorf("select available batches: %w", err)
	}

	return available, nil
}

// GetAvailable returns one batch's availability in a warehouse.
func (r *PositionRepo) GetAvailable(ctx context.Context, warehouseID, productID, batchID id.ID) (positions.AvailableBatch, error) {
	var batch positions.AvailableBatch

	q := r.builder.Select(
		"p.batch_id", "b.batch_no", "p.qty_on_hand", "p.unit_cost",
		"b.mfg_date", "b.exp_date", "b.created_at",
	).From(positionsTable + " p").
		Join(batchesTable + " b ON b.id = p.batch_id").
		Where(squirrel.Eq{
			"p.product_id":   productID,
			"p.warehouse_id": warehouseID,
			"p.batch_id":     batchID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return batch, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &batch, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return batch, apperror.NewNotFound("stock position", batchID.String())
		}
		return batch, fmt.Errorf("get available batch: %w", err)
	}

	return batch, nil
}

// Ensure interface compliance.
var _ positions.Repository = (*PositionRepo)(nil)
