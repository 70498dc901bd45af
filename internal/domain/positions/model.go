// Package positions provides the stock position store: current quantity and
// moving-average cost per (product, warehouse, batch).
package positions

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Key identifies one stock position.
type Key struct {
	ProductID   id.ID
	WarehouseID id.ID
	BatchID     id.ID
}

// StockPosition is the mutable projection protected by row-level locking.
// Created lazily on first inbound movement, mutated by every movement against
// its key, never hard-deleted (zero quantity is a legitimate state).
type StockPosition struct {
	ProductID   id.ID          `db:"product_id" json:"productId"`
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	BatchID     id.ID          `db:"batch_id" json:"batchId"`
	QtyOnHand   types.Quantity `db:"qty_on_hand" json:"qtyOnHand"`
	UnitCost    types.Money    `db:"unit_cost" json:"unitCost"`
	CurrencyID  *id.ID         `db:"currency_id" json:"currencyId,omitempty"`
	UomID       *id.ID         `db:"uom_id" json:"uomId,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// Key returns the position's key.
func (p StockPosition) Key() Key {
	return Key{ProductID: p.ProductID, WarehouseID: p.WarehouseID, BatchID: p.BatchID}
}

// AvailableBatch is a position with stock joined to its batch identity,
// the allocation engine's planning input.
type AvailableBatch struct {
	BatchID   id.ID          `db:"batch_id" json:"batchId"`
	BatchNo   string         `db:"batch_no" json:"batchNo"`
	QtyOnHand types.Quantity `db:"qty_on_hand" json:"qtyOnHand"`
	UnitCost  types.Money    `db:"unit_cost" json:"unitCost"`
	MfgDate   *time.Time     `db:"mfg_date" json:"mfgDate,omitempty"`
	ExpDate   *time.Time     `db:"exp_date" json:"expDate,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// Repository defines persistence for stock positions.
type Repository interface {
	// Get returns the position for key, or NotFound.
	Get(ctx context.Context, key Key) (StockPosition, error)

	// GetForUpdate returns the position with a pessimistic row lock (SELECT
	// ... FOR UPDATE), or NotFound. Must be called inside a transaction; the
	// lock serializes concurrent movements against the same key until
	// commit/rollback.
	GetForUpdate(ctx context.Context, key Key) (StockPosition, error)

	// Upsert writes the position (insert on first inbound, update after).
	Upsert(ctx context.Context, position StockPosition) error

	// ListAvailable returns positions with qty_on_hand > 0 for the
	// product+warehouse, batch identity joined, ordered by batch creation.
	ListAvailable(ctx context.Context, productID, warehouseID id.ID) ([]AvailableBatch, error)

	// GetAvailable returns the available quantity for one batch in a
	// warehouse, or NotFound when no position exists.
	GetAvailable(ctx context.Context, warehouseID, productID, batchID id.ID) (AvailableBatch, error)
}
