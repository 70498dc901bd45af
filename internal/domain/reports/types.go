// Package reports provides the read-only query surface over positions and
// the ledger. Everything here is a projection recomputed on query; nothing
// in this package mutates state or takes locks.
package reports

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/movetype"
)

// BatchStockRow is one line of the batch stock listing.
type BatchStockRow struct {
	ProductID   id.ID          `db:"product_id" json:"productId"`
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	BatchID     id.ID          `db:"batch_id" json:"batchId"`
	BatchNo     string         `db:"batch_no" json:"batchNo"`
	QtyOnHand   types.Quantity `db:"qty_on_hand" json:"qtyOnHand"`
	UnitCost    types.Money    `db:"unit_cost" json:"unitCost"`
	MfgDate     *time.Time     `db:"mfg_date" json:"mfgDate,omitempty"`
	ExpDate     *time.Time     `db:"exp_date" json:"expDate,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// BatchStockFilter narrows the batch stock listing.
type BatchStockFilter struct {
	ProductID   *id.ID
	WarehouseID *id.ID
	BatchNo     *string
	ExcludeZero bool
	Limit       int
	Offset      int
}

// NearExpiryRow is a batch expiring within the requested horizon that still
// has stock on hand.
type NearExpiryRow struct {
	ProductID   id.ID          `db:"product_id" json:"productId"`
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	BatchID     id.ID          `db:"batch_id" json:"batchId"`
	BatchNo     string         `db:"batch_no" json:"batchNo"`
	QtyOnHand   types.Quantity `db:"qty_on_hand" json:"qtyOnHand"`
	ExpDate     time.Time      `db:"exp_date" json:"expDate"`
}

// TransactionRow is a ledger line joined with its movement type.
type TransactionRow struct {
	ID           id.ID              `db:"id" json:"id"`
	TxnDate      time.Time          `db:"txn_date" json:"txnDate"`
	MovementCode movetype.Code      `db:"movement_code" json:"movementCode"`
	Direction    movetype.Direction `db:"direction" json:"direction"`
	Class        movetype.Class     `db:"class" json:"class"`
	TxnType      string             `db:"txn_type" json:"txnType"`
	SourceType   string             `db:"source_type" json:"sourceType"`
	SourceID     string             `db:"source_id" json:"sourceId"`
	ProductID    id.ID              `db:"product_id" json:"productId"`
	WarehouseID  id.ID              `db:"warehouse_id" json:"warehouseId"`
	BatchID      *id.ID             `db:"batch_id" json:"batchId,omitempty"`
	Qty          types.Quantity     `db:"qty" json:"qty"`
	UnitCost     types.Money        `db:"unit_cost" json:"unitCost"`
	Amount       types.Money        `db:"amount" json:"amount"`
	TotalAmount  types.Money        `db:"total_amount" json:"totalAmount"`
	IsDeleted    bool               `db:"is_deleted" json:"isDeleted"`
}

// TransactionFilter narrows the transaction history listing.
type TransactionFilter struct {
	ProductID     *id.ID
	WarehouseID   *id.ID
	BatchID       *id.ID
	MovementClass *movetype.Class
	SourceType    *string
	From          *time.Time
	To            *time.Time
	IncludeVoided bool
	Limit         int
	Offset        int
}

// StockOnHand is the transit-aware derived view:
// total = regular + transit_in - transit_out.
type StockOnHand struct {
	ProductID   id.ID          `json:"productId"`
	WarehouseID id.ID          `json:"warehouseId"`
	BatchID     *id.ID         `json:"batchId,omitempty"`
	RegularQty  types.Quantity `json:"regularQty"`
	TransitIn   types.Quantity `json:"transitIn"`
	TransitOut  types.Quantity `json:"transitOut"`
	Total       types.Quantity `json:"total"`
}

// Turnover summarises receipts and issues over a period.
type Turnover struct {
	ProductID      *id.ID         `json:"productId,omitempty"`
	WarehouseID    *id.ID         `json:"warehouseId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Expense        types.Quantity `json:"expense"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}

// TurnoverFilter bounds the turnover report.
type TurnoverFilter struct {
	ProductID   *id.ID
	WarehouseID *id.ID
	From        time.Time
	To          time.Time
}

// ConsistencyReport compares a position's qty_on_hand against the signed
// ledger sum for the same key.
type ConsistencyReport struct {
	ProductID   id.ID          `json:"productId"`
	WarehouseID id.ID          `json:"warehouseId"`
	BatchID     id.ID          `json:"batchId"`
	QtyOnHand   types.Quantity `json:"qtyOnHand"`
	LedgerSum   types.Quantity `json:"ledgerSum"`
	Consistent  bool           `json:"consistent"`
}

// Repository defines the report queries.
type Repository interface {
	GetBatchStock(ctx context.Context, filter BatchStockFilter) ([]BatchStockRow, error)
	GetNearExpiryBatches(ctx context.Context, horizon time.Time, warehouseID *id.ID) ([]NearExpiryRow, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]TransactionRow, error)

	// RegularQty sums qty_on_hand across positions for the key, all batches
	// when batchID is nil.
	RegularQty(ctx context.Context, productID, warehouseID id.ID, batchID *id.ID) (types.Quantity, error)

	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)
}
