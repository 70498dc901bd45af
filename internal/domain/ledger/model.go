// Package ledger provides the append-only inventory transaction ledger.
//
// One row per stock-affecting event. Rows are immutable once written: the
// only permitted update is flipping is_deleted for an explicit void, and a
// void never corrects qty_on_hand — reversing economic effect takes a
// compensating movement.
package ledger

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/movetype"
)

// Transaction is one immutable ledger line.
type Transaction struct {
	ID             id.ID          `db:"id" json:"id"`
	TxnDate        time.Time      `db:"txn_date" json:"txnDate"`
	MovementTypeID int32          `db:"movement_type_id" json:"movementTypeId"`
	TxnType        string         `db:"txn_type" json:"txnType"`
	SourceType     string         `db:"source_type" json:"sourceType"`
	SourceID       string         `db:"source_id" json:"sourceId"`
	SourceLineID   *string        `db:"source_line_id" json:"sourceLineId,omitempty"`
	ProductID      id.ID          `db:"product_id" json:"productId"`
	WarehouseID    id.ID          `db:"warehouse_id" json:"warehouseId"`
	BatchID        *id.ID         `db:"batch_id" json:"batchId,omitempty"`
	Qty            types.Quantity `db:"qty" json:"qty"`
	UnitCost       types.Money    `db:"unit_cost" json:"unitCost"`
	Amount         types.Money    `db:"amount" json:"amount"`
	CurrencyID     *id.ID         `db:"currency_id" json:"currencyId,omitempty"`
	ExchangeRate   *types.Money   `db:"exchange_rate" json:"exchangeRate,omitempty"`
	ForeignAmount  types.Money    `db:"foreign_amount" json:"foreignAmount"`
	TotalAmount    types.Money    `db:"total_amount" json:"totalAmount"`
	UomID          *id.ID         `db:"uom_id" json:"uomId,omitempty"`
	IsDeleted      bool           `db:"is_deleted" json:"isDeleted"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// Input describes a ledger append request.
type Input struct {
	TxnDate      time.Time
	TxnType      string
	SourceType   string
	SourceID     string
	SourceLineID *string
	ProductID    id.ID
	WarehouseID  id.ID
	BatchID      *id.ID
	Qty          types.Quantity
	UnitCost     types.Money
	CurrencyID   *id.ID
	ExchangeRate *types.Money
	UomID        *id.ID
}

// Validate checks required reference fields.
func (in Input) Validate() error {
	if strings.TrimSpace(in.SourceType) == "" {
		return apperror.NewValidation("source type is required").WithDetail("field", "sourceType")
	}
	if strings.TrimSpace(in.SourceID) == "" {
		return apperror.NewValidation("source id is required").WithDetail("field", "sourceId")
	}
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if id.IsNil(in.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	if !in.Qty.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", in.Qty.String())
	}
	if in.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative").
			WithDetail("unit_cost", in.UnitCost.String())
	}
	if in.ExchangeRate != nil && !in.ExchangeRate.IsPositive() {
		return apperror.NewValidation("exchange rate must be positive").
			WithDetail("exchange_rate", in.ExchangeRate.String())
	}
	return nil
}

// NewTransaction builds the immutable row from input and the resolved
// movement type, deriving amounts:
//
//	amount         = qty * unit_cost            (transaction currency)
//	foreign_amount = amount
//	total_amount   = amount * exchange_rate when a rate is supplied,
//	                 else amount               (base currency)
//
// All three are rounded half-even to the currency minor unit.
func NewTransaction(input Input, mt movetype.MovementType, now time.Time) (Transaction, error) {
	if err := input.Validate(); err != nil {
		return Transaction{}, err
	}

	txnDate := input.TxnDate
	if txnDate.IsZero() {
		txnDate = now
	}

	amount := types.RoundAmount(input.Qty.Mul(input.UnitCost))
	foreignAmount := amount
	totalAmount := amount
	if input.ExchangeRate != nil {
		totalAmount = types.RoundAmount(amount.Mul(*input.ExchangeRate))
	}

	return Transaction{
		ID:             id.New(),
		TxnDate:        txnDate,
		MovementTypeID: mt.ID,
		TxnType:        input.TxnType,
		SourceType:     input.SourceType,
		SourceID:       input.SourceID,
		SourceLineID:   input.SourceLineID,
		ProductID:      input.ProductID,
		WarehouseID:    input.WarehouseID,
		BatchID:        input.BatchID,
		Qty:            input.Qty,
		UnitCost:       input.UnitCost,
		Amount:         amount,
		CurrencyID:     input.CurrencyID,
		ExchangeRate:   input.ExchangeRate,
		ForeignAmount:  foreignAmount,
		TotalAmount:    totalAmount,
		UomID:          input.UomID,
		CreatedAt:      now,
	}, nil
}

// Filter narrows transaction listings.
type Filter struct {
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

// TransitTotals are the summed non-voided transit quantities for a key.
type TransitTotals struct {
	In  types.Quantity
	Out types.Quantity
}

// Repository defines persistence for the ledger.
type Repository interface {
	// Insert appends one row.
	Insert(ctx context.Context, txn Transaction) error

	// InsertMany appends several rows; inside a transaction this uses the
	// COPY protocol.
	InsertMany(ctx context.Context, txns []Transaction) error

	GetByID(ctx context.Context, txnID id.ID) (Transaction, error)

	// SetVoided flips is_deleted. NotFound when the row does not exist.
	SetVoided(ctx context.Context, txnID id.ID, voided bool) error

	// List returns ledger lines matching filter, newest first.
	List(ctx context.Context, filter Filter) ([]Transaction, error)

	// SumTransit sums non-voided TRANSIT-class quantities by direction for
	// the product+warehouse, optionally narrowed to one batch.
	SumTransit(ctx context.Context, productID, warehouseID id.ID, batchID *id.ID) (TransitTotals, error)

	// SignedSum is the conservation check: sum of qty over non-voided
	// position-affecting rows (REGULAR and DISCARD classes) for the key,
	// signed by movement direction. Transit rows never touch a position and
	// are excluded.
	SignedSum(ctx context.Context, productID, warehouseID, batchID id.ID) (types.Quantity, error)
}
