// Package batches provides the batch registry.
package batches

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Batch identifies a physical lot of a product. Identity only: quantity and
// cost live on the stock position, never here.
type Batch struct {
	ID        id.ID      `db:"id" json:"id"`
	ProductID id.ID      `db:"product_id" json:"productId"`
	BatchNo   string     `db:"batch_no" json:"batchNo"`
	MfgDate   *time.Time `db:"mfg_date" json:"mfgDate,omitempty"`
	ExpDate   *time.Time `db:"exp_date" json:"expDate,omitempty"`
	Notes     string     `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// UpsertInput describes a batch upsert request.
// (ProductID, BatchNo) is the natural key; dates and notes are the mutable part.
type UpsertInput struct {
	ProductID id.ID
	BatchNo   string
	MfgDate   *time.Time
	ExpDate   *time.Time
	Notes     string
}

// Validate checks required fields.
func (in UpsertInput) Validate() error {
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if strings.TrimSpace(in.BatchNo) == "" {
		return apperror.NewValidation("batch number is required").WithDetail("field", "batchNo")
	}
	if in.MfgDate != nil && in.ExpDate != nil && in.ExpDate.Before(*in.MfgDate) {
		return apperror.NewValidation("expiry date precedes manufacture date").
			WithDetail("field", "expDate")
	}
	return nil
}

// Repository defines persistence for batches.
type Repository interface {
	// Upsert inserts or updates by (product_id, batch_no) and returns the row id.
	// Concurrent identical calls land on the same row via the unique constraint.
	Upsert(ctx context.Context, input UpsertInput) (id.ID, error)

	GetByID(ctx context.Context, batchID id.ID) (Batch, error)

	List(ctx context.Context, filter ListFilter) ([]Batch, error)
}

// ListFilter narrows List results.
type ListFilter struct {
	ProductID *id.ID
	BatchNo   *string
	Limit     int
	Offset    int
}
