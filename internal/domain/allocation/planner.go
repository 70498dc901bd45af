// Package allocation provides FIFO/FEFO batch allocation planning.
//
// Planning is pure: it reads available positions and returns a plan without
// mutating anything, so callers can preview a plan lock-free. The plan is
// advisory — availability is re-checked under the position lock when the plan
// is applied, and InsufficientStock at apply time is a normal retryable
// outcome, not a bug.
package allocation

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/positions"
)

// Line is one planned draw from a batch.
type Line struct {
	BatchID  id.ID          `json:"batchId"`
	Quantity types.Quantity `json:"quantity"`
	UnitCost types.Money    `json:"unitCost"`
	ExpDate  *time.Time     `json:"expDate,omitempty"`
}

// Request is a caller-proposed allocation to validate.
type Request struct {
	BatchID   id.ID
	ProductID id.ID
	Quantity  types.Quantity
}

// PositionSource is the read-only slice of the position store the planner needs.
type PositionSource interface {
	ListAvailable(ctx context.Context, productID, warehouseID id.ID) ([]positions.AvailableBatch, error)
	GetAvailable(ctx context.Context, warehouseID, productID, batchID id.ID) (positions.AvailableBatch, error)
}

// Planner plans outbound movements over available batches.
type Planner struct {
	positions PositionSource
}

// NewPlanner creates a planner over src.
func NewPlanner(src PositionSource) *Planner {
	return &Planner{positions: src}
}

// AllocateFIFO plans a draw consuming oldest-created batches first.
// Batch ids are UUIDv7, so creation time and id order agree.
func (p *Planner) AllocateFIFO(ctx context.Context, productID, warehouseID id.ID, requiredQty types.Quantity) ([]Line, error) {
	return p.plan(ctx, productID, warehouseID, requiredQty, fifoLess)
}

// AllocateFEFO plans a draw consuming soonest-expiring batches first.
// Batches without an expiry date sort last; ties break by batch id ascending.
func (p *Planner) AllocateFEFO(ctx context.Context, productID, warehouseID id.ID, requiredQty types.Quantity) ([]Line, error) {
	return p.plan(ctx, productID, warehouseID, requiredQty, fefoLess)
}

func (p *Planner) plan(ctx context.Context, productID, warehouseID id.ID, requiredQty types.Quantity, less func(a, b positions.AvailableBatch) bool) ([]Line, error) {
	if !requiredQty.IsPositive() {
		return nil, apperror.NewValidation("required quantity must be positive").
			WithDetail("quantity", requiredQty.String())
	}

	available, err := p.positions.ListAvailable(ctx, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list available batches: %w", err)
	}

	sort.SliceStable(available, func(i, j int) bool { return less(available[i], available[j]) })

	lines := make([]Line, 0, len(available))
	remaining := requiredQty
	for _, batch := range available {
		if !remaining.IsPositive() {
			break
		}
		take := remaining
		if take.GreaterThan(batch.QtyOnHand) {
			take = batch.QtyOnHand
		}
		lines = append(lines, Line{
			BatchID:  batch.BatchID,
			Quantity: take,
			UnitCost: batch.UnitCost,
			ExpDate:  batch.ExpDate,
		})
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		// No partial plans: the caller must not apply anything on shortfall.
		return nil, apperror.NewInsufficientStock(
			productID.String(),
			requiredQty.String(),
			requiredQty.Sub(remaining).String(),
		).WithDetail("warehouse_id", warehouseID.String())
	}

	return lines, nil
}

// ValidateBatchStock confirms each externally-proposed allocation against the
// live positions, failing fast on the first batch with a shortfall.
func (p *Planner) ValidateBatchStock(ctx context.Context, allocations []Request, warehouseID id.ID) error {
	for _, alloc := range allocations {
		if !alloc.Quantity.IsPositive() {
			return apperror.NewValidation("allocation quantity must be positive").
				WithDetail("batch_id", alloc.BatchID.String())
		}

		batch, err := p.positions.GetAvailable(ctx, warehouseID, alloc.ProductID, alloc.BatchID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("batch stock", alloc.BatchID.String()).
					WithDetail("warehouse_id", warehouseID.String())
			}
			return fmt.Errorf("get batch stock: %w", err)
		}

		if alloc.Quantity.GreaterThan(batch.QtyOnHand) {
			return apperror.NewInsufficientStock(
				alloc.BatchID.String(), alloc.Quantity.String(), batch.QtyOnHand.String())
		}
	}

	return nil
}

func fifoLess(a, b positions.AvailableBatch) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.BatchID[:], b.BatchID[:]) < 0
}

func fefoLess(a, b positions.AvailableBatch) bool {
	switch {
	case a.ExpDate == nil && b.ExpDate == nil:
		return bytes.Compare(a.BatchID[:], b.BatchID[:]) < 0
	case a.ExpDate == nil:
		return false
	case b.ExpDate == nil:
		return true
	case !a.ExpDate.Equal(*b.ExpDate):
		return a.ExpDate.Before(*b.ExpDate)
	default:
		return bytes.Compare(a.BatchID[:], b.BatchID[:]) < 0
	}
}
