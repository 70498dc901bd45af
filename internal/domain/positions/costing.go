package positions

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/movetype"
)

// NextAverageCost computes the moving weighted-average unit cost after a
// receipt: (oldQty*oldCost + addQty*addCost) / (oldQty + addQty), rounded
// half-even to the cost scale. When the resulting quantity is not positive
// the incoming cost wins outright.
func NextAverageCost(oldQty types.Quantity, oldCost types.Money, addQty types.Quantity, addCost types.Money) types.Money {
	totalQty := oldQty.Add(addQty)
	if !totalQty.IsPositive() {
		return types.RoundCost(addCost)
	}
	totalValue := oldQty.Mul(oldCost).Add(addQty.Mul(addCost))
	return types.RoundCost(totalValue.Div(totalQty))
}

// ApplyMovement is the pure state transition of a position under one movement.
// qty is always a positive magnitude; the movement type's direction decides
// the sign.
//
// IN:  quantity increases and the average cost is recomputed.
// OUT: quantity decreases, cost untouched; an issue beyond qty_on_hand is
// rejected with InsufficientStock and leaves the position unchanged.
func ApplyMovement(pos StockPosition, mt movetype.MovementType, qty types.Quantity, unitCost types.Money, now time.Time) (StockPosition, error) {
	if !qty.IsPositive() {
		return pos, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.String())
	}

	next := pos
	if mt.IsInbound() {
		if unitCost.IsNegative() {
			return pos, apperror.NewValidation("unit cost must not be negative").
				WithDetail("unit_cost", unitCost.String())
		}
		next.UnitCost = NextAverageCost(pos.QtyOnHand, pos.UnitCost, qty, unitCost)
		next.QtyOnHand = pos.QtyOnHand.Add(qty)
	} else {
		if qty.GreaterThan(pos.QtyOnHand) {
			return pos, apperror.NewInsufficientStock(
				pos.BatchID.String(), qty.String(), pos.QtyOnHand.String())
		}
		next.QtyOnHand = pos.QtyOnHand.Sub(qty)
	}

	next.UpdatedAt = now
	return next, nil
}
