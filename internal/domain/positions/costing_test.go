package positions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/movetype"
)

func TestNextAverageCost(t *testing.T) {
	tests := []struct {
		name    string
		oldQty  string
		oldCost string
		addQty  string
		addCost string
		want    string
	}{
		{
			name:   "receipt into empty position takes incoming cost",
			oldQty: "0", oldCost: "0",
			addQty: "100", addCost: "10",
			want: "10",
		},
		{
			name:   "weighted average 100@10 plus 50@16 gives 12",
			oldQty: "100", oldCost: "10",
			addQty: "50", addCost: "16",
			want: "12",
		},
		{
			name:   "same cost receipt leaves average unchanged",
			oldQty: "30", oldCost: "7.5",
			addQty: "70", addCost: "7.5",
			want: "7.5",
		},
		{
			name:   "free receipt dilutes the average",
			oldQty: "10", oldCost: "10",
			addQty: "10", addCost: "0",
			want: "5",
		},
		{
			name:   "repeating division rounds half even at cost scale",
			oldQty: "1", oldCost: "1",
			addQty: "2", addCost: "2",
			// (1 + 4) / 3 = 1.666666...
			want: "1.666667",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextAverageCost(
				types.MustQuantity(tt.oldQty), types.MustMoney(tt.oldCost),
				types.MustQuantity(tt.addQty), types.MustMoney(tt.addCost),
			)
			assert.True(t, got.Equal(types.MustMoney(tt.want)),
				"want %s got %s", tt.want, got)
		})
	}
}

func TestApplyMovement_Inbound(t *testing.T) {
	now := time.Now().UTC()
	mtIn := movetype.MovementType{ID: 1, Code: movetype.CodeRegularIn, Direction: movetype.DirectionIn, Class: movetype.ClassRegular, Active: true}

	pos := StockPosition{
		ProductID:   id.New(),
		WarehouseID: id.New(),
		BatchID:     id.New(),
		QtyOnHand:   types.MustQuantity("100"),
		UnitCost:    types.MustMoney("10"),
	}

	next, err := ApplyMovement(pos, mtIn, types.MustQuantity("50"), types.MustMoney("16"), now)
	require.NoError(t, err)

	assert.True(t, next.QtyOnHand.Equal(types.MustQuantity("150")))
	assert.True(t, next.UnitCost.Equal(types.MustMoney("12")))
	assert.Equal(t, now, next.UpdatedAt)

	// Input position untouched.
	assert.True(t, pos.QtyOnHand.Equal(types.MustQuantity("100")))
	assert.True(t, pos.UnitCost.Equal(types.MustMoney("10")))
}

func TestApplyMovement_Outbound(t *testing.T) {
	now := time.Now().UTC()
	mtOut := movetype.MovementType{ID: 2, Code: movetype.CodeRegularOut, Direction: movetype.DirectionOut, Class: movetype.ClassRegular, Active: true}

	pos := StockPosition{
		BatchID:   id.New(),
		QtyOnHand: types.MustQuantity("150"),
		UnitCost:  types.MustMoney("12"),
	}

	next, err := ApplyMovement(pos, mtOut, types.MustQuantity("40"), types.Zero(), now)
	require.NoError(t, err)

	assert.True(t, next.QtyOnHand.Equal(types.MustQuantity("110")))
	// Issues never reprice the position.
	assert.True(t, next.UnitCost.Equal(types.MustMoney("12")))
}

func TestApplyMovement_OutboundExactDrain(t *testing.T) {
	mtOut := movetype.MovementType{Direction: movetype.DirectionOut, Class: movetype.ClassRegular}
	pos := StockPosition{QtyOnHand: types.MustQuantity("25"), UnitCost: types.MustMoney("3")}

	next, err := ApplyMovement(pos, mtOut, types.MustQuantity("25"), types.Zero(), time.Now())
	require.NoError(t, err)
	assert.True(t, next.QtyOnHand.IsZero())
	assert.True(t, next.UnitCost.Equal(types.MustMoney("3")))
}

func TestApplyMovement_InsufficientStock(t *testing.T) {
	mtOut := movetype.MovementType{Direction: movetype.DirectionOut, Class: movetype.ClassRegular}
	pos := StockPosition{
		BatchID:   id.New(),
		QtyOnHand: types.MustQuantity("10"),
		UnitCost:  types.MustMoney("5"),
	}

	next, err := ApplyMovement(pos, mtOut, types.MustQuantity("10.0001"), types.Zero(), time.Now())
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	// Failed transition returns the position as-is.
	assert.True(t, next.QtyOnHand.Equal(pos.QtyOnHand))
}

func TestApplyMovement_DiscardDrainsLikeIssue(t *testing.T) {
	mtDiscard := movetype.MovementType{ID: 5, Code: movetype.CodeDiscard, Direction: movetype.DirectionOut, Class: movetype.ClassDiscard, Active: true}
	pos := StockPosition{QtyOnHand: types.MustQuantity("8"), UnitCost: types.MustMoney("2.5")}

	next, err := ApplyMovement(pos, mtDiscard, types.MustQuantity("3"), types.Zero(), time.Now())
	require.NoError(t, err)
	assert.True(t, next.QtyOnHand.Equal(types.MustQuantity("5")))

	_, err = ApplyMovement(pos, mtDiscard, types.MustQuantity("9"), types.Zero(), time.Now())
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestApplyMovement_Validation(t *testing.T) {
	mtIn := movetype.MovementType{Direction: movetype.DirectionIn, Class: movetype.ClassRegular}
	pos := StockPosition{QtyOnHand: types.MustQuantity("1"), UnitCost: types.MustMoney("1")}

	_, err := ApplyMovement(pos, mtIn, types.Zero(), types.MustMoney("1"), time.Now())
	require.Error(t, err)

	_, err = ApplyMovement(pos, mtIn, types.MustQuantity("-5"), types.MustMoney("1"), time.Now())
	require.Error(t, err)

	_, err = ApplyMovement(pos, mtIn, types.MustQuantity("1"), types.MustMoney("-1"), time.Now())
	require.Error(t, err)
}
