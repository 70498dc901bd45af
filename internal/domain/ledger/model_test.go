package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/movetype"
)

var mtRegularIn = movetype.MovementType{
	ID:        1,
	Code:      movetype.CodeRegularIn,
	Direction: movetype.DirectionIn,
	Class:     movetype.ClassRegular,
	Active:    true,
}

func validInput() Input {
	return Input{
		TxnType:     "goods_receipt",
		SourceType:  "purchase_order",
		SourceID:    "PO-1001",
		ProductID:   id.New(),
		WarehouseID: id.New(),
		Qty:         types.MustQuantity("12"),
		UnitCost:    types.MustMoney("3.456789"),
	}
}

func TestNewTransaction_DerivesAmounts(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	txn, err := NewTransaction(validInput(), mtRegularIn, now)
	require.NoError(t, err)

	// 12 * 3.456789 = 41.481468, rounded half even to minor units.
	assert.True(t, txn.Amount.Equal(types.MustMoney("41.48")), "amount %s", txn.Amount)
	assert.True(t, txn.ForeignAmount.Equal(txn.Amount))
	assert.True(t, txn.TotalAmount.Equal(txn.Amount))

	assert.False(t, id.IsNil(txn.ID))
	assert.Equal(t, int32(1), txn.MovementTypeID)
	assert.Equal(t, now, txn.TxnDate) // zero input date falls back to now
	assert.Equal(t, now, txn.CreatedAt)
	assert.False(t, txn.IsDeleted)
}

func TestNewTransaction_ExchangeRate(t *testing.T) {
	in := validInput()
	in.Qty = types.MustQuantity("10")
	in.UnitCost = types.MustMoney("5")
	rate := types.MustMoney("41.25")
	in.ExchangeRate = &rate

	txn, err := NewTransaction(in, mtRegularIn, time.Now().UTC())
	require.NoError(t, err)

	assert.True(t, txn.Amount.Equal(types.MustMoney("50")))
	assert.True(t, txn.ForeignAmount.Equal(types.MustMoney("50")))
	assert.True(t, txn.TotalAmount.Equal(types.MustMoney("2062.5")), "total %s", txn.TotalAmount)
}

func TestNewTransaction_KeepsExplicitDate(t *testing.T) {
	in := validInput()
	in.TxnDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	txn, err := NewTransaction(in, mtRegularIn, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, in.TxnDate, txn.TxnDate)
}

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing source type", func(in *Input) { in.SourceType = " " }},
		{"missing source id", func(in *Input) { in.SourceID = "" }},
		{"missing product", func(in *Input) { in.ProductID = id.Nil() }},
		{"missing warehouse", func(in *Input) { in.WarehouseID = id.Nil() }},
		{"zero quantity", func(in *Input) { in.Qty = types.Zero() }},
		{"negative quantity", func(in *Input) { in.Qty = types.MustQuantity("-1") }},
		{"negative cost", func(in *Input) { in.UnitCost = types.MustMoney("-0.01") }},
		{"zero exchange rate", func(in *Input) {
			rate := types.Zero()
			in.ExchangeRate = &rate
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			assert.Error(t, in.Validate())
		})
	}

	t.Run("valid", func(t *testing.T) {
		in := validInput()
		assert.NoError(t, in.Validate())
	})

	t.Run("zero cost is allowed", func(t *testing.T) {
		in := validInput()
		in.UnitCost = types.Zero()
		assert.NoError(t, in.Validate())
	})
}
