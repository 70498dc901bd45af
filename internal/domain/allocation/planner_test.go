package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/positions"
)

type fakeSource struct {
	batches []positions.AvailableBatch
}

func (f *fakeSource) ListAvailable(_ context.Context, _, _ id.ID) ([]positions.AvailableBatch, error) {
	out := make([]positions.AvailableBatch, len(f.batches))
	copy(out, f.batches)
	return out, nil
}

func (f *fakeSource) GetAvailable(_ context.Context, _, _, batchID id.ID) (positions.AvailableBatch, error) {
	for _, b := range f.batches {
		if b.BatchID == batchID {
			return b, nil
		}
	}
	return positions.AvailableBatch{}, apperror.NewNotFound("stock position", batchID.String())
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestAllocateFIFO(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b1, b2, b3 := id.New(), id.New(), id.New()

	src := &fakeSource{batches: []positions.AvailableBatch{
		// Listed newest first on purpose; the planner must re-sort.
		{BatchID: b3, QtyOnHand: types.MustQuantity("100"), UnitCost: types.MustMoney("9"), CreatedAt: base.Add(48 * time.Hour)},
		{BatchID: b1, QtyOnHand: types.MustQuantity("30"), UnitCost: types.MustMoney("10"), CreatedAt: base},
		{BatchID: b2, QtyOnHand: types.MustQuantity("40"), UnitCost: types.MustMoney("11"), CreatedAt: base.Add(24 * time.Hour)},
	}}
	planner := NewPlanner(src)

	lines, err := planner.AllocateFIFO(context.Background(), id.New(), id.New(), types.MustQuantity("50"))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, b1, lines[0].BatchID)
	assert.True(t, lines[0].Quantity.Equal(types.MustQuantity("30")))
	assert.True(t, lines[0].UnitCost.Equal(types.MustMoney("10")))

	assert.Equal(t, b2, lines[1].BatchID)
	assert.True(t, lines[1].Quantity.Equal(types.MustQuantity("20")))
	assert.True(t, lines[1].UnitCost.Equal(types.MustMoney("11")))
}

func TestAllocateFIFO_TieBreaksByBatchID(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// UUIDv7: successive ids are ascending.
	first, second := id.New(), id.New()

	src := &fakeSource{batches: []positions.AvailableBatch{
		{BatchID: second, QtyOnHand: types.MustQuantity("10"), CreatedAt: createdAt},
		{BatchID: first, QtyOnHand: types.MustQuantity("10"), CreatedAt: createdAt},
	}}

	lines, err := NewPlanner(src).AllocateFIFO(context.Background(), id.New(), id.New(), types.MustQuantity("15"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, first, lines[0].BatchID)
	assert.Equal(t, second, lines[1].BatchID)
}

func TestAllocateFEFO(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	soon, later, never := id.New(), id.New(), id.New()

	src := &fakeSource{batches: []positions.AvailableBatch{
		{BatchID: never, QtyOnHand: types.MustQuantity("100"), CreatedAt: base},
		{BatchID: later, QtyOnHand: types.MustQuantity("20"), ExpDate: datePtr(2026, 9, 1), CreatedAt: base.Add(time.Hour)},
		{BatchID: soon, QtyOnHand: types.MustQuantity("5"), ExpDate: datePtr(2026, 4, 1), CreatedAt: base.Add(2 * time.Hour)},
	}}

	lines, err := NewPlanner(src).AllocateFEFO(context.Background(), id.New(), id.New(), types.MustQuantity("30"))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	// Soonest expiry first, undated batches drained last.
	assert.Equal(t, soon, lines[0].BatchID)
	assert.True(t, lines[0].Quantity.Equal(types.MustQuantity("5")))
	assert.Equal(t, later, lines[1].BatchID)
	assert.True(t, lines[1].Quantity.Equal(types.MustQuantity("20")))
	assert.Equal(t, never, lines[2].BatchID)
	assert.True(t, lines[2].Quantity.Equal(types.MustQuantity("5")))
}

func TestAllocate_InsufficientStock(t *testing.T) {
	src := &fakeSource{batches: []positions.AvailableBatch{
		{BatchID: id.New(), QtyOnHand: types.MustQuantity("10"), CreatedAt: time.Now()},
	}}

	lines, err := NewPlanner(src).AllocateFIFO(context.Background(), id.New(), id.New(), types.MustQuantity("11"))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	// Shortfall never yields a partial plan.
	assert.Nil(t, lines)
}

func TestAllocate_RejectsNonPositiveQuantity(t *testing.T) {
	planner := NewPlanner(&fakeSource{})

	_, err := planner.AllocateFIFO(context.Background(), id.New(), id.New(), types.Zero())
	require.Error(t, err)

	_, err = planner.AllocateFEFO(context.Background(), id.New(), id.New(), types.MustQuantity("-1"))
	require.Error(t, err)
}

func TestValidateBatchStock(t *testing.T) {
	b1, b2 := id.New(), id.New()
	productID, warehouseID := id.New(), id.New()

	src := &fakeSource{batches: []positions.AvailableBatch{
		{BatchID: b1, QtyOnHand: types.MustQuantity("10")},
		{BatchID: b2, QtyOnHand: types.MustQuantity("3")},
	}}
	planner := NewPlanner(src)

	err := planner.ValidateBatchStock(context.Background(), []Request{
		{BatchID: b1, ProductID: productID, Quantity: types.MustQuantity("10")},
		{BatchID: b2, ProductID: productID, Quantity: types.MustQuantity("3")},
	}, warehouseID)
	assert.NoError(t, err)

	err = planner.ValidateBatchStock(context.Background(), []Request{
		{BatchID: b2, ProductID: productID, Quantity: types.MustQuantity("4")},
	}, warehouseID)
	assert.True(t, apperror.IsInsufficientStock(err))

	err = planner.ValidateBatchStock(context.Background(), []Request{
		{BatchID: id.New(), ProductID: productID, Quantity: types.MustQuantity("1")},
	}, warehouseID)
	assert.True(t, apperror.IsNotFound(err))
}
