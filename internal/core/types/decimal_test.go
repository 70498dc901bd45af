package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRounding(t *testing.T) {
	// Bankers' rounding: ties go to the even neighbour.
	assert.Equal(t, "2.5", RoundAmount(MustMoney("2.505")).String())
	assert.Equal(t, "2.52", RoundAmount(MustMoney("2.515")).String())
	assert.Equal(t, "41.48", RoundAmount(MustMoney("41.481468")).String())

	assert.Equal(t, "1.666666", RoundCost(MustMoney("1.6666665")).String())
	assert.Equal(t, "1.666668", RoundCost(MustMoney("1.6666675")).String())
	assert.Equal(t, "0.333333", RoundCost(MustMoney("0.3333333333")).String())

	assert.Equal(t, "10.0002", RoundQuantity(MustQuantity("10.00015")).String())
}

func TestMustMoneyPanicsOnGarbage(t *testing.T) {
	assert.Panics(t, func() { MustMoney("not-a-number") })
	assert.Panics(t, func() { MustQuantity("") })
}
