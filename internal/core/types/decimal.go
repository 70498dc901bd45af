// Package types provides common type aliases and utilities.
//
// All quantities and monetary values in the engine are decimal.Decimal.
// Moving-average costing recomputes the unit cost on every receipt; doing
// that in binary floating point drifts, so float64 never appears in the
// costing path.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity represents a stock quantity with full precision.
// Stored as NUMERIC(19,4) in PostgreSQL.
type Quantity = decimal.Decimal

const (
	// CostScale is the number of fractional digits kept on a moving-average
	// unit cost. Amounts derived from it are rounded to AmountScale.
	CostScale int32 = 6

	// AmountScale is the currency minor-unit precision for ledger amounts.
	AmountScale int32 = 2

	// QuantityScale matches the NUMERIC(19,4) quantity columns.
	QuantityScale int32 = 4
)

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MustQuantity creates a Quantity from a string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero decimal value.
func Zero() Money {
	return decimal.Zero
}

// RoundCost rounds a moving-average unit cost to CostScale digits,
// round-half-even.
func RoundCost(d Money) Money {
	return d.RoundBank(CostScale)
}

// RoundAmount rounds a ledger amount to the currency minor unit,
// round-half-even.
func RoundAmount(d Money) Money {
	return d.RoundBank(AmountScale)
}

// RoundQuantity rounds a quantity to the stored scale, round-half-even.
func RoundQuantity(d Quantity) Quantity {
	return d.RoundBank(QuantityScale)
}
