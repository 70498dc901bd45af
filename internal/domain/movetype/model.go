// Package movetype provides the movement type registry.
//
// Movement semantics (does a movement increase or decrease stock, is it
// regular or in-transit) are reference data, consulted through the registry
// instead of hard-coded by callers. Unknown codes fail fast with NotFound;
// nothing ever defaults silently.
package movetype

// Code identifies a movement kind.
type Code string

const (
	CodeRegularIn  Code = "REGULAR_IN"
	CodeRegularOut Code = "REGULAR_OUT"
	CodeTransitIn  Code = "TRANSIT_IN"
	CodeTransitOut Code = "TRANSIT_OUT"
	CodeDiscard    Code = "DISCARD"
)

// Direction defines whether a movement increases or decreases quantity.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Class groups movements by stock class.
type Class string

const (
	ClassRegular Class = "REGULAR"
	ClassTransit Class = "TRANSIT"
	ClassDiscard Class = "DISCARD"
)

// MovementType is immutable reference data describing one movement kind.
// Rows are created at setup time and read-only thereafter.
type MovementType struct {
	ID        int32     `db:"id" json:"id"`
	Code      Code      `db:"code" json:"code"`
	Direction Direction `db:"direction" json:"direction"`
	Class     Class     `db:"class" json:"class"`
	Active    bool      `db:"active" json:"active"`
}

// IsInbound reports whether the movement increases quantity.
func (m MovementType) IsInbound() bool {
	return m.Direction == DirectionIn
}

// IsTransit reports whether the movement belongs to the in-transit class.
// Transit movements are ledger-only: they never touch a stock position and
// surface through the derived stock-on-hand view instead.
func (m MovementType) IsTransit() bool {
	return m.Class == ClassTransit
}

// Builtin returns the standard movement type set seeded at setup time.
//
// DISCARD is deliberately an OUT movement against the position store: a
// discarded quantity leaves qty_on_hand exactly like a regular issue, it is
// only labelled differently for reporting.
func Builtin() []MovementType {
	return []MovementType{
		{ID: 1, Code: CodeRegularIn, Direction: DirectionIn, Class: ClassRegular, Active: true},
		{ID: 2, Code: CodeRegularOut, Direction: DirectionOut, Class: ClassRegular, Active: true},
		{ID: 3, Code: CodeTransitIn, Direction: DirectionIn, Class: ClassTransit, Active: true},
		{ID: 4, Code: CodeTransitOut, Direction: DirectionOut, Class: ClassTransit, Active: true},
		{ID: 5, Code: CodeDiscard, Direction: DirectionOut, Class: ClassDiscard, Active: true},
	}
}
