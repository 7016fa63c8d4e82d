// Package points defines the point amount units used across the ledger.
//
// The ledger stores integers scaled by 10 so that one decimal digit of
// precision survives without floating point drift. Callers declare the unit
// of every amount through the concrete type: Storage for already-scaled
// integers, Display for human-facing decimals. Both satisfy Amount, so a
// double conversion cannot compile.
package points

import "github.com/shopspring/decimal"

// Scale is the multiplier between display and storage units.
const Scale = 10

// Storage is an integer point amount in internal ledger units.
type Storage int64

// Display is a human-facing decimal point amount.
type Display struct {
	value decimal.Decimal
}

// Amount is any point value with a declared unit.
type Amount interface {
	// Storage returns the value scaled to internal ledger units.
	Storage() Storage
}

// Storage returns the value itself; storage units pass through unscaled.
func (s Storage) Storage() Storage { return s }

// Display converts a storage amount into its decimal representation.
func (s Storage) Display() decimal.Decimal {
	return decimal.New(int64(s), 0).Div(decimal.New(Scale, 0))
}

// NewDisplay wraps a decimal value as a display-unit amount.
func NewDisplay(value decimal.Decimal) Display {
	return Display{value: value}
}

// DisplayFromFloat builds a display amount from a float64, primarily for
// request decoding at the API edge.
func DisplayFromFloat(value float64) Display {
	return Display{value: decimal.NewFromFloat(value)}
}

// Storage scales the display value by 10, rounding half away from zero.
func (d Display) Storage() Storage {
	scaled := d.value.Mul(decimal.New(Scale, 0)).Round(0)
	return Storage(scaled.IntPart())
}

// Decimal returns the underlying decimal value.
func (d Display) Decimal() decimal.Decimal { return d.value }

// ToStorage converts a display decimal into storage units.
func ToStorage(value decimal.Decimal) Storage {
	return NewDisplay(value).Storage()
}

// FormatForAPI renders a storage amount as a display decimal rounded to one
// decimal place for presentation.
func FormatForAPI(s Storage) decimal.Decimal {
	return s.Display().Round(1)
}
