package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a major-unit EUR amount to integer cents, rounding to
// the nearest cent. Only the card provider takes minor units on the wire; the
// other providers take major-unit decimal strings.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// MajorUnitsString renders a major-unit EUR amount with two decimal places,
// the format the reference and mobile payment gateways expect.
func MajorUnitsString(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
