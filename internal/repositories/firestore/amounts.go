package firestore

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary amounts are stored as fixed-point strings so document values stay
// exact and lexically stable regardless of client float handling.
func encodeAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func decodeAmount(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode %s amount %q: %w", field, raw, err)
	}
	return amount, nil
}
