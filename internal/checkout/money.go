package checkout

import (
	"github.com/shopspring/decimal"
)

var centsPerDollar = decimal.NewFromInt(100)

// ComputeTotals sums the cart in decimal dollars, converts once to cents,
// then derives the platform fee from the cent total. Rounding is
// half-away-from-zero, so a client computing with Math.round lands on the
// same figures. The seller transfer is always total minus fee, keeping
// fee + transfer == total exact.
func ComputeTotals(items []CartItem, feeRate decimal.Decimal) (totalCents, feeCents int64) {
	total := decimal.Zero
	for _, item := range items {
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}

	totalCents = total.Mul(centsPerDollar).Round(0).IntPart()
	feeCents = decimal.NewFromInt(totalCents).Mul(feeRate).Round(0).IntPart()
	return totalCents, feeCents
}
