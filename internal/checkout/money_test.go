package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func cartLine(price string, qty int) CartItem {
	return CartItem{
		ProductID: uuid.New(),
		Quantity:  qty,
		Product: CartProduct{
			Price:         decimal.RequireFromString(price),
			SellerID:      uuid.New(),
			AllowShipping: true,
		},
	}
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name      string
		items     []CartItem
		feeRate   string
		wantTotal int64
		wantFee   int64
	}{
		{
			name:      "two units at 49.99 with 5 percent fee",
			items:     []CartItem{cartLine("49.99", 2)},
			feeRate:   "0.05",
			wantTotal: 9998,
			wantFee:   500,
		},
		{
			name:      "zero fee rate",
			items:     []CartItem{cartLine("10.00", 1)},
			feeRate:   "0",
			wantTotal: 1000,
			wantFee:   0,
		},
		{
			name:      "sub-cent line prices round once at the total",
			items:     []CartItem{cartLine("0.335", 1), cartLine("0.335", 1)},
			feeRate:   "0.05",
			wantTotal: 67,
			wantFee:   3,
		},
		{
			name:      "fee rounds half away from zero",
			items:     []CartItem{cartLine("0.10", 1)},
			feeRate:   "0.05",
			wantTotal: 10,
			wantFee:   1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, fee := ComputeTotals(tc.items, decimal.RequireFromString(tc.feeRate))
			if total != tc.wantTotal {
				t.Fatalf("total: expected %d, got %d", tc.wantTotal, total)
			}
			if fee != tc.wantFee {
				t.Fatalf("fee: expected %d, got %d", tc.wantFee, fee)
			}
			transfer := total - fee
			if fee+transfer != total {
				t.Fatalf("fee %d + transfer %d != total %d", fee, transfer, total)
			}
		})
	}
}
