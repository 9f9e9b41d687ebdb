package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartProduct is the product snapshot the storefront sends with each cart line.
type CartProduct struct {
	Price           decimal.Decimal `json:"price"`
	SellerID        uuid.UUID       `json:"seller_id"`
	AllowShipping   bool            `json:"allow_shipping"`
	LocalPickupOnly bool            `json:"local_pickup_only"`
}

// CartItem is a single cart line: a product reference plus quantity.
type CartItem struct {
	ProductID uuid.UUID   `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Product   CartProduct `json:"product"`
}

// CreatePaymentIntentInput is the checkout request payload.
type CreatePaymentIntentInput struct {
	UserID uuid.UUID  `json:"userId"`
	Items  []CartItem `json:"items"`
}

// CreatePaymentIntentResult carries everything the storefront needs to
// confirm the payment client-side.
type CreatePaymentIntentResult struct {
	ClientSecret          string `json:"clientSecret"`
	PaymentIntentID       string `json:"paymentIntentId"`
	SellerStripeAccountID string `json:"sellerStripeAccountId"`
}
