package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomashops/tomashops-backend/pkg/types"
)

// CheckoutIntent is the local record written when a payment hold is requested,
// before the processor confirms the charge. It lets the webhook reconcile an
// incoming payment against what intake actually computed instead of trusting
// round-tripped metadata as the sole source of truth.
type CheckoutIntent struct {
	ID                    uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentIntentID       string           `gorm:"column:payment_intent_id;not null;uniqueIndex:idx_checkout_intents_payment_intent_id"`
	BuyerUserID           uuid.UUID        `gorm:"column:buyer_user_id;type:uuid;not null"`
	SellerUserID          uuid.UUID        `gorm:"column:seller_user_id;type:uuid;not null"`
	SellerStripeAccountID string           `gorm:"column:seller_stripe_account_id;not null"`
	AmountCents           int64            `gorm:"column:amount_cents;not null"`
	FeeCents              int64            `gorm:"column:fee_cents;not null"`
	Items                 types.OrderItems `gorm:"column:items;type:jsonb;serializer:json"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
}
