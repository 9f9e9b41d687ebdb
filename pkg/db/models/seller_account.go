package models

import (
	"time"

	"github.com/google/uuid"
)

// SellerAccount links a user to their payout account at the payment
// processor. A seller with PayoutsEnabled=false must never be selected as a
// transfer destination; only the webhook flips the flag to true.
type SellerAccount struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_seller_accounts_user_id"`
	StripeAccountID string    `gorm:"column:stripe_account_id;not null"`
	PayoutsEnabled  bool      `gorm:"column:payouts_enabled;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
