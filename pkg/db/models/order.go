package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomashops/tomashops-backend/pkg/enums"
	"github.com/tomashops/tomashops-backend/pkg/types"
)

// Order is a buyer's confirmed purchase, created only after the payment
// processor reports a successful charge. PaymentReference is unique so
// redelivered payment events cannot materialize the same purchase twice.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	AmountCents           int64             `gorm:"column:amount_cents;not null"`
	PaymentReference      string            `gorm:"column:payment_reference;not null;uniqueIndex:idx_orders_payment_reference"`
	Status                enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending_delivery'"`
	Items                 types.OrderItems  `gorm:"column:items;type:jsonb;serializer:json"`
	SellerUserID          uuid.UUID         `gorm:"column:seller_user_id;type:uuid;not null"`
	SellerStripeAccountID string            `gorm:"column:seller_stripe_account_id;not null"`
	TransferID            *string           `gorm:"column:transfer_id"`
	DeliveredAt           *time.Time        `gorm:"column:delivered_at"`
	ReleasedAt            *time.Time        `gorm:"column:released_at"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
