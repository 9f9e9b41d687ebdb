package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tomashops/tomashops-backend/pkg/enums"
)

// LedgerEvent is an append-only record of money movement for an order. The
// rows are the reconciliation trail when the processor and the local store
// disagree after a partial failure.
type LedgerEvent struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	BuyerUserID  uuid.UUID             `gorm:"column:buyer_user_id;type:uuid;not null"`
	SellerUserID uuid.UUID             `gorm:"column:seller_user_id;type:uuid;not null"`
	Type         enums.LedgerEventType `gorm:"column:type;type:text;not null"`
	AmountCents  int64                 `gorm:"column:amount_cents;not null"`
	Metadata     json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
