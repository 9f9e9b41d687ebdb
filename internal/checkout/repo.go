package checkout

import (
	"context"

	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/pkg/db/models"
)

// Repository defines persistence operations for checkout intent drafts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, intent *models.CheckoutIntent) (*models.CheckoutIntent, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.CheckoutIntent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout intents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, intent *models.CheckoutIntent) (*models.CheckoutIntent, error) {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.CheckoutIntent, error) {
	var intent models.CheckoutIntent
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}
