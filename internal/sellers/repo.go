package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/pkg/db/models"
)

// Repository defines persistence operations for seller payout accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.SellerAccount, error)
	FindByStripeAccountID(ctx context.Context, stripeAccountID string) (*models.SellerAccount, error)
	Create(ctx context.Context, account *models.SellerAccount) (*models.SellerAccount, error)
	Update(ctx context.Context, account *models.SellerAccount) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a seller accounts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.SellerAccount, error) {
	var account models.SellerAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByStripeAccountID(ctx context.Context, stripeAccountID string) (*models.SellerAccount, error) {
	var account models.SellerAccount
	err := r.db.WithContext(ctx).
		Where("stripe_account_id = ?", stripeAccountID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) Create(ctx context.Context, account *models.SellerAccount) (*models.SellerAccount, error) {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *repository) Update(ctx context.Context, account *models.SellerAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}
