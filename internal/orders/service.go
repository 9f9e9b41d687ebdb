package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/pkg/db/models"
	"github.com/tomashops/tomashops-backend/pkg/enums"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MarkDeliveredInput captures the delivery confirmation request.
type MarkDeliveredInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
}

// Service defines order read and lifecycle operations.
type Service interface {
	MarkDelivered(ctx context.Context, input MarkDeliveredInput) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
}

type service struct {
	repo     Repository
	txRunner txRunner
	logg     *logger.Logger
}

// NewService builds the orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
	}, nil
}

// MarkDelivered flips an order to delivered, unlocking fund release. Only the
// buyer who placed the order may confirm, and only from pending_delivery.
func (s *service) MarkDelivered(ctx context.Context, input MarkDeliveredInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())

	var updated *models.Order
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		// Hide other buyers' orders rather than confirming they exist.
		if order.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusDelivered) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be marked delivered in current state")
		}

		now := time.Now().UTC()
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusDelivered,
			"delivered_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		order.Status = enums.OrderStatusDelivered
		order.DeliveredAt = &now
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "order marked delivered")
	return updated, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
