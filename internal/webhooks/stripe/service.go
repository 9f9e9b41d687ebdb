package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/internal/checkout"
	"github.com/tomashops/tomashops-backend/internal/ledger"
	"github.com/tomashops/tomashops-backend/internal/orders"
	"github.com/tomashops/tomashops-backend/internal/sellers"
	"github.com/tomashops/tomashops-backend/internal/users"
	"github.com/tomashops/tomashops-backend/pkg/db"
	"github.com/tomashops/tomashops-backend/pkg/db/models"
	"github.com/tomashops/tomashops-backend/pkg/enums"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
	"github.com/tomashops/tomashops-backend/pkg/types"
)

const ordersPaymentRefConstraint = "idx_orders_payment_reference"

// errSellerUnresolvable marks a paid event with no checkout draft and no
// usable seller metadata. No amount of redelivery fixes that payload.
var errSellerUnresolvable = errors.New("seller unresolvable from payment")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	SellerRepo        sellers.Repository
	UserRepo          users.Repository
	OrderRepo         orders.Repository
	IntentRepo        checkout.Repository
	LedgerRepo        ledger.Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
}

type Service struct {
	sellerRepo sellers.Repository
	userRepo   users.Repository
	orderRepo  orders.Repository
	intentRepo checkout.Repository
	ledgerRepo ledger.Repository
	txRunner   txRunner
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.SellerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "seller repo required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	if params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if params.IntentRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout intent repo required")
	}
	if params.LedgerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		sellerRepo: params.SellerRepo,
		userRepo:   params.UserRepo,
		orderRepo:  params.OrderRepo,
		intentRepo: params.IntentRepo,
		ledgerRepo: params.LedgerRepo,
		txRunner:   params.TransactionRunner,
		logg:       params.Logger,
	}, nil
}

// HandleEvent routes a verified Stripe event. Unknown event types are
// acknowledged without side effects so Stripe stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	ctx = s.logg.WithEventID(ctx, event.ID)

	switch event.Type {
	case stripe.EventTypeAccountUpdated:
		var account stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode account event")
		}
		return s.syncSellerAccount(ctx, &account)
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.recordPaidOrder(ctx, event.ID, &intent)
	default:
		s.logg.Info(ctx, fmt.Sprintf("ignoring stripe event type %s", event.Type))
		return nil
	}
}

// syncSellerAccount flips a seller's payout flag once Stripe reports the
// account can receive transfers. Events that cannot be tied to a known user
// are acknowledged: redelivery would never succeed.
func (s *Service) syncSellerAccount(ctx context.Context, account *stripe.Account) error {
	if account == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account payload required")
	}
	if !account.PayoutsEnabled {
		return nil
	}

	rawUserID := account.Metadata["userId"]
	if rawUserID == "" {
		s.logg.Warn(ctx, "account.updated missing userId metadata, dropping")
		return nil
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("account.updated has malformed userId %q, dropping", rawUserID))
		return nil
	}

	ctx = s.logg.WithUserID(ctx, userID.String())

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up user")
	}
	if !exists {
		s.logg.Warn(ctx, "account.updated references unknown user, dropping")
		return nil
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.sellerRepo.WithTx(tx)

		stored, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller account")
			}
			created := &models.SellerAccount{
				UserID:          userID,
				StripeAccountID: account.ID,
				PayoutsEnabled:  true,
			}
			if _, err := repo.Create(ctx, created); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create seller account")
			}
			s.logg.Info(ctx, "seller payout account registered")
			return nil
		}

		stored.StripeAccountID = account.ID
		stored.PayoutsEnabled = true
		if err := repo.Update(ctx, stored); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update seller account")
		}
		s.logg.Info(ctx, "seller payout account enabled")
		return nil
	})
}

// recordPaidOrder materializes the order for a successful charge. The unique
// payment_reference column is the DB-level backstop: a redelivered event that
// slips past the Redis guard lands on a duplicate key and is acknowledged.
func (s *Service) recordPaidOrder(ctx context.Context, eventID string, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent payload required")
	}

	rawUserID := intent.Metadata["userId"]
	rawItems := intent.Metadata["orderItems"]
	if rawUserID == "" || rawItems == "" {
		s.logg.Warn(ctx, "payment_intent.succeeded missing order metadata, dropping")
		return nil
	}
	buyerID, err := uuid.Parse(rawUserID)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("payment_intent.succeeded has malformed userId %q, dropping", rawUserID))
		return nil
	}
	items, err := types.DecodeOrderItems(rawItems)
	if err != nil {
		s.logg.Warn(ctx, "payment_intent.succeeded has malformed orderItems metadata, dropping")
		return nil
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"user_id":           buyerID.String(),
		"payment_intent_id": intent.ID,
	})

	sellerUserID, sellerAccountID, err := s.resolveSeller(ctx, intent)
	if errors.Is(err, errSellerUnresolvable) {
		// Same shape as the missing-metadata cases above: redelivery can
		// never attach a seller, so acknowledge instead of bouncing.
		return nil
	}
	if err != nil {
		return err
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)

		order := &models.Order{
			UserID:                buyerID,
			AmountCents:           intent.Amount,
			PaymentReference:      intent.ID,
			Status:                enums.OrderStatusPendingDelivery,
			Items:                 items,
			SellerUserID:          sellerUserID,
			SellerStripeAccountID: sellerAccountID,
		}
		created, err := orderRepo.Create(ctx, order)
		if err != nil {
			if db.IsUniqueViolation(err, ordersPaymentRefConstraint) {
				s.logg.Info(ctx, "order already recorded for payment, acknowledging duplicate")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		entry := ledger.Entry{
			OrderID:      created.ID,
			BuyerUserID:  buyerID,
			SellerUserID: sellerUserID,
			Type:         enums.LedgerEventTypeOrderPaid,
			AmountCents:  intent.Amount,
			Metadata: map[string]string{
				"payment_intent_id": intent.ID,
				"stripe_event_id":   eventID,
			},
		}
		if err := ledger.Append(ctx, s.ledgerRepo.WithTx(tx), entry); err != nil {
			return err
		}

		s.logg.Info(ctx, "order recorded from successful payment")
		return nil
	})
}

// resolveSeller prefers the locally stored checkout draft over round-tripped
// metadata; the draft is what intake actually computed.
func (s *Service) resolveSeller(ctx context.Context, intent *stripe.PaymentIntent) (uuid.UUID, string, error) {
	draft, err := s.intentRepo.FindByPaymentIntentID(ctx, intent.ID)
	if err == nil {
		if intent.Amount != draft.AmountCents {
			s.logg.Warn(ctx, fmt.Sprintf(
				"charged amount %d differs from checkout draft %d", intent.Amount, draft.AmountCents))
		}
		return draft.SellerUserID, draft.SellerStripeAccountID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout intent")
	}

	rawSellerID := intent.Metadata["sellerId"]
	sellerID, parseErr := uuid.Parse(rawSellerID)
	if parseErr != nil {
		s.logg.Warn(ctx, fmt.Sprintf(
			"payment_intent.succeeded has no checkout draft and unusable sellerId %q, dropping", rawSellerID))
		return uuid.Nil, "", errSellerUnresolvable
	}

	seller, err := s.sellerRepo.FindByUserID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeDependency, "seller payout account not found for paid order")
		}
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller account")
	}
	return sellerID, seller.StripeAccountID, nil
}
