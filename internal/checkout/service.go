package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/internal/payments"
	"github.com/tomashops/tomashops-backend/internal/sellers"
	"github.com/tomashops/tomashops-backend/pkg/db/models"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
	"github.com/tomashops/tomashops-backend/pkg/metrics"
	"github.com/tomashops/tomashops-backend/pkg/types"
)

// Metadata keys round-tripped through the payment processor.
const (
	metadataKeyUserID     = "userId"
	metadataKeySellerID   = "sellerId"
	metadataKeyOrderItems = "orderItems"
)

// Service defines the order intake operations.
type Service interface {
	CreatePaymentIntent(ctx context.Context, input CreatePaymentIntentInput) (*CreatePaymentIntentResult, error)
}

type ServiceParams struct {
	IntentRepo   Repository
	SellerRepo   sellers.Repository
	StripeClient payments.PaymentClient
	FeeRate      decimal.Decimal
	Currency     string
	Logger       *logger.Logger
	Metrics      *metrics.PaymentMetrics
}

type service struct {
	intentRepo Repository
	sellerRepo sellers.Repository
	stripe     payments.PaymentClient
	feeRate    decimal.Decimal
	currency   string
	logg       *logger.Logger
	metrics    *metrics.PaymentMetrics
}

// NewService builds the checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.IntentRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout intent repo required")
	}
	if params.SellerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "seller repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.FeeRate.IsNegative() || params.FeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee rate out of range")
	}
	if params.Currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "currency required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		intentRepo: params.IntentRepo,
		sellerRepo: params.SellerRepo,
		stripe:     params.StripeClient,
		feeRate:    params.FeeRate,
		currency:   params.Currency,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

func (s *service) CreatePaymentIntent(ctx context.Context, input CreatePaymentIntentInput) (*CreatePaymentIntentResult, error) {
	sellerID, err := validateCart(input)
	if err != nil {
		s.incIntent(metrics.ResultFailed)
		return nil, err
	}

	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	seller, err := s.lookupSeller(ctx, sellerID)
	if err != nil {
		s.incIntent(metrics.ResultFailed)
		return nil, err
	}

	totalCents, feeCents := ComputeTotals(input.Items, s.feeRate)
	if totalCents <= 0 {
		s.incIntent(metrics.ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must be positive")
	}

	manifest := make(types.OrderItems, 0, len(input.Items))
	for _, item := range input.Items {
		manifest = append(manifest, types.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	encodedItems, err := manifest.Encode()
	if err != nil {
		s.incIntent(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order items")
	}

	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(totalCents),
		Currency:             stripe.String(s.currency),
		ApplicationFeeAmount: stripe.Int64(feeCents),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(seller.StripeAccountID),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata(metadataKeyUserID, input.UserID.String())
	params.AddMetadata(metadataKeySellerID, sellerID.String())
	params.AddMetadata(metadataKeyOrderItems, encodedItems)

	intent, err := s.stripe.CreatePaymentIntent(ctx, params)
	if err != nil {
		s.incIntent(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	// Local draft so the webhook can reconcile the incoming payment against
	// what intake actually computed, not just round-tripped metadata.
	draft := &models.CheckoutIntent{
		PaymentIntentID:       intent.ID,
		BuyerUserID:           input.UserID,
		SellerUserID:          sellerID,
		SellerStripeAccountID: seller.StripeAccountID,
		AmountCents:           totalCents,
		FeeCents:              feeCents,
		Items:                 manifest,
	}
	if _, err := s.intentRepo.Create(ctx, draft); err != nil {
		s.incIntent(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout intent")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"payment_intent_id": intent.ID,
		"amount_cents":      totalCents,
		"fee_cents":         feeCents,
	})
	s.logg.Info(ctx, "payment intent created")
	s.incIntent(metrics.ResultProcessed)

	return &CreatePaymentIntentResult{
		ClientSecret:          intent.ClientSecret,
		PaymentIntentID:       intent.ID,
		SellerStripeAccountID: seller.StripeAccountID,
	}, nil
}

// validateCart enforces the single-seller, shippable-cart rules and returns
// the cart's seller.
func validateCart(input CreatePaymentIntentInput) (uuid.UUID, error) {
	if input.UserID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Items) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	sellerID := input.Items[0].Product.SellerID
	allPickupOnly := true
	anyShippable := false

	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.Product.Price.IsNegative() {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
		}
		if item.Product.SellerID == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "item seller required")
		}
		if item.Product.SellerID != sellerID {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout with items from multiple sellers is not yet supported")
		}
		if !item.Product.LocalPickupOnly {
			allPickupOnly = false
		}
		if item.Product.AllowShipping {
			anyShippable = true
		}
	}

	if allPickupOnly {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "no payment needed for local transactions")
	}
	if !anyShippable {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "no shippable items found in cart")
	}

	return sellerID, nil
}

// lookupSeller resolves the payout destination. A missing or not-yet-enabled
// payout account is a platform configuration problem, not a caller mistake.
func (s *service) lookupSeller(ctx context.Context, sellerID uuid.UUID) (*models.SellerAccount, error) {
	seller, err := s.sellerRepo.FindByUserID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not find seller payment information")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up seller account")
	}
	if !seller.PayoutsEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not find seller payment information")
	}
	return seller, nil
}

func (s *service) incIntent(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncPaymentIntent(result)
}
