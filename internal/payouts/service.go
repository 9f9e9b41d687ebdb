package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/internal/checkout"
	"github.com/tomashops/tomashops-backend/internal/ledger"
	"github.com/tomashops/tomashops-backend/internal/orders"
	"github.com/tomashops/tomashops-backend/internal/payments"
	"github.com/tomashops/tomashops-backend/pkg/db/models"
	"github.com/tomashops/tomashops-backend/pkg/enums"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
	"github.com/tomashops/tomashops-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReleaseInput identifies the order whose escrowed funds should move to the
// seller. Callers pass either the order id or the payment reference; the
// seller id, when present, is cross-checked against the stored order.
type ReleaseInput struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	SellerID        uuid.UUID
}

// ReleaseResult reports the processor-side transfer that moved the funds.
type ReleaseResult struct {
	Success    bool   `json:"success"`
	TransferID string `json:"transferId"`
}

// Service defines the fund release operation.
type Service interface {
	Release(ctx context.Context, input ReleaseInput) (*ReleaseResult, error)
}

type ServiceParams struct {
	OrderRepo         orders.Repository
	IntentRepo        checkout.Repository
	LedgerRepo        ledger.Repository
	StripeClient      payments.PaymentClient
	TransactionRunner txRunner
	FeeRate           decimal.Decimal
	Currency          string
	Logger            *logger.Logger
	Metrics           *metrics.PaymentMetrics
}

type service struct {
	orderRepo  orders.Repository
	intentRepo checkout.Repository
	ledgerRepo ledger.Repository
	stripe     payments.PaymentClient
	txRunner   txRunner
	feeRate    decimal.Decimal
	currency   string
	logg       *logger.Logger
	metrics    *metrics.PaymentMetrics
}

// NewService builds the payout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if params.IntentRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout intent repo required")
	}
	if params.LedgerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
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
		orderRepo:  params.OrderRepo,
		intentRepo: params.IntentRepo,
		ledgerRepo: params.LedgerRepo,
		stripe:     params.StripeClient,
		txRunner:   params.TransactionRunner,
		feeRate:    params.FeeRate,
		currency:   params.Currency,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

func (s *service) Release(ctx context.Context, input ReleaseInput) (*ReleaseResult, error) {
	order, err := s.loadOrder(ctx, input)
	if err != nil {
		s.incTransfer(metrics.ResultFailed)
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if input.SellerID != uuid.Nil && input.SellerID != order.SellerUserID {
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller does not match order")
	}
	if order.Status == enums.OrderStatusReleased {
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "funds already released for order")
	}
	if order.Status != enums.OrderStatusDelivered {
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order must be delivered before funds release")
	}
	if order.SellerStripeAccountID == "" {
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order has no seller payout account")
	}

	// The processor is authoritative for the charged amount.
	piParams := &stripe.PaymentIntentParams{}
	piParams.AddExpand("latest_charge")
	intent, err := s.stripe.RetrievePaymentIntent(ctx, order.PaymentReference, piParams)
	if err != nil {
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve payment intent")
	}

	amountCents := intent.Amount
	feeCents, err := s.resolveFee(ctx, order.PaymentReference, amountCents)
	if err != nil {
		s.incTransfer(metrics.ResultFailed)
		return nil, err
	}

	transferCents := amountCents - feeCents
	if transferCents <= 0 {
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "computed transfer amount is not positive")
	}

	// The transfer must stay linked to the original charge; an unlinked
	// transfer would pull from the platform balance at large.
	if intent.LatestCharge == nil || intent.LatestCharge.ID == "" {
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment has no settled charge to fund the transfer")
	}

	transferParams := &stripe.TransferParams{
		Amount:            stripe.Int64(transferCents),
		Currency:          stripe.String(s.currency),
		Destination:       stripe.String(order.SellerStripeAccountID),
		SourceTransaction: stripe.String(intent.LatestCharge.ID),
	}

	transferResult, err := s.stripe.CreateTransfer(ctx, transferParams)
	if err != nil {
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transfer")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"transfer_id":    transferResult.ID,
		"amount_cents":   amountCents,
		"fee_cents":      feeCents,
		"transfer_cents": transferCents,
	})

	now := time.Now().UTC()
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.Update(ctx, order.ID, map[string]any{
			"status":      enums.OrderStatusReleased,
			"released_at": now,
			"transfer_id": transferResult.ID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		entry := ledger.Entry{
			OrderID:      order.ID,
			BuyerUserID:  order.UserID,
			SellerUserID: order.SellerUserID,
			Type:         enums.LedgerEventTypeFundsReleased,
			AmountCents:  transferCents,
			Metadata: map[string]string{
				"transfer_id":       transferResult.ID,
				"payment_intent_id": order.PaymentReference,
				"fee_cents":         fmt.Sprintf("%d", feeCents),
			},
		}
		return ledger.Append(ctx, s.ledgerRepo.WithTx(tx), entry)
	})
	if err != nil {
		// The money has already moved. This needs a human: the transfer
		// exists at the processor but the local order still says delivered.
		s.logg.Error(ctx, "PRIORITY: transfer sent but local release failed, manual reconciliation required", err)
		s.incTransfer(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record funds release")
	}

	s.logg.Info(ctx, "funds released to seller")
	s.incTransfer(metrics.ResultProcessed)

	return &ReleaseResult{Success: true, TransferID: transferResult.ID}, nil
}

func (s *service) loadOrder(ctx context.Context, input ReleaseInput) (*models.Order, error) {
	switch {
	case input.OrderID != uuid.Nil:
		order, err := s.orderRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		return order, nil
	case input.PaymentIntentID != "":
		order, err := s.orderRepo.FindByPaymentReference(ctx, input.PaymentIntentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		return order, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id or payment intent id required")
	}
}

// resolveFee prefers the fee recorded at charge time; recomputation with the
// configured rate is the fallback and must match what intake would have
// produced.
func (s *service) resolveFee(ctx context.Context, paymentIntentID string, amountCents int64) (int64, error) {
	draft, err := s.intentRepo.FindByPaymentIntentID(ctx, paymentIntentID)
	if err == nil {
		return draft.FeeCents, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout intent")
	}
	fee := decimal.NewFromInt(amountCents).Mul(s.feeRate).Round(0).IntPart()
	return fee, nil
}

func (s *service) incTransfer(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncTransfer(result)
}
