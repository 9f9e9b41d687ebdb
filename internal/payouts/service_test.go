package payouts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/internal/checkout"
	"github.com/tomashops/tomashops-backend/internal/ledger"
	"github.com/tomashops/tomashops-backend/internal/orders"
	"github.com/tomashops/tomashops-backend/pkg/db/models"
	"github.com/tomashops/tomashops-backend/pkg/enums"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

type fixture struct {
	orderRepo  *stubOrderRepo
	intentRepo *stubIntentRepo
	ledgerRepo *stubLedgerRepo
	client     *stubPaymentClient
	service    Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orderRepo:  &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}},
		intentRepo: &stubIntentRepo{},
		ledgerRepo: &stubLedgerRepo{},
		client:     &stubPaymentClient{},
	}
	svc, err := NewService(ServiceParams{
		OrderRepo:         f.orderRepo,
		IntentRepo:        f.intentRepo,
		LedgerRepo:        f.ledgerRepo,
		StripeClient:      f.client,
		TransactionRunner: &stubTxRunner{},
		FeeRate:           decimal.RequireFromString("0.05"),
		Currency:          "usd",
		Logger:            testLogger(),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	f.service = svc
	return f
}

func deliveredOrder(paymentRef string, amountCents int64) *models.Order {
	return &models.Order{
		ID:                    uuid.New(),
		UserID:                uuid.New(),
		AmountCents:           amountCents,
		PaymentReference:      paymentRef,
		Status:                enums.OrderStatusDelivered,
		SellerUserID:          uuid.New(),
		SellerStripeAccountID: "acct_seller",
	}
}

func TestService_ReleaseTransfersAmountMinusFee(t *testing.T) {
	f := newFixture(t)
	order := deliveredOrder("pi_release", 9998)
	f.orderRepo.orders[order.ID] = order
	f.intentRepo.intent = &models.CheckoutIntent{
		PaymentIntentID: "pi_release",
		AmountCents:     9998,
		FeeCents:        500,
	}
	f.client.retrieveResp = &stripe.PaymentIntent{
		ID:           "pi_release",
		Amount:       9998,
		LatestCharge: &stripe.Charge{ID: "ch_1"},
	}

	result, err := f.service.Release(context.Background(), ReleaseInput{
		PaymentIntentID: "pi_release",
		SellerID:        order.SellerUserID,
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !result.Success || result.TransferID == "" {
		t.Fatalf("unexpected result %+v", result)
	}

	if f.client.transferParams == nil {
		t.Fatalf("expected transfer created")
	}
	if got := *f.client.transferParams.Amount; got != 9498 {
		t.Fatalf("expected transfer 9498, got %d", got)
	}
	if got := *f.client.transferParams.Destination; got != "acct_seller" {
		t.Fatalf("expected destination acct_seller, got %s", got)
	}
	if got := *f.client.transferParams.SourceTransaction; got != "ch_1" {
		t.Fatalf("expected source transaction ch_1, got %s", got)
	}

	if len(f.orderRepo.updates) != 1 {
		t.Fatalf("expected order update")
	}
	if status := f.orderRepo.updates[0]["status"]; status != enums.OrderStatusReleased {
		t.Fatalf("expected released status, got %v", status)
	}
	if len(f.ledgerRepo.events) != 1 || f.ledgerRepo.events[0].Type != enums.LedgerEventTypeFundsReleased {
		t.Fatalf("expected funds_released ledger event")
	}
}

func TestService_ReleaseRecomputesFeeWithoutDraft(t *testing.T) {
	f := newFixture(t)
	order := deliveredOrder("pi_nodraft", 1000)
	f.orderRepo.orders[order.ID] = order
	f.client.retrieveResp = &stripe.PaymentIntent{
		ID:           "pi_nodraft",
		Amount:       1000,
		LatestCharge: &stripe.Charge{ID: "ch_nodraft"},
	}

	if _, err := f.service.Release(context.Background(), ReleaseInput{OrderID: order.ID}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := *f.client.transferParams.Amount; got != 950 {
		t.Fatalf("expected transfer 950, got %d", got)
	}
	if got := *f.client.transferParams.SourceTransaction; got != "ch_nodraft" {
		t.Fatalf("expected source transaction ch_nodraft, got %s", got)
	}
}

func TestService_ReleaseFailsWithoutSettledCharge(t *testing.T) {
	cases := []struct {
		name   string
		charge *stripe.Charge
	}{
		{name: "nil charge", charge: nil},
		{name: "empty charge id", charge: &stripe.Charge{}},
	}

	for _, tc := range cases {
		f := newFixture(t)
		order := deliveredOrder("pi_nocharge", 1000)
		f.orderRepo.orders[order.ID] = order
		f.client.retrieveResp = &stripe.PaymentIntent{
			ID:           "pi_nocharge",
			Amount:       1000,
			LatestCharge: tc.charge,
		}

		_, err := f.service.Release(context.Background(), ReleaseInput{OrderID: order.ID})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeInternal {
			t.Fatalf("%s: expected internal error, got %v", tc.name, err)
		}
		if f.client.transferCalls != 0 {
			t.Fatalf("%s: expected no unlinked transfer attempt", tc.name)
		}
		if len(f.orderRepo.updates) != 0 {
			t.Fatalf("%s: expected order untouched", tc.name)
		}
	}
}

func TestService_ReleaseRejectsUndeliveredAndReleasedOrders(t *testing.T) {
	cases := []struct {
		status enums.OrderStatus
	}{
		{enums.OrderStatusPendingDelivery},
		{enums.OrderStatusReleased},
		{enums.OrderStatusCancelled},
	}

	for _, tc := range cases {
		f := newFixture(t)
		order := deliveredOrder("pi_state", 1000)
		order.Status = tc.status
		f.orderRepo.orders[order.ID] = order

		_, err := f.service.Release(context.Background(), ReleaseInput{OrderID: order.ID})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("status %s: expected state conflict, got %v", tc.status, err)
		}
		if f.client.transferCalls != 0 {
			t.Fatalf("status %s: expected no transfer attempt", tc.status)
		}
	}
}

func TestService_ReleaseUnknownOrderIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Release(context.Background(), ReleaseInput{PaymentIntentID: "pi_missing"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_ReleaseRejectsSellerMismatch(t *testing.T) {
	f := newFixture(t)
	order := deliveredOrder("pi_mismatch", 1000)
	f.orderRepo.orders[order.ID] = order

	_, err := f.service.Release(context.Background(), ReleaseInput{
		OrderID:  order.ID,
		SellerID: uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_ReleaseSurfacesDBFailureAfterTransfer(t *testing.T) {
	f := newFixture(t)
	order := deliveredOrder("pi_dbfail", 1000)
	f.orderRepo.orders[order.ID] = order
	f.orderRepo.updateErr = errors.New("connection reset")
	f.client.retrieveResp = &stripe.PaymentIntent{
		ID:           "pi_dbfail",
		Amount:       1000,
		LatestCharge: &stripe.Charge{ID: "ch_dbfail"},
	}

	_, err := f.service.Release(context.Background(), ReleaseInput{OrderID: order.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if f.client.transferCalls != 1 {
		t.Fatalf("expected transfer to have been sent")
	}
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderRepo struct {
	orders    map[uuid.UUID]*models.Order
	updates   []map[string]any
	updateErr error
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) FindByPaymentReference(ctx context.Context, paymentReference string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.PaymentReference == paymentReference {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, updates)
	return nil
}

type stubIntentRepo struct {
	intent *models.CheckoutIntent
}

func (s *stubIntentRepo) WithTx(tx *gorm.DB) checkout.Repository { return s }

func (s *stubIntentRepo) Create(ctx context.Context, intent *models.CheckoutIntent) (*models.CheckoutIntent, error) {
	s.intent = intent
	return intent, nil
}

func (s *stubIntentRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.CheckoutIntent, error) {
	if s.intent == nil || s.intent.PaymentIntentID != paymentIntentID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.intent, nil
}

type stubLedgerRepo struct {
	events []*models.LedgerEvent
}

func (s *stubLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return s }

func (s *stubLedgerRepo) Append(ctx context.Context, event *models.LedgerEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubLedgerRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error) {
	return nil, nil
}

type stubPaymentClient struct {
	retrieveResp   *stripe.PaymentIntent
	retrieveErr    error
	transferParams *stripe.TransferParams
	transferCalls  int
	transferErr    error
}

func (s *stubPaymentClient) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return nil, nil
}

func (s *stubPaymentClient) RetrievePaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if s.retrieveErr != nil {
		return nil, s.retrieveErr
	}
	if s.retrieveResp != nil {
		return s.retrieveResp, nil
	}
	return &stripe.PaymentIntent{ID: id, Amount: 1000}, nil
}

func (s *stubPaymentClient) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	s.transferCalls++
	if s.transferErr != nil {
		return nil, s.transferErr
	}
	s.transferParams = params
	return &stripe.Transfer{ID: "tr_test", Amount: *params.Amount}, nil
}

func (s *stubPaymentClient) CreateAccount(ctx context.Context, params *stripe.AccountParams) (*stripe.Account, error) {
	return nil, nil
}

func (s *stubPaymentClient) CreateAccountLink(ctx context.Context, params *stripe.AccountLinkParams) (*stripe.AccountLink, error) {
	return nil, nil
}
