package payments

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/account"
	"github.com/stripe/stripe-go/v84/accountlink"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/transfer"

	"github.com/tomashops/tomashops-backend/pkg/metrics"
	pkgstripe "github.com/tomashops/tomashops-backend/pkg/stripe"
)

// PaymentClient exposes the subset of Stripe operations required by the
// checkout, payout, and onboarding services.
type PaymentClient interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error)
	CreateAccount(ctx context.Context, params *stripe.AccountParams) (*stripe.Account, error)
	CreateAccountLink(ctx context.Context, params *stripe.AccountLinkParams) (*stripe.AccountLink, error)
}

type stripeClientWrapper struct {
	api     *pkgstripe.Client
	metrics *metrics.PaymentMetrics
}

// NewStripeClient wraps the provided Stripe client so the payment services can be tested.
func NewStripeClient(api *pkgstripe.Client, payMetrics *metrics.PaymentMetrics) PaymentClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{api: api, metrics: payMetrics}
}

func (w *stripeClientWrapper) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	callCtx, cancel := w.api.RequestContext(ctx)
	defer cancel()
	if params != nil {
		params.Context = callCtx
	}
	defer w.observe("create_payment_intent", time.Now())
	return paymentintent.New(params)
}

func (w *stripeClientWrapper) RetrievePaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	callCtx, cancel := w.api.RequestContext(ctx)
	defer cancel()
	if params == nil {
		params = &stripe.PaymentIntentParams{}
	}
	params.Context = callCtx
	defer w.observe("retrieve_payment_intent", time.Now())
	return paymentintent.Get(id, params)
}

func (w *stripeClientWrapper) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	callCtx, cancel := w.api.RequestContext(ctx)
	defer cancel()
	if params != nil {
		params.Context = callCtx
	}
	defer w.observe("create_transfer", time.Now())
	return transfer.New(params)
}

func (w *stripeClientWrapper) CreateAccount(ctx context.Context, params *stripe.AccountParams) (*stripe.Account, error) {
	callCtx, cancel := w.api.RequestContext(ctx)
	defer cancel()
	if params != nil {
		params.Context = callCtx
	}
	defer w.observe("create_account", time.Now())
	return account.New(params)
}

func (w *stripeClientWrapper) CreateAccountLink(ctx context.Context, params *stripe.AccountLinkParams) (*stripe.AccountLink, error) {
	callCtx, cancel := w.api.RequestContext(ctx)
	defer cancel()
	if params != nil {
		params.Context = callCtx
	}
	defer w.observe("create_account_link", time.Now())
	return accountlink.New(params)
}

func (w *stripeClientWrapper) observe(operation string, start time.Time) {
	if w.metrics == nil {
		return
	}
	w.metrics.ObserveStripeCall(operation, time.Since(start))
}
