package sellers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/internal/payments"
	"github.com/tomashops/tomashops-backend/internal/users"
	"github.com/tomashops/tomashops-backend/pkg/config"
	"github.com/tomashops/tomashops-backend/pkg/db/models"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
)

// OnboardInput carries the data required to start payout onboarding.
type OnboardInput struct {
	UserID uuid.UUID
	Email  string
}

// OnboardResult is returned to the client so it can redirect the seller
// into the hosted onboarding flow.
type OnboardResult struct {
	AccountID   string `json:"accountId"`
	AccountLink string `json:"accountLink"`
}

// Service defines seller payout onboarding operations.
type Service interface {
	Onboard(ctx context.Context, input OnboardInput) (*OnboardResult, error)
}

type ServiceParams struct {
	SellerRepo   Repository
	UserRepo     users.Repository
	StripeClient payments.PaymentClient
	StripeCfg    config.StripeConfig
	Logger       *logger.Logger
}

type service struct {
	sellerRepo Repository
	userRepo   users.Repository
	stripe     payments.PaymentClient
	stripeCfg  config.StripeConfig
	logg       *logger.Logger
}

// NewService builds the seller onboarding service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.SellerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "seller repo required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		sellerRepo: params.SellerRepo,
		userRepo:   params.UserRepo,
		stripe:     params.StripeClient,
		stripeCfg:  params.StripeCfg,
		logg:       params.Logger,
	}, nil
}

func (s *service) Onboard(ctx context.Context, input OnboardInput) (*OnboardResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	exists, err := s.userRepo.Exists(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up user")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	accountID, err := s.resolveAccountID(ctx, input)
	if err != nil {
		return nil, err
	}

	linkParams := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		ReturnURL:  stripe.String(s.stripeCfg.OnboardingReturnURL),
		RefreshURL: stripe.String(s.stripeCfg.OnboardingRefreshURL),
		Type:       stripe.String("account_onboarding"),
	}
	link, err := s.stripe.CreateAccountLink(ctx, linkParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account link")
	}

	s.logg.Info(ctx, "seller onboarding link issued")
	return &OnboardResult{
		AccountID:   accountID,
		AccountLink: link.URL,
	}, nil
}

// resolveAccountID reuses an existing payout account for the seller so
// repeated onboarding attempts do not mint duplicate Stripe accounts.
func (s *service) resolveAccountID(ctx context.Context, input OnboardInput) (string, error) {
	existing, err := s.sellerRepo.FindByUserID(ctx, input.UserID)
	if err == nil {
		return existing.StripeAccountID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up seller account")
	}

	accountParams := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(input.Email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	accountParams.AddMetadata("userId", input.UserID.String())

	acct, err := s.stripe.CreateAccount(ctx, accountParams)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout account")
	}

	// Pending until the processor reports payouts_enabled via webhook.
	row := &models.SellerAccount{
		UserID:          input.UserID,
		StripeAccountID: acct.ID,
		PayoutsEnabled:  false,
	}
	if _, err := s.sellerRepo.Create(ctx, row); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist seller account")
	}

	return acct.ID, nil
}
