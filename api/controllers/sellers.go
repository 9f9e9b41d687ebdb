package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tomashops/tomashops-backend/api/responses"
	"github.com/tomashops/tomashops-backend/api/validators"
	sellersvc "github.com/tomashops/tomashops-backend/internal/sellers"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
)

// OnboardSeller creates (or reuses) a payout account for the seller and
// returns a hosted onboarding link.
func OnboardSeller(svc sellersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seller service unavailable"))
			return
		}

		var payload onboardSellerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Onboard(r.Context(), sellersvc.OnboardInput{
			UserID: payload.UserID,
			Email:  payload.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type onboardSellerRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Email  string    `json:"email" validate:"required,email"`
}
