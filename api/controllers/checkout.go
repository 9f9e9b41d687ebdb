package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomashops/tomashops-backend/api/responses"
	"github.com/tomashops/tomashops-backend/api/validators"
	checkoutsvc "github.com/tomashops/tomashops-backend/internal/checkout"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
)

// CreatePaymentIntent starts checkout: validates the cart and asks the
// processor to hold the buyer's payment with the platform fee split out.
func CreatePaymentIntent(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createPaymentIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreatePaymentIntent(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type createPaymentIntentRequest struct {
	UserID uuid.UUID         `json:"userId" validate:"required"`
	Items  []cartItemRequest `json:"items" validate:"required,min=1,dive"`
}

type cartItemRequest struct {
	ProductID uuid.UUID          `json:"product_id" validate:"required"`
	Quantity  int                `json:"quantity" validate:"required,min=1"`
	Product   cartProductRequest `json:"product" validate:"required"`
}

type cartProductRequest struct {
	Price           decimal.Decimal `json:"price"`
	SellerID        uuid.UUID       `json:"seller_id" validate:"required"`
	AllowShipping   bool            `json:"allow_shipping"`
	LocalPickupOnly bool            `json:"local_pickup_only"`
}

func (r createPaymentIntentRequest) toInput() checkoutsvc.CreatePaymentIntentInput {
	items := make([]checkoutsvc.CartItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, checkoutsvc.CartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product: checkoutsvc.CartProduct{
				Price:           item.Product.Price,
				SellerID:        item.Product.SellerID,
				AllowShipping:   item.Product.AllowShipping,
				LocalPickupOnly: item.Product.LocalPickupOnly,
			},
		})
	}
	return checkoutsvc.CreatePaymentIntentInput{
		UserID: r.UserID,
		Items:  items,
	}
}
