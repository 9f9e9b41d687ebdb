package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomashops/tomashops-backend/api/responses"
	"github.com/tomashops/tomashops-backend/api/validators"
	ordersvc "github.com/tomashops/tomashops-backend/internal/orders"
	payoutsvc "github.com/tomashops/tomashops-backend/internal/payouts"
	"github.com/tomashops/tomashops-backend/pkg/db/models"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
	"github.com/tomashops/tomashops-backend/pkg/logger"
	"github.com/tomashops/tomashops-backend/pkg/types"
)

// ListOrders returns the caller's orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user_id query parameter required"))
			return
		}

		orders, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(orders))
		for i := range orders {
			out = append(out, newOrderResponse(&orders[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetOrder returns one order by id.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// MarkOrderDelivered records the buyer's delivery confirmation.
func MarkOrderDelivered(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		var payload markDeliveredRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkDelivered(r.Context(), ordersvc.MarkDeliveredInput{
			OrderID: orderID,
			UserID:  payload.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// ReleaseFunds transfers the escrowed amount minus the platform fee to the
// seller of a delivered order.
func ReleaseFunds(svc payoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		var payload releaseFundsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payoutsvc.ReleaseInput{PaymentIntentID: payload.PaymentIntentID}
		if payload.OrderID != nil {
			input.OrderID = *payload.OrderID
		}
		if payload.SellerID != nil {
			input.SellerID = *payload.SellerID
		}

		result, err := svc.Release(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type markDeliveredRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}

type releaseFundsRequest struct {
	OrderID         *uuid.UUID `json:"orderId,omitempty"`
	PaymentIntentID string     `json:"paymentIntentId,omitempty"`
	SellerID        *uuid.UUID `json:"sellerId,omitempty"`
}

type orderResponse struct {
	OrderID          uuid.UUID        `json:"order_id"`
	UserID           uuid.UUID        `json:"user_id"`
	AmountCents      int64            `json:"amount_cents"`
	PaymentReference string           `json:"payment_reference"`
	Status           string           `json:"status"`
	Items            types.OrderItems `json:"items"`
	SellerUserID     uuid.UUID        `json:"seller_user_id"`
	TransferID       *string          `json:"transfer_id,omitempty"`
	DeliveredAt      *time.Time       `json:"delivered_at,omitempty"`
	ReleasedAt       *time.Time       `json:"released_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	return orderResponse{
		OrderID:          order.ID,
		UserID:           order.UserID,
		AmountCents:      order.AmountCents,
		PaymentReference: order.PaymentReference,
		Status:           string(order.Status),
		Items:            order.Items,
		SellerUserID:     order.SellerUserID,
		TransferID:       order.TransferID,
		DeliveredAt:      order.DeliveredAt,
		ReleasedAt:       order.ReleasedAt,
		CreatedAt:        order.CreatedAt,
	}
}
