package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	checkoutsvc "github.com/tomashops/tomashops-backend/internal/checkout"
	ordersvc "github.com/tomashops/tomashops-backend/internal/orders"
	payoutsvc "github.com/tomashops/tomashops-backend/internal/payouts"
	sellersvc "github.com/tomashops/tomashops-backend/internal/sellers"
	"github.com/tomashops/tomashops-backend/pkg/config"
	"github.com/tomashops/tomashops-backend/pkg/db/models"
	"github.com/tomashops/tomashops-backend/pkg/logger"
	"github.com/tomashops/tomashops-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCheckoutService struct {
	created int
}

func (s *stubCheckoutService) CreatePaymentIntent(ctx context.Context, input checkoutsvc.CreatePaymentIntentInput) (*checkoutsvc.CreatePaymentIntentResult, error) {
	s.created++
	return &checkoutsvc.CreatePaymentIntentResult{
		ClientSecret:    "pi_secret",
		PaymentIntentID: "pi_123",
	}, nil
}

type stubSellerService struct{}

func (stubSellerService) Onboard(ctx context.Context, input sellersvc.OnboardInput) (*sellersvc.OnboardResult, error) {
	return &sellersvc.OnboardResult{AccountID: "acct_123", AccountLink: "https://connect.stripe.com/setup"}, nil
}

type stubOrderService struct{}

func (stubOrderService) MarkDelivered(ctx context.Context, input ordersvc.MarkDeliveredInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID}, nil
}

func (stubOrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (stubOrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

type stubPayoutService struct{}

func (stubPayoutService) Release(ctx context.Context, input payoutsvc.ReleaseInput) (*payoutsvc.ReleaseResult, error) {
	return &payoutsvc.ReleaseResult{Success: true, TransferID: "tr_123"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(cfg *config.Config, checkoutService checkoutsvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		checkoutService,
		stubSellerService{},
		stubOrderService{},
		stubPayoutService{},
		nil, // stripe client: webhook route nil-guards
		nil,
		nil,
		nil,
		nil,
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCheckoutService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness check got %d", resp.Code)
	}
	if resp.Header().Get("X-TomaShops-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-TomaShops-Env"))
	}
}

func TestCheckoutRejectsBadJSON(t *testing.T) {
	svc := &stubCheckoutService{}
	router := newTestRouter(testConfig(), svc)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/payment-intent", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
	if svc.created != 0 {
		t.Fatalf("service should not be invoked on invalid payload")
	}
}

func TestCheckoutAcceptsValidCart(t *testing.T) {
	svc := &stubCheckoutService{}
	router := newTestRouter(testConfig(), svc)
	body := `{
		"userId": "` + uuid.NewString() + `",
		"items": [
			{
				"product_id": "` + uuid.NewString() + `",
				"quantity": 1,
				"product": {
					"price": "19.99",
					"seller_id": "` + uuid.NewString() + `",
					"allow_shipping": true,
					"local_pickup_only": false
				}
			}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/payment-intent", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid cart got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.created != 1 {
		t.Fatalf("expected checkout service invoked once, got %d", svc.created)
	}
}

func TestOrderRoutesValidateIDs(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCheckoutService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed order id got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders?user_id=nope", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed user id got %d", resp.Code)
	}
}

func TestMarkDeliveredRoute(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCheckoutService{})
	body := `{"userId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/delivered", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for delivery confirmation got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestReleaseFundsRoute(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCheckoutService{})
	body := `{"paymentIntentId":"pi_123","sellerId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/release", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for release got %d (%s)", resp.Code, resp.Body.String())
	}
}
