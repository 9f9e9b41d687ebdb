package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomashops/tomashops-backend/api/controllers"
	webhookcontrollers "github.com/tomashops/tomashops-backend/api/controllers/webhooks"
	"github.com/tomashops/tomashops-backend/api/middleware"
	checkoutsvc "github.com/tomashops/tomashops-backend/internal/checkout"
	ordersvc "github.com/tomashops/tomashops-backend/internal/orders"
	payoutsvc "github.com/tomashops/tomashops-backend/internal/payouts"
	sellersvc "github.com/tomashops/tomashops-backend/internal/sellers"
	stripewebhook "github.com/tomashops/tomashops-backend/internal/webhooks/stripe"
	"github.com/tomashops/tomashops-backend/pkg/config"
	"github.com/tomashops/tomashops-backend/pkg/db"
	"github.com/tomashops/tomashops-backend/pkg/logger"
	"github.com/tomashops/tomashops-backend/pkg/metrics"
	"github.com/tomashops/tomashops-backend/pkg/redis"
	"github.com/tomashops/tomashops-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	sellerService sellersvc.Service,
	orderService ordersvc.Service,
	payoutService payoutsvc.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
	paymentMetrics *metrics.PaymentMetrics,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, paymentMetrics, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout/payment-intent", controllers.CreatePaymentIntent(checkoutService, logg))
		r.Post("/sellers/onboard", controllers.OnboardSeller(sellerService, logg))
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(orderService, logg))
			r.Post("/release", controllers.ReleaseFunds(payoutService, logg))
			r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
			r.Post("/{orderId}/delivered", controllers.MarkOrderDelivered(orderService, logg))
		})
	})

	return r
}
