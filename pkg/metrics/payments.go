package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records counters for the money-movement paths: checkout
// intents, webhook event processing, and fund-release transfers.
type PaymentMetrics struct {
	webhookEvents  *prometheus.CounterVec
	paymentIntents *prometheus.CounterVec
	transfers      *prometheus.CounterVec
	stripeDuration *prometheus.HistogramVec
}

// Webhook processing results.
const (
	ResultProcessed = "processed"
	ResultDuplicate = "duplicate"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Stripe webhook events by type and processing result.",
	}, []string{"type", "result"})
	paymentIntents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_intents_total",
		Help: "Payment intents created at checkout by result.",
	}, []string{"result"})
	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transfers_total",
		Help: "Seller fund-release transfers by result.",
	}, []string{"result"})
	stripeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stripe_request_duration_seconds",
		Help:    "Duration of outbound Stripe API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(webhookEvents, paymentIntents, transfers, stripeDuration)
	return &PaymentMetrics{
		webhookEvents:  webhookEvents,
		paymentIntents: paymentIntents,
		transfers:      transfers,
		stripeDuration: stripeDuration,
	}
}

// IncWebhookEvent increments the webhook counter for an event type and result.
func (p *PaymentMetrics) IncWebhookEvent(eventType, result string) {
	if p == nil || p.webhookEvents == nil {
		return
	}
	p.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// IncPaymentIntent increments the checkout payment-intent counter.
func (p *PaymentMetrics) IncPaymentIntent(result string) {
	if p == nil || p.paymentIntents == nil {
		return
	}
	p.paymentIntents.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncTransfer increments the fund-release transfer counter.
func (p *PaymentMetrics) IncTransfer(result string) {
	if p == nil || p.transfers == nil {
		return
	}
	p.transfers.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveStripeCall records the duration of an outbound Stripe request.
func (p *PaymentMetrics) ObserveStripeCall(operation string, duration time.Duration) {
	if p == nil || p.stripeDuration == nil {
		return
	}
	p.stripeDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
