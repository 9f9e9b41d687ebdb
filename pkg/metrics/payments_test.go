package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPaymentMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPaymentMetrics(reg)
	metrics.IncWebhookEvent("payment_intent.succeeded", ResultProcessed)
	metrics.IncWebhookEvent("payment_intent.succeeded", ResultDuplicate)
	metrics.IncPaymentIntent(ResultProcessed)
	metrics.IncTransfer(ResultFailed)
	metrics.ObserveStripeCall("create_transfer", 250*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "webhook_events_total", "result", ResultProcessed); err != nil {
		t.Fatalf("fetch webhook processed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected processed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "webhook_events_total", "result", ResultDuplicate); err != nil {
		t.Fatalf("fetch webhook duplicate: %v", err)
	} else if got != 1 {
		t.Fatalf("expected duplicate=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "transfers_total", "result", ResultFailed); err != nil {
		t.Fatalf("fetch transfer failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "stripe_request_duration_seconds", "operation", "create_transfer"); err != nil {
		t.Fatalf("fetch stripe duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPaymentMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewPaymentMetrics(nil)
	metrics.IncWebhookEvent("account.updated", ResultSkipped)
	metrics.IncPaymentIntent(ResultProcessed)
	metrics.IncTransfer(ResultProcessed)
	metrics.ObserveStripeCall("create_account", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
