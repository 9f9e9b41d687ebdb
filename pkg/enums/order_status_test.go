package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPendingDelivery, OrderStatusDelivered, true},
		{OrderStatusPendingDelivery, OrderStatusCancelled, true},
		{OrderStatusPendingDelivery, OrderStatusReleased, false},
		{OrderStatusDelivered, OrderStatusReleased, true},
		{OrderStatusDelivered, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusPendingDelivery, false},
		{OrderStatusReleased, OrderStatusCancelled, false},
		{OrderStatusReleased, OrderStatusDelivered, false},
		{OrderStatusCancelled, OrderStatusDelivered, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusReleased.IsTerminal() {
		t.Fatal("released should be terminal")
	}
	if !OrderStatusCancelled.IsTerminal() {
		t.Fatal("cancelled should be terminal")
	}
	if OrderStatusPendingDelivery.IsTerminal() {
		t.Fatal("pending_delivery should not be terminal")
	}
	if OrderStatus("bogus").IsTerminal() {
		t.Fatal("unknown status should not report terminal")
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("delivered")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", status)
	}

	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
