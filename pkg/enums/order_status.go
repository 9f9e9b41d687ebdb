package enums

import "fmt"

// OrderStatus tracks the escrow lifecycle of an order. Transitions are
// single-directional: pending_delivery -> delivered -> released, with
// cancelled reachable only before release. released and cancelled are
// terminal.
type OrderStatus string

const (
	OrderStatusPendingDelivery OrderStatus = "pending_delivery"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusReleased        OrderStatus = "released"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingDelivery,
	OrderStatusDelivered,
	OrderStatusReleased,
	OrderStatusCancelled,
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingDelivery: {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:       {OrderStatusReleased, OrderStatusCancelled},
	OrderStatusReleased:        {},
	OrderStatusCancelled:       {},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (o OrderStatus) IsTerminal() bool {
	return len(orderStatusTransitions[o]) == 0 && o.IsValid()
}

// CanTransitionTo reports whether moving to the target status is allowed.
func (o OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[o] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
