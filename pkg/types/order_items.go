package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

// OrderItem is a single line of the order manifest that travels through the
// payment processor's metadata and is persisted on the order row.
type OrderItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// OrderItems is the manifest of purchased products for one order.
type OrderItems []OrderItem

// Encode serializes the manifest the way it is embedded in payment metadata.
func (o OrderItems) Encode() (string, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeOrderItems parses a metadata manifest back into order items.
func DecodeOrderItems(raw string) (OrderItems, error) {
	var items OrderItems
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}
