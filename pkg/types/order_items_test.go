package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOrderItemsMetadataRoundTrip(t *testing.T) {
	items := OrderItems{
		{ProductID: uuid.New(), Quantity: 2},
		{ProductID: uuid.New(), Quantity: 1},
	}

	raw, err := items.Encode()
	require.NoError(t, err)

	decoded, err := DecodeOrderItems(raw)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.Equal(t, items[0].ProductID, decoded[0].ProductID)
	require.Equal(t, 2, decoded[0].Quantity)
}

func TestDecodeOrderItemsRejectsGarbage(t *testing.T) {
	_, err := DecodeOrderItems("not json")
	require.Error(t, err)
}
