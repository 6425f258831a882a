package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

func testProducts() map[uint]*model.Product {
	return map[uint]*model.Product{
		1: {ID: 1, SKU: "GPU-1", Name: "Graphics Card", Price: 899.99, Stock: 2,
			Images: model.ImageList{"gpu.jpg"}, IsActive: true},
		2: {ID: 2, SKU: "PSU-1", Name: "Power Supply", Price: 129.50, Stock: 10, IsActive: true},
	}
}

func TestBuildOrderLinesSnapshotsAndTotal(t *testing.T) {
	cart := model.CartLines{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}

	items, total, err := buildOrderLines(cart, testProducts())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, model.OrderLine{
		ProductID: 1, SKU: "GPU-1", Name: "Graphics Card",
		Price: 899.99, Image: "gpu.jpg", Quantity: 2,
	}, items[0])
	assert.Equal(t, "PSU-1", items[1].SKU)
	assert.Equal(t, "", items[1].Image)
	assert.InDelta(t, 899.99*2+129.50, total, 1e-9)
}

func TestBuildOrderLinesInsufficientStock(t *testing.T) {
	cart := model.CartLines{{ProductID: 1, Quantity: 3}} // only 2 in stock

	_, _, err := buildOrderLines(cart, testProducts())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "GPU-1")
}

func TestBuildOrderLinesMissingProduct(t *testing.T) {
	cart := model.CartLines{{ProductID: 99, Quantity: 1}}

	_, _, err := buildOrderLines(cart, testProducts())
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestBuildOrderLinesInactiveProduct(t *testing.T) {
	products := testProducts()
	products[1].IsActive = false
	cart := model.CartLines{{ProductID: 1, Quantity: 1}}

	_, _, err := buildOrderLines(cart, products)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestOrderLineSnapshotIsImmutable(t *testing.T) {
	products := testProducts()
	cart := model.CartLines{{ProductID: 1, Quantity: 2}}

	items, _, err := buildOrderLines(cart, products)
	require.NoError(t, err)

	// Later catalog edits must not show through on the snapshot.
	products[1].Name = "Renamed Card"
	products[1].Price = 1.00
	products[1].SKU = "GPU-2"
	products[1].Images[0] = "other.jpg"

	assert.Equal(t, "Graphics Card", items[0].Name)
	assert.Equal(t, 899.99, items[0].Price)
	assert.Equal(t, "GPU-1", items[0].SKU)
	assert.Equal(t, "gpu.jpg", items[0].Image)
}

func TestValidateShippingInfo(t *testing.T) {
	require.NoError(t, validateShippingInfo("42 Main Street, Springfield", "+1 555-0100"))
	require.NoError(t, validateShippingInfo("  1 Long Enough Road  ", "0812345678"))

	cases := []struct {
		name    string
		address string
		phone   string
	}{
		{"empty address", "", "+1 555-0100"},
		{"short address", "short", "+1 555-0100"},
		{"empty phone", "42 Main Street, Springfield", ""},
		{"alpha phone", "42 Main Street, Springfield", "call-me-maybe"},
		{"too short phone", "42 Main Street, Springfield", "123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateShippingInfo(tc.address, tc.phone)
			assert.ErrorIs(t, err, ErrInvalidShippingInfo)
		})
	}
}

func TestOrderStatusCancellable(t *testing.T) {
	cancellable := map[model.OrderStatus]bool{
		model.OrderStatusPending:   true,
		model.OrderStatusConfirmed: true,
		model.OrderStatusShipped:   false,
		model.OrderStatusDelivered: false,
		model.OrderStatusCancelled: false,
		model.OrderStatusReturned:  false,
	}
	for status, want := range cancellable {
		assert.Equal(t, want, status.Cancellable(), "status %q", status)
	}
}
