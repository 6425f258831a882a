package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/model"
)

func TestUpsertLine(t *testing.T) {
	lines := model.CartLines{{ProductID: 1, Quantity: 2}}

	out := upsertLine(lines, 2, 1)
	assert.Equal(t, model.CartLines{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, out)

	out = upsertLine(out, 1, 3)
	assert.Equal(t, 5, out[0].Quantity, "adding an existing product merges quantities")

	// The input slice is never mutated; the cart column is replaced wholesale.
	assert.Equal(t, model.CartLines{{ProductID: 1, Quantity: 2}}, lines)
}

func TestSetQuantity(t *testing.T) {
	lines := model.CartLines{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}

	out, found := setQuantity(lines, 1, 7)
	assert.True(t, found)
	assert.Equal(t, 7, out[0].Quantity)

	_, found = setQuantity(lines, 99, 1)
	assert.False(t, found)

	// Zero and negative quantities remove the line.
	out, found = setQuantity(lines, 2, 0)
	assert.True(t, found)
	assert.Equal(t, model.CartLines{{ProductID: 1, Quantity: 2}}, out)

	out, found = setQuantity(lines, 1, -3)
	assert.True(t, found)
	assert.Equal(t, model.CartLines{{ProductID: 2, Quantity: 1}}, out)
}

func TestRemoveLine(t *testing.T) {
	lines := model.CartLines{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}

	out, found := removeLine(lines, 1)
	assert.True(t, found)
	assert.Equal(t, model.CartLines{{ProductID: 2, Quantity: 1}}, out)

	out, found = removeLine(out, 1)
	assert.False(t, found)
	assert.Len(t, out, 1)
}
