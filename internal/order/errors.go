package order

import "errors"

var (
	// Business-rule failures. These are terminal: the fulfillment loop
	// never retries them.
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrProductUnavailable  = errors.New("product unavailable")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidShippingInfo = errors.New("invalid shipping information")
	ErrInvalidOrderState   = errors.New("order is not in a cancellable state")
	ErrOrderNotFound       = errors.New("order not found")

	// ErrFulfillmentConflict is surfaced when the transaction keeps
	// colliding with concurrent writers and the retry budget runs out.
	ErrFulfillmentConflict = errors.New("fulfillment aborted after repeated write conflicts")
)
