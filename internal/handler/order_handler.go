package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/order"
	"storefront/pkg/logger"
)

// OrderHandler is the HTTP entry point into the fulfillment engine.
type OrderHandler struct {
	engine *order.Engine
}

func NewOrderHandler(engine *order.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

type createOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	ContactPhone    string `json:"contact_phone"`
}

// Create converts the customer's cart into an order.
func (h *OrderHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	placed, err := h.engine.CreateOrder(c.Request().Context(), scopeID, customerID,
		req.ShippingAddress, req.ContactPhone)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}

	return c.JSON(http.StatusCreated, placed)
}

// Cancel cancels a pending or confirmed order and restocks its lines.
func (h *OrderHandler) Cancel(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	orderID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	// Customers may only cancel their own orders.
	existing, err := h.engine.GetOrder(c.Request().Context(), scopeID, orderID)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}
	if existing.CustomerID != customerID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	cancelled, err := h.engine.CancelOrder(c.Request().Context(), scopeID, orderID)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, cancelled)
}

// Get returns one of the customer's orders.
func (h *OrderHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	orderID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	found, err := h.engine.GetOrder(c.Request().Context(), scopeID, orderID)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}
	if found.CustomerID != customerID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	return c.JSON(http.StatusOK, found)
}

// List returns the customer's order history, newest first.
func (h *OrderHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	orders, err := h.engine.ListOrders(c.Request().Context(), scopeID, customerID)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func orderErrorResponse(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, order.ErrCustomerNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	case errors.Is(err, order.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	case errors.Is(err, order.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	case errors.Is(err, order.ErrProductUnavailable):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, order.ErrInsufficientStock):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, order.ErrInvalidShippingInfo):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, order.ErrInvalidOrderState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "order can no longer be cancelled"})
	case errors.Is(err, order.ErrFulfillmentConflict):
		log.Warn("fulfillment conflict surfaced to client", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": "shop is busy, please retry"})
	default:
		log.Error("order operation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order operation failed"})
	}
}
