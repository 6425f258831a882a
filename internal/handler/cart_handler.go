package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/middleware"
	"storefront/pkg/logger"
)

// CartHandler serves the authenticated customer's cart.
type CartHandler struct {
	cart *cart.Service
}

func NewCartHandler(svc *cart.Service) *CartHandler {
	return &CartHandler{cart: svc}
}

type cartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// View returns the cart joined with live product data.
func (h *CartHandler) View(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	views, err := h.cart.ViewCart(c.Request().Context(), scopeID, customerID)
	if err != nil {
		return cartErrorResponse(c, log, err)
	}
	return c.JSON(http.StatusOK, views)
}

// AddItem puts a product into the cart.
func (h *CartHandler) AddItem(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	var req cartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	lines, err := h.cart.AddItem(c.Request().Context(), scopeID, customerID, req.ProductID, req.Quantity)
	if err != nil {
		return cartErrorResponse(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

// UpdateItem sets a line's quantity; zero or negative removes the line.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	productID, err := parseID(c.Param("productId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	lines, err := h.cart.UpdateQuantity(c.Request().Context(), scopeID, customerID, productID, req.Quantity)
	if err != nil {
		return cartErrorResponse(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

// RemoveItem drops a product from the cart.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	productID, err := parseID(c.Param("productId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	lines, err := h.cart.RemoveItem(c.Request().Context(), scopeID, customerID, productID)
	if err != nil {
		return cartErrorResponse(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

// Clear empties the cart.
func (h *CartHandler) Clear(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, customerID, err := cartContext(c)
	if err != nil {
		return err
	}

	if err := h.cart.Clear(c.Request().Context(), scopeID, customerID); err != nil {
		return cartErrorResponse(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cart cleared"})
}

func cartContext(c echo.Context) (string, uint, error) {
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return "", 0, echo.NewHTTPError(http.StatusBadRequest, "missing tenant context")
	}
	customerID, ok := middleware.SubjectFromContext(c)
	if !ok {
		return "", 0, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return scopeID, customerID, nil
}

func cartErrorResponse(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, cart.ErrCustomerNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	case errors.Is(err, cart.ErrProductUnavailable):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product unavailable"})
	case errors.Is(err, cart.ErrLineNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item is not in the cart"})
	case errors.Is(err, cart.ErrInsufficientStock):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, cart.ErrInvalidQuantity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be positive"})
	default:
		log.Error("cart operation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart operation failed"})
	}
}
