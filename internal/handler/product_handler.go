package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/pkg/logger"
)

// ProductHandler serves catalog product endpoints within a resolved scope.
type ProductHandler struct {
	catalog *catalog.Service
}

func NewProductHandler(svc *catalog.Service) *ProductHandler {
	return &ProductHandler{catalog: svc}
}

// List handles retrieving the scope's products with optional filtering.
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	var categoryID uint
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			log.Warn("invalid category_id parameter", zap.String("value", raw))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
		}
		categoryID = uint(id)
	}
	activeOnly := c.QueryParam("is_active") == "true"

	products, err := h.catalog.ListProducts(c.Request().Context(), scopeID, categoryID, activeOnly)
	if err != nil {
		log.Error("failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	return c.JSON(http.StatusOK, products)
}

// Get handles retrieving a single product by ID.
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), scopeID, id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		log.Error("failed to load product", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve product"})
	}

	return c.JSON(http.StatusOK, product)
}

// Create handles creating a new product.
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	var req catalog.ProductInput
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid product payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	product, err := h.catalog.CreateProduct(c.Request().Context(), scopeID, req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidProduct):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, catalog.ErrDuplicateSKU):
			return c.JSON(http.StatusConflict, echo.Map{"error": "product with this SKU already exists"})
		default:
			log.Error("failed to create product", zap.String("sku", req.SKU), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create product"})
		}
	}

	return c.JSON(http.StatusCreated, product)
}

// Update handles updating an existing product.
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	var req catalog.ProductInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	product, err := h.catalog.UpdateProduct(c.Request().Context(), scopeID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, catalog.ErrInvalidProduct):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, catalog.ErrDuplicateSKU):
			return c.JSON(http.StatusConflict, echo.Map{"error": "product with this SKU already exists"})
		default:
			log.Error("failed to update product", zap.Uint("product_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product"})
		}
	}

	return c.JSON(http.StatusOK, product)
}

// Delete handles deleting a product (soft delete).
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	if err := h.catalog.DeleteProduct(c.Request().Context(), scopeID, id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		log.Error("failed to delete product", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete product"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted successfully"})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
