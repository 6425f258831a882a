package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/pkg/logger"
)

// CategoryHandler serves catalog category endpoints within a resolved scope.
type CategoryHandler struct {
	catalog *catalog.Service
}

func NewCategoryHandler(svc *catalog.Service) *CategoryHandler {
	return &CategoryHandler{catalog: svc}
}

// List returns all categories in the scope.
func (h *CategoryHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	categories, err := h.catalog.ListCategories(c.Request().Context(), scopeID)
	if err != nil {
		log.Error("failed to list categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve categories"})
	}
	return c.JSON(http.StatusOK, categories)
}

// Get returns a single category by ID.
func (h *CategoryHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	category, err := h.catalog.GetCategory(c.Request().Context(), scopeID, id)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		log.Error("failed to load category", zap.Uint("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve category"})
	}
	return c.JSON(http.StatusOK, category)
}

// Create adds a new category.
func (h *CategoryHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	category, err := h.catalog.CreateCategory(c.Request().Context(), scopeID, req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidProduct):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, catalog.ErrDuplicateName):
			return c.JSON(http.StatusConflict, echo.Map{"error": "category with this name already exists"})
		default:
			log.Error("failed to create category", zap.String("name", req.Name), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create category"})
		}
	}

	return c.JSON(http.StatusCreated, category)
}

// Delete removes a category (soft delete).
func (h *CategoryHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	if err := h.catalog.DeleteCategory(c.Request().Context(), scopeID, id); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		log.Error("failed to delete category", zap.Uint("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete category"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted successfully"})
}
