package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/tenant"
	"storefront/pkg/jwtutil"
	"storefront/pkg/logger"
)

// CustomerHandler serves shopper signup and login within a resolved scope.
// Customers are tenant-local: the same email can hold accounts on two shops.
type CustomerHandler struct {
	router *tenant.Router
}

func NewCustomerHandler(router *tenant.Router) *CustomerHandler {
	return &CustomerHandler{router: router}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Register creates a customer account in the shop's scope.
func (h *CustomerHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	handles, err := h.router.HandlesFor(c.Request().Context(), scopeID)
	if err != nil {
		log.Error("failed to attach scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "shop unavailable"})
	}

	var count int64
	if err := handles.Customers().WithContext(c.Request().Context()).
		Where("email = ?", req.Email).Count(&count).Error; err != nil {
		log.Error("failed to check customer email", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "an account with this email already exists"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	customer := model.Customer{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Cart:         model.CartLines{},
		OrderRefs:    model.OrderRefs{},
	}
	if err := handles.DB().WithContext(c.Request().Context()).Create(&customer).Error; err != nil {
		log.Error("failed to create customer", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("customer registered",
		zap.String("scope_id", scopeID),
		zap.Uint("customer_id", customer.ID))
	return c.JSON(http.StatusCreated, customer)
}

// Login checks credentials and issues a scope-bound token.
func (h *CustomerHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	scopeID, ok := middleware.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant context"})
	}

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	handles, err := h.router.HandlesFor(c.Request().Context(), scopeID)
	if err != nil {
		log.Error("failed to attach scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "shop unavailable"})
	}

	var customer model.Customer
	err = handles.DB().WithContext(c.Request().Context()).
		Where("email = ?", req.Email).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Error("failed to load customer", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	if bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)) != nil {
		log.Warn("failed login attempt",
			zap.String("scope_id", scopeID),
			zap.Uint("customer_id", customer.ID))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(customer.ID, customer.Email, scopeID, "customer")
	if err != nil {
		log.Error("failed to sign token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token, "customer": customer})
}
