package main

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/handler"
	mid "storefront/internal/middleware"
	"storefront/internal/order"
	"storefront/internal/tenant"
	"storefront/pkg/config"
	"storefront/pkg/database"
	"storefront/pkg/jwtutil"
	"storefront/pkg/logger"
	"storefront/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load("storefront")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting storefront", appConfig.LogConfig()...)

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Optional Redis cache for tenant resolution
	var redisClient *redis.Client
	if appConfig.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     appConfig.Redis.Addr,
			Password: appConfig.Redis.Password,
			DB:       appConfig.Redis.DB,
		})
		log.Info("Tenant resolution cache enabled", zap.String("redis_addr", appConfig.Redis.Addr))
	}

	// Tenant routing core
	registry := tenant.NewRegistry(db, redisClient, appConfig.Redis.TTL)
	router := tenant.NewRouter(registry, tenant.NewScopeStore(db), log)

	// Domain services
	catalogSvc := catalog.NewService(router, log)
	cartSvc := cart.NewService(router, log)
	engine := order.NewEngine(router, log, order.RetryPolicy{
		MaxAttempts: appConfig.Fulfillment.MaxAttempts,
		BaseBackoff: appConfig.Fulfillment.BaseBackoff,
		Retryable:   order.IsTransientConflict,
	})

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	tenantHandler := handler.NewTenantHandler(router, registry)
	productHandler := handler.NewProductHandler(catalogSvc)
	categoryHandler := handler.NewCategoryHandler(catalogSvc)
	customerHandler := handler.NewCustomerHandler(router)
	cartHandler := handler.NewCartHandler(cartSvc)
	orderHandler := handler.NewOrderHandler(engine)

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoints
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Platform-level tenant administration
	tenantAPI := e.Group("/api/tenants")
	tenantAPI.POST("", tenantHandler.Register)
	tenantAPI.GET("/:slug", tenantHandler.Get)
	tenantAPI.PUT("/:slug/status", tenantHandler.UpdateStatus)
	tenantAPI.DELETE("/:slug", tenantHandler.Destroy)

	// Tenant-scoped storefront routes. Every request carries the tenant
	// slug in the configured header; the middleware resolves it once.
	shop := e.Group("/api/shop", mid.TenantMiddleware(router, appConfig.Tenant.Header))

	shop.POST("/customers/register", customerHandler.Register)
	shop.POST("/customers/login", customerHandler.Login)

	shop.GET("/products", productHandler.List)
	shop.GET("/products/:id", productHandler.Get)
	shop.GET("/categories", categoryHandler.List)
	shop.GET("/categories/:id", categoryHandler.Get)

	// Catalog management requires an authenticated shop user
	catalogAPI := shop.Group("", mid.AuthMiddleware)
	catalogAPI.POST("/products", productHandler.Create)
	catalogAPI.PUT("/products/:id", productHandler.Update)
	catalogAPI.DELETE("/products/:id", productHandler.Delete)
	catalogAPI.POST("/categories", categoryHandler.Create)
	catalogAPI.DELETE("/categories/:id", categoryHandler.Delete)

	// Cart and checkout require an authenticated customer
	cartAPI := shop.Group("/cart", mid.AuthMiddleware)
	cartAPI.GET("", cartHandler.View)
	cartAPI.POST("/items", cartHandler.AddItem)
	cartAPI.PUT("/items/:productId", cartHandler.UpdateItem)
	cartAPI.DELETE("/items/:productId", cartHandler.RemoveItem)
	cartAPI.DELETE("", cartHandler.Clear)

	orderAPI := shop.Group("/orders", mid.AuthMiddleware)
	orderAPI.POST("", orderHandler.Create)
	orderAPI.GET("", orderHandler.List)
	orderAPI.GET("/:id", orderHandler.Get)
	orderAPI.POST("/:id/cancel", orderHandler.Cancel)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
