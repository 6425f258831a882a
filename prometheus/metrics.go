package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storefront/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Tenant routing metrics
	TenantOperationsCounter     *prometheus.CounterVec
	TenantResolveErrorsCounter  *prometheus.CounterVec
	ScopeCacheHitsCounter       prometheus.Counter
	ScopeCacheMissesCounter     prometheus.Counter
	TenantContextMissingCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Fulfillment metrics
	FulfillmentAttemptsCounter  prometheus.Counter
	FulfillmentConflictsCounter prometheus.Counter
	OrdersCreatedCounter        prometheus.Counter
	OrdersCancelledCounter      prometheus.Counter
	OrderValueHistogram         prometheus.Histogram

	// Catalog metrics
	ProductOperationsCounter  *prometheus.CounterVec
	CategoryOperationsCounter *prometheus.CounterVec

	// Cart metrics
	CartOperationsCounter *prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	TenantOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_operations_total",
			Help: "Total number of tenant registry operations",
		},
		[]string{"operation"},
	)

	TenantResolveErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_resolve_errors_total",
			Help: "Total number of failed tenant resolutions",
		},
		[]string{"reason"},
	)

	ScopeCacheHitsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_scope_cache_hits_total",
			Help: "Total number of scope handle cache hits",
		},
	)

	ScopeCacheMissesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_scope_cache_misses_total",
			Help: "Total number of scope handle cache misses",
		},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	FulfillmentAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_fulfillment_attempts_total",
			Help: "Total number of order fulfillment transaction attempts",
		},
	)

	FulfillmentConflictsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_fulfillment_conflicts_total",
			Help: "Total number of transient write conflicts during fulfillment",
		},
	)

	OrdersCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_created_total",
			Help: "Total number of orders created",
		},
	)

	OrdersCancelledCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		},
	)

	OrderValueHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_order_value",
			Help:    "Distribution of order total amounts",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	ProductOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	CategoryOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_category_operations_total",
			Help: "Total number of category operations",
		},
		[]string{"operation"},
	)

	CartOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_cart_operations_total",
			Help: "Total number of cart operations",
		},
		[]string{"operation"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordTenantOperation increments the counter for tenant registry operations
func RecordTenantOperation(operation string) {
	if TenantOperationsCounter != nil {
		TenantOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordTenantResolveError increments the counter for failed resolutions
func RecordTenantResolveError(reason string) {
	if TenantResolveErrorsCounter != nil {
		TenantResolveErrorsCounter.WithLabelValues(reason).Inc()
	}
}

// RecordScopeCacheHit increments the scope handle cache hit counter
func RecordScopeCacheHit() {
	if ScopeCacheHitsCounter != nil {
		ScopeCacheHitsCounter.Inc()
	}
}

// RecordScopeCacheMiss increments the scope handle cache miss counter
func RecordScopeCacheMiss() {
	if ScopeCacheMissesCounter != nil {
		ScopeCacheMissesCounter.Inc()
	}
}

// RecordTenantContextMissing increments the missing-tenant-context counter
func RecordTenantContextMissing() {
	if TenantContextMissingCounter != nil {
		TenantContextMissingCounter.Inc()
	}
}

// RecordFulfillmentAttempt increments the fulfillment attempt counter
func RecordFulfillmentAttempt() {
	if FulfillmentAttemptsCounter != nil {
		FulfillmentAttemptsCounter.Inc()
	}
}

// RecordFulfillmentConflict increments the transient conflict counter
func RecordFulfillmentConflict() {
	if FulfillmentConflictsCounter != nil {
		FulfillmentConflictsCounter.Inc()
	}
}

// RecordOrderCreated records a committed order and its total amount
func RecordOrderCreated(totalAmount float64) {
	if OrdersCreatedCounter != nil {
		OrdersCreatedCounter.Inc()
	}
	if OrderValueHistogram != nil {
		OrderValueHistogram.Observe(totalAmount)
	}
}

// RecordOrderCancelled increments the cancelled order counter
func RecordOrderCancelled() {
	if OrdersCancelledCounter != nil {
		OrdersCancelledCounter.Inc()
	}
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	if ProductOperationsCounter != nil {
		ProductOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordCategoryOperation increments the counter for category operations
func RecordCategoryOperation(operation string) {
	if CategoryOperationsCounter != nil {
		CategoryOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordCartOperation increments the counter for cart operations
func RecordCartOperation(operation string) {
	if CartOperationsCounter != nil {
		CartOperationsCounter.WithLabelValues(operation).Inc()
	}
}
