package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/model"
	"storefront/internal/tenant"
	"storefront/prometheus"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)

// Engine converts carts into durable orders. Every conversion runs as one
// serializable transaction: stock check, stock decrement, order insert and
// cart clear either all commit or none do. Conflicts with concurrent
// fulfillments are retried per the policy; business failures are not.
type Engine struct {
	router *tenant.Router
	log    *zap.Logger
	policy RetryPolicy
}

// NewEngine creates an engine with the given retry policy.
func NewEngine(router *tenant.Router, log *zap.Logger, policy RetryPolicy) *Engine {
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	if policy.Retryable == nil {
		policy.Retryable = IsTransientConflict
	}
	return &Engine{router: router, log: log, policy: policy}
}

// CreateOrder converts the customer's current cart into an order. On success
// the cart is empty, stock is decremented, and the order reference is on the
// customer's history — atomically.
func (e *Engine) CreateOrder(ctx context.Context, scopeID string, customerID uint, shippingAddress, contactPhone string) (*model.Order, error) {
	h, err := e.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var placed *model.Order
	err = withRetry(ctx, e.log, e.policy, func(ctx context.Context) error {
		placed = nil
		return h.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			order, err := e.fulfill(tx, customerID, shippingAddress, contactPhone)
			if err != nil {
				return err
			}
			placed = order
			return nil
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordOrderCreated(placed.TotalAmount)
	e.log.Info("order created",
		zap.String("scope_id", scopeID),
		zap.Uint("order_id", placed.ID),
		zap.Uint("customer_id", customerID),
		zap.Float64("total_amount", placed.TotalAmount),
		zap.Int("lines", len(placed.Items)))
	return placed, nil
}

// fulfill is one attempt, executed inside tx. The customer row and every
// product row are locked FOR UPDATE, so the stock check and the decrement
// cannot interleave with a concurrent fulfillment of the same product.
func (e *Engine) fulfill(tx *gorm.DB, customerID uint, shippingAddress, contactPhone string) (*model.Order, error) {
	var customer model.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrCustomerNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	if len(customer.Cart) == 0 {
		return nil, ErrEmptyCart
	}

	// Lock products in id order so two carts sharing products cannot
	// deadlock by acquiring the same row locks in opposite order.
	lines := make(model.CartLines, len(customer.Cart))
	copy(lines, customer.Cart)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	products := make(map[uint]*model.Product, len(lines))
	for _, line := range lines {
		var product model.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, line.ProductID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: id %d", ErrProductUnavailable, line.ProductID)
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		products[product.ID] = &product
	}

	// Snapshot in the cart's original line order.
	items, total, err := buildOrderLines(customer.Cart, products)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		err := tx.Model(&model.Product{}).Where("id = ?", line.ProductID).
			UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity)).Error
		if err != nil {
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	if err := validateShippingInfo(shippingAddress, contactPhone); err != nil {
		return nil, err
	}

	order := model.Order{
		CustomerID:      customer.ID,
		Items:           items,
		TotalAmount:     total,
		Status:          model.OrderStatusPending,
		ShippingAddress: strings.TrimSpace(shippingAddress),
		ContactPhone:    strings.TrimSpace(contactPhone),
		IsPaid:          false,
	}
	if err := tx.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	refs := append(append(model.OrderRefs{}, customer.OrderRefs...), order.ID)
	err = tx.Model(&model.Customer{}).Where("id = ?", customer.ID).
		Updates(map[string]interface{}{
			"cart":       model.CartLines{},
			"order_refs": refs,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	return &order, nil
}

// buildOrderLines checks availability for every cart line and produces the
// immutable snapshots plus the order total. products must hold an entry for
// every product the caller managed to load.
func buildOrderLines(cart model.CartLines, products map[uint]*model.Product) (model.OrderLines, float64, error) {
	items := make(model.OrderLines, 0, len(cart))
	var total float64

	for _, line := range cart {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: id %d", ErrProductUnavailable, line.ProductID)
		}
		if !product.IsActive {
			return nil, 0, fmt.Errorf("%w: %q is inactive", ErrProductUnavailable, product.SKU)
		}
		if product.Stock < line.Quantity {
			return nil, 0, fmt.Errorf("%w: %q has %d, want %d",
				ErrInsufficientStock, product.SKU, product.Stock, line.Quantity)
		}

		items = append(items, model.OrderLine{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.MainImage(),
			Quantity:  line.Quantity,
		})
		total += product.Price * float64(line.Quantity)
	}
	return items, total, nil
}

func validateShippingInfo(shippingAddress, contactPhone string) error {
	address := strings.TrimSpace(shippingAddress)
	phone := strings.TrimSpace(contactPhone)

	if len(address) < 10 {
		return fmt.Errorf("%w: shipping address is missing or too short", ErrInvalidShippingInfo)
	}
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: contact phone %q is malformed", ErrInvalidShippingInfo, phone)
	}
	return nil
}

// CancelOrder marks a pending or confirmed order cancelled and returns its
// reserved stock to the catalog, as one atomic unit under the same retry
// discipline as creation.
func (e *Engine) CancelOrder(ctx context.Context, scopeID string, orderID uint) (*model.Order, error) {
	h, err := e.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var cancelled *model.Order
	err = withRetry(ctx, e.log, e.policy, func(ctx context.Context) error {
		cancelled = nil
		return h.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var order model.Order
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
				}
				return fmt.Errorf("failed to load order: %w", err)
			}

			if !order.Status.Cancellable() {
				return fmt.Errorf("%w: status %q", ErrInvalidOrderState, order.Status)
			}

			if err := tx.Model(&order).Update("status", model.OrderStatusCancelled).Error; err != nil {
				return fmt.Errorf("failed to cancel order: %w", err)
			}

			// Restock each snapshotted line. Products deleted since the
			// order was placed simply restock nothing.
			for _, item := range order.Items {
				err := tx.Model(&model.Product{}).Where("id = ?", item.ProductID).
					UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error
				if err != nil {
					return fmt.Errorf("failed to restock product %d: %w", item.ProductID, err)
				}
			}

			order.Status = model.OrderStatusCancelled
			cancelled = &order
			return nil
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordOrderCancelled()
	e.log.Info("order cancelled",
		zap.String("scope_id", scopeID),
		zap.Uint("order_id", cancelled.ID))
	return cancelled, nil
}

// GetOrder loads one order.
func (e *Engine) GetOrder(ctx context.Context, scopeID string, orderID uint) (*model.Order, error) {
	h, err := e.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var order model.Order
	if err := h.DB().WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// ListOrders returns a customer's orders, newest first.
func (e *Engine) ListOrders(ctx context.Context, scopeID string, customerID uint) ([]model.Order, error) {
	h, err := e.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	err = h.DB().WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
