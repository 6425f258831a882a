package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/model"
	"storefront/internal/tenant"
	"storefront/prometheus"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrLineNotFound       = errors.New("cart line not found")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
)

// View is one cart line joined with the product's live data. Unlike order
// lines this is not a durable snapshot; it reflects the catalog as of the
// read.
type View struct {
	ProductID uint    `json:"product_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	InStock   bool    `json:"in_stock"`
}

// Service mutates the cart embedded on the customer row. Every mutation is a
// read-modify-write of the whole array under a row lock, so two concurrent
// cart calls for the same customer serialize instead of losing updates.
type Service struct {
	router *tenant.Router
	log    *zap.Logger
}

func NewService(router *tenant.Router, log *zap.Logger) *Service {
	return &Service{router: router, log: log}
}

// AddItem puts qty units of a product into the cart, merging with an
// existing line for the same product.
func (s *Service) AddItem(ctx context.Context, scopeID string, customerID, productID uint, qty int) (model.CartLines, error) {
	prometheus.RecordCartOperation("add")

	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var updated model.CartLines
	err = h.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := lockCustomer(tx, customerID)
		if err != nil {
			return err
		}

		var product model.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrProductUnavailable, productID)
			}
			return fmt.Errorf("failed to load product: %w", err)
		}
		if !product.IsActive {
			return fmt.Errorf("%w: %q is inactive", ErrProductUnavailable, product.SKU)
		}

		wanted := qty
		if line := customer.Cart.Find(productID); line != nil {
			wanted += line.Quantity
		}
		if product.Stock < wanted {
			return fmt.Errorf("%w: %q has %d, want %d",
				ErrInsufficientStock, product.SKU, product.Stock, wanted)
		}

		updated = upsertLine(customer.Cart, productID, qty)
		return saveCart(tx, customerID, updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("cart item added",
		zap.String("scope_id", scopeID),
		zap.Uint("customer_id", customerID),
		zap.Uint("product_id", productID),
		zap.Int("quantity", qty))
	return updated, nil
}

// UpdateQuantity sets a line's quantity; zero or negative removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, scopeID string, customerID, productID uint, qty int) (model.CartLines, error) {
	prometheus.RecordCartOperation("update")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var updated model.CartLines
	err = h.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := lockCustomer(tx, customerID)
		if err != nil {
			return err
		}

		if qty > 0 {
			var product model.Product
			if err := tx.First(&product, productID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: id %d", ErrProductUnavailable, productID)
				}
				return fmt.Errorf("failed to load product: %w", err)
			}
			if product.Stock < qty {
				return fmt.Errorf("%w: %q has %d, want %d",
					ErrInsufficientStock, product.SKU, product.Stock, qty)
			}
		}

		lines, found := setQuantity(customer.Cart, productID, qty)
		if !found && qty > 0 {
			return fmt.Errorf("%w: product %d", ErrLineNotFound, productID)
		}
		updated = lines
		return saveCart(tx, customerID, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveItem drops a product's line from the cart.
func (s *Service) RemoveItem(ctx context.Context, scopeID string, customerID, productID uint) (model.CartLines, error) {
	prometheus.RecordCartOperation("remove")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var updated model.CartLines
	err = h.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := lockCustomer(tx, customerID)
		if err != nil {
			return err
		}

		lines, found := removeLine(customer.Cart, productID)
		if !found {
			return fmt.Errorf("%w: product %d", ErrLineNotFound, productID)
		}
		updated = lines
		return saveCart(tx, customerID, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, scopeID string, customerID uint) error {
	prometheus.RecordCartOperation("clear")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return err
	}

	return h.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCustomer(tx, customerID); err != nil {
			return err
		}
		return saveCart(tx, customerID, model.CartLines{})
	})
}

// ViewCart returns the cart lines joined with live product data. Lines whose
// product has since been deleted are reported with InStock false.
func (s *Service) ViewCart(ctx context.Context, scopeID string, customerID uint) ([]View, error) {
	prometheus.RecordCartOperation("view")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var customer model.Customer
	if err := h.DB().WithContext(ctx).First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrCustomerNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	views := make([]View, 0, len(customer.Cart))
	if len(customer.Cart) == 0 {
		return views, nil
	}

	ids := make([]uint, 0, len(customer.Cart))
	for _, line := range customer.Cart {
		ids = append(ids, line.ProductID)
	}

	var products []model.Product
	if err := h.DB().WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	byID := make(map[uint]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, line := range customer.Cart {
		v := View{ProductID: line.ProductID, Quantity: line.Quantity}
		if p, ok := byID[line.ProductID]; ok {
			v.SKU = p.SKU
			v.Name = p.Name
			v.Price = p.Price
			v.Image = p.MainImage()
			v.Subtotal = p.Price * float64(line.Quantity)
			v.InStock = p.IsActive && p.Stock >= line.Quantity
		}
		views = append(views, v)
	}
	return views, nil
}

func lockCustomer(tx *gorm.DB, customerID uint) (*model.Customer, error) {
	var customer model.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrCustomerNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return &customer, nil
}

func saveCart(tx *gorm.DB, customerID uint, lines model.CartLines) error {
	err := tx.Model(&model.Customer{}).Where("id = ?", customerID).
		Update("cart", lines).Error
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
