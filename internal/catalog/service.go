package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/model"
	"storefront/internal/tenant"
	"storefront/prometheus"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicateSKU     = errors.New("product with this SKU already exists")
	ErrDuplicateName    = errors.New("category with this name already exists")
	ErrInvalidProduct   = errors.New("invalid product data")
)

// ProductInput carries the fields a shop can set on a product.
type ProductInput struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  uint            `json:"category_id"`
	Images      model.ImageList `json:"images"`
	IsActive    bool            `json:"is_active"`
}

func (in *ProductInput) validate() error {
	if in.SKU == "" {
		return fmt.Errorf("%w: sku is required", ErrInvalidProduct)
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}

// Service implements catalog CRUD within a resolved tenant scope. All
// storage access goes through handles obtained from the router.
type Service struct {
	router *tenant.Router
	log    *zap.Logger
}

func NewService(router *tenant.Router, log *zap.Logger) *Service {
	return &Service{router: router, log: log}
}

// CreateProduct adds a product to the scope's catalog. SKU uniqueness is
// tenant-local: two shops may both sell "GPU-1".
func (s *Service) CreateProduct(ctx context.Context, scopeID string, in ProductInput) (*model.Product, error) {
	prometheus.RecordProductOperation("create")

	if err := in.validate(); err != nil {
		return nil, err
	}

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := h.Products().WithContext(ctx).Where("sku = ?", in.SKU).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check sku: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateSKU, in.SKU)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	product := model.Product{
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		Images:      in.Images,
		IsActive:    in.IsActive,
	}
	if err := h.DB().WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.log.Info("product created",
		zap.String("scope_id", scopeID),
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU))
	return &product, nil
}

// GetProduct loads one product by id.
func (s *Service) GetProduct(ctx context.Context, scopeID string, id uint) (*model.Product, error) {
	prometheus.RecordProductOperation("get")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := h.DB().WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

// ListProducts returns the scope's products, optionally filtered by category
// and active flag.
func (s *Service) ListProducts(ctx context.Context, scopeID string, categoryID uint, activeOnly bool) ([]model.Product, error) {
	prometheus.RecordProductOperation("list")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	query := h.DB().WithContext(ctx).Model(&model.Product{})
	if categoryID != 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var products []model.Product
	if err := query.Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// UpdateProduct replaces a product's editable fields.
func (s *Service) UpdateProduct(ctx context.Context, scopeID string, id uint, in ProductInput) (*model.Product, error) {
	prometheus.RecordProductOperation("update")

	if err := in.validate(); err != nil {
		return nil, err
	}

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := h.DB().WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if in.SKU != product.SKU {
		var count int64
		if err := h.Products().WithContext(ctx).
			Where("sku = ? AND id != ?", in.SKU, id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check sku: %w", err)
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSKU, in.SKU)
		}
	}

	product.SKU = in.SKU
	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Stock = in.Stock
	product.CategoryID = in.CategoryID
	product.Images = in.Images
	product.IsActive = in.IsActive

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.DB().WithContext(ctx).Save(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.log.Info("product updated",
		zap.String("scope_id", scopeID),
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU))
	return &product, nil
}

// DeleteProduct soft-deletes a product.
func (s *Service) DeleteProduct(ctx context.Context, scopeID string, id uint) error {
	prometheus.RecordProductOperation("delete")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.DB().WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}

	s.log.Info("product deleted",
		zap.String("scope_id", scopeID),
		zap.Uint("product_id", id))
	return nil
}

// CreateCategory adds a category to the scope's catalog.
func (s *Service) CreateCategory(ctx context.Context, scopeID, name, description string) (*model.Category, error) {
	prometheus.RecordCategoryOperation("create")

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := h.Categories().WithContext(ctx).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	category := model.Category{Name: name, Description: description}
	if err := h.DB().WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// GetCategory loads one category by id.
func (s *Service) GetCategory(ctx context.Context, scopeID string, id uint) (*model.Category, error) {
	prometheus.RecordCategoryOperation("get")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var category model.Category
	if err := h.DB().WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	return &category, nil
}

// ListCategories returns all categories in the scope.
func (s *Service) ListCategories(ctx context.Context, scopeID string) ([]model.Category, error) {
	prometheus.RecordCategoryOperation("list")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	var categories []model.Category
	if err := h.DB().WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory soft-deletes a category. Products keep their category id;
// they just render uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, scopeID string, id uint) error {
	prometheus.RecordCategoryOperation("delete")

	h, err := s.router.HandlesFor(ctx, scopeID)
	if err != nil {
		return err
	}

	result := h.DB().WithContext(ctx).Delete(&model.Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
	}
	return nil
}
