// internal/core/services/product.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// ProductService manages product master data.
type ProductService struct {
	products   ports.ProductRepository
	categories ports.CategoryRepository
	logger     *slog.Logger
}

var _ ports.ProductService = (*ProductService)(nil)

// NewProductService creates a new product service.
func NewProductService(
	products ports.ProductRepository,
	categories ports.CategoryRepository,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		logger:     logger.With(slog.String("service", "product")),
	}
}

// Create validates and persists a new product, creating its category on the
// fly when the name is unknown.
func (s *ProductService) Create(ctx context.Context, product *domain.Product, categoryName string) error {
	if err := product.Validate(); err != nil {
		return err
	}

	exists, err := s.products.NameExists(ctx, product.Name, uuid.Nil)
	if err != nil {
		return fmt.Errorf("failed to check product name: %w", err)
	}
	if exists {
		return domain.NewConflict("a product with the same name already exists")
	}

	if categoryName != "" {
		category, err := s.categories.FindOrCreateByName(ctx, categoryName)
		if err != nil {
			return fmt.Errorf("failed to resolve category %q: %w", categoryName, err)
		}
		product.CategoryID = category.ID
	}

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := s.products.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name))

	return nil
}

// Update validates and persists changes to an existing product.
func (s *ProductService) Update(ctx context.Context, product *domain.Product, categoryName string) error {
	if err := product.Validate(); err != nil {
		return err
	}

	existing, err := s.products.FindByID(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if existing == nil {
		return domain.NewNotFound("product not found")
	}

	duplicate, err := s.products.NameExists(ctx, product.Name, product.ID)
	if err != nil {
		return fmt.Errorf("failed to check product name: %w", err)
	}
	if duplicate {
		return domain.NewConflict("a product with the same name already exists")
	}

	if categoryName != "" {
		category, err := s.categories.FindOrCreateByName(ctx, categoryName)
		if err != nil {
			return fmt.Errorf("failed to resolve category %q: %w", categoryName, err)
		}
		product.CategoryID = category.ID
	}

	if err := s.products.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID.String()))

	return nil
}

// Delete soft-deletes a product unless operations or inventory rows still
// reference it.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.products.SoftDelete(ctx, id); err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id.String()))

	return nil
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFound("product not found")
	}
	return product, nil
}

// List returns a page of products.
func (s *ProductService) List(ctx context.Context, params ports.ListParams) (*ports.ListResult[domain.Product], error) {
	params.Normalize()

	items, total, err := s.products.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return ports.NewListResult(items, params, total), nil
}

// SearchNames returns up to limit product names matching term.
func (s *ProductService) SearchNames(ctx context.Context, term string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	names, err := s.products.SearchNames(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return names, nil
}
