// Package catalog serves read-only product and category lookups for the storefront.
package catalog

import (
	"context"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/bjo163/tienda/pkg/common"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

type Service struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

func NewService(products repository.ProductRepository, categories repository.CategoryRepository) *Service {
	return &Service{products: products, categories: categories}
}

// ListProducts clamps paging to sane bounds before querying.
func (s *Service) ListProducts(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*domain.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	list, total, err := s.products.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, internal(err, "failed to list products")
	}
	return list, total, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apperr.NotFound("product not found: %d", id)
	}
	if err != nil {
		return nil, internal(err, "failed to query product")
	}
	return p, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, internal(err, "failed to list categories")
	}
	return list, nil
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apperr.NotFound("category not found: %d", id)
	}
	if err != nil {
		return nil, internal(err, "failed to query category")
	}
	return c, nil
}

func internal(err error, msg string) error {
	errorID := common.ErrorID()
	zap.L().Error(msg, zap.String("errorId", errorID), zap.Error(err), zap.String("namespace", "catalog"))
	return apperr.Internal(err, errorID, msg)
}
