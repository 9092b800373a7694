package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/domain"
	"github.com/spec-kit/commerce-service/internal/repository"
	apperrors "github.com/spec-kit/commerce-service/pkg/util"
)

// CatalogService coordinates product management.
type CatalogService struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(products repository.ProductRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{products: products, logger: logger}
}

// ProductInput describes a create/update payload. Amounts are cents.
type ProductInput struct {
	Name              string
	Description       string
	Category          string
	Subcategory       string
	Brand             string
	PriceCents        int64
	SalePriceCents    *int64
	SaleStartsAt      *time.Time
	SaleEndsAt        *time.Time
	Stock             int
	LowStockThreshold int
	ImageURL          string
	Documents         []domain.ProductDocument
	IsActive          bool
	IsFeatured        bool
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	if in.PriceCents <= 0 {
		return apperrors.NewValidationError("price must be positive", nil)
	}
	if in.SalePriceCents != nil && *in.SalePriceCents <= 0 {
		return apperrors.NewValidationError("sale price must be positive", nil)
	}
	if in.Stock < 0 {
		return apperrors.NewValidationError("stock must not be negative", nil)
	}
	return nil
}

// CreateProduct adds a catalog item.
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product := &domain.Product{
		Name:              input.Name,
		Description:       input.Description,
		Category:          input.Category,
		Subcategory:       input.Subcategory,
		Brand:             input.Brand,
		PriceCents:        input.PriceCents,
		SalePriceCents:    input.SalePriceCents,
		SaleStartsAt:      input.SaleStartsAt,
		SaleEndsAt:        input.SaleEndsAt,
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
		ImageURL:          input.ImageURL,
		Documents:         input.Documents,
		IsActive:          input.IsActive,
		IsFeatured:        input.IsFeatured,
	}
	if product.Documents == nil {
		product.Documents = []domain.ProductDocument{}
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct replaces the mutable fields of a catalog item.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	if err := validateProductID(id); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", nil)
		}
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Category = input.Category
	product.Subcategory = input.Subcategory
	product.Brand = input.Brand
	product.PriceCents = input.PriceCents
	product.SalePriceCents = input.SalePriceCents
	product.SaleStartsAt = input.SaleStartsAt
	product.SaleEndsAt = input.SaleEndsAt
	product.Stock = input.Stock
	product.LowStockThreshold = input.LowStockThreshold
	product.ImageURL = input.ImageURL
	product.Documents = input.Documents
	if product.Documents == nil {
		product.Documents = []domain.ProductDocument{}
	}
	product.IsActive = input.IsActive
	product.IsFeatured = input.IsFeatured

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	if product.LowStock() {
		s.logger.Info("product low on stock",
			zap.String("product_id", product.ID),
			zap.Int("stock", product.Stock))
	}
	return product, nil
}

// DeleteProduct removes a catalog item. Historical orders keep their
// snapshotted line items, so deletion never invalidates them.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := validateProductID(id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("product", nil)
		}
		return err
	}
	return nil
}

// GetProduct fetches a catalog item and counts the view. Deactivated
// products stay hidden unless includeInactive is set; the admin edge
// passes it, the public edge never does.
func (s *CatalogService) GetProduct(ctx context.Context, id string, includeInactive bool) (*domain.Product, error) {
	if err := validateProductID(id); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", nil)
		}
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, apperrors.NewNotFound("product", nil)
	}
	if err := s.products.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("increment product views", zap.Error(err))
	}
	return product, nil
}

func validateProductID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewValidationError("invalid product id", nil)
	}
	return nil
}

// ListProducts returns the filtered catalog. Non-admin callers only see
// active products.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	return s.products.List(ctx, filter)
}
