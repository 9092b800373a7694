package dto

import (
	"time"

	"github.com/spec-kit/commerce-service/internal/domain"
)

// ProductRequest payload for catalog writes. Amounts are integer cents.
type ProductRequest struct {
	Name              string                   `json:"name"`
	Description       string                   `json:"description,omitempty"`
	Category          string                   `json:"category,omitempty"`
	Subcategory       string                   `json:"subcategory,omitempty"`
	Brand             string                   `json:"brand,omitempty"`
	PriceCents        int64                    `json:"price_cents"`
	SalePriceCents    *int64                   `json:"sale_price_cents,omitempty"`
	SaleStartsAt      *time.Time               `json:"sale_starts_at,omitempty"`
	SaleEndsAt        *time.Time               `json:"sale_ends_at,omitempty"`
	Stock             int                      `json:"stock"`
	LowStockThreshold int                      `json:"low_stock_threshold,omitempty"`
	ImageURL          string                   `json:"image_url,omitempty"`
	Documents         []domain.ProductDocument `json:"documents,omitempty"`
	IsActive          *bool                    `json:"is_active,omitempty"`
	IsFeatured        bool                     `json:"is_featured,omitempty"`
}

// ProductResponse mirrors a catalog item.
type ProductResponse struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	Description         string                   `json:"description,omitempty"`
	Category            string                   `json:"category,omitempty"`
	Subcategory         string                   `json:"subcategory,omitempty"`
	Brand               string                   `json:"brand,omitempty"`
	PriceCents          int64                    `json:"price_cents"`
	SalePriceCents      *int64                   `json:"sale_price_cents,omitempty"`
	SaleStartsAt        *time.Time               `json:"sale_starts_at,omitempty"`
	SaleEndsAt          *time.Time               `json:"sale_ends_at,omitempty"`
	EffectivePriceCents int64                    `json:"effective_price_cents"`
	Stock               int                      `json:"stock"`
	ImageURL            string                   `json:"image_url,omitempty"`
	Documents           []domain.ProductDocument `json:"documents,omitempty"`
	Rating              float64                  `json:"rating"`
	ViewCount           int64                    `json:"view_count"`
	SalesCount          int64                    `json:"sales_count"`
	IsActive            bool                     `json:"is_active"`
	IsFeatured          bool                     `json:"is_featured"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// NewProductResponse maps a domain product.
func NewProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Description:         p.Description,
		Category:            p.Category,
		Subcategory:         p.Subcategory,
		Brand:               p.Brand,
		PriceCents:          p.PriceCents,
		SalePriceCents:      p.SalePriceCents,
		SaleStartsAt:        p.SaleStartsAt,
		SaleEndsAt:          p.SaleEndsAt,
		EffectivePriceCents: p.EffectivePriceCents(time.Now()),
		Stock:               p.Stock,
		ImageURL:            p.ImageURL,
		Documents:           p.Documents,
		Rating:              p.Rating,
		ViewCount:           p.ViewCount,
		SalesCount:          p.SalesCount,
		IsActive:            p.IsActive,
		IsFeatured:          p.IsFeatured,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
